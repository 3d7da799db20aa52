package chunker

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// ErrPartialChunk is returned by an exact Chunker when the stream ends
// inside a chunk.
var ErrPartialChunk = errors.New("stream ended inside a chunk")

// Chunker provides streaming chunking of data from an io.Reader.
//
// Each call to Next fills the buffer completely unless the stream ends
// first. A chunker built with NewChunker returns the short tail as a final
// chunk; one built with NewExactChunker reports it as ErrPartialChunk.
// The returned slice is reused by the next call.
type Chunker struct {
	reader    io.Reader
	chunkSize int
	buffer    []byte
	exact     bool
	index     int
	done      bool
}

// NewChunker creates a new streaming chunker
func NewChunker(r io.Reader, chunkSize int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive")
	}
	return &Chunker{
		reader:    r,
		chunkSize: chunkSize,
		buffer:    make([]byte, chunkSize),
	}, nil
}

// NewExactChunker creates a chunker for fixed-size records.
func NewExactChunker(r io.Reader, chunkSize int) (*Chunker, error) {
	c, err := NewChunker(r, chunkSize)
	if err != nil {
		return nil, err
	}
	c.exact = true
	return c, nil
}

// Next returns the next chunk of data, or io.EOF once the stream ended on
// a chunk boundary.
func (c *Chunker) Next() ([]byte, error) {
	if c.done {
		return nil, io.EOF
	}
	n, err := io.ReadFull(c.reader, c.buffer)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		c.done = true
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		c.done = true
		if c.exact {
			return nil, fmt.Errorf("%w: chunk %d has %d of %d bytes", ErrPartialChunk, c.index, n, c.chunkSize)
		}
	default:
		return nil, err
	}
	c.index++
	return c.buffer[:n], nil
}

// Count returns how many chunks Next has returned.
func (c *Chunker) Count() int {
	return c.index
}

// Wipe zeroes the internal buffer.
func (c *Chunker) Wipe() {
	clear(c.buffer)
}

// ComputeManifest reads r to the end and describes it as a sequence of
// BLAKE3-hashed chunks. A trailing partial chunk is included with its
// actual length. With OmitChunks set, memory use does not grow with the
// stream.
func ComputeManifest(r io.Reader, options ChunkOptions) (*Manifest, error) {
	// Validate chunk size
	if options.ChunkSize <= 0 {
		options.ChunkSize = DefaultChunkOptions().ChunkSize
	}

	c, err := NewChunker(r, options.ChunkSize)
	if err != nil {
		return nil, err
	}

	var (
		chunks []ChunkDescriptor
		tree   MerkleBuilder
		size   int64
	)
	for {
		chunk, err := c.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk %d: %w", c.Count(), err)
		}

		sum := blake3.Sum256(chunk)
		tree.Add(sum[:])
		size += int64(len(chunk))

		if !options.OmitChunks {
			chunks = append(chunks, ChunkDescriptor{
				Index:  tree.Count() - 1,
				Hash:   base64.StdEncoding.EncodeToString(sum[:]),
				Length: len(chunk),
			})
		}
	}

	return &Manifest{
		Size:       size,
		ChunkSize:  options.ChunkSize,
		ChunkCount: tree.Count(),
		HashAlgo:   "BLAKE3",
		Chunks:     chunks,
		MerkleRoot: encodeRoot(tree.Root()),
	}, nil
}
