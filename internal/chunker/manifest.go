package chunker

// Manifest describes a stream as hashed fixed-size chunks.
type Manifest struct {
	Size       int64             `json:"size"`
	ChunkSize  int               `json:"chunk_size"`
	ChunkCount int               `json:"chunk_count"`
	HashAlgo   string            `json:"hash_algo"`
	Chunks     []ChunkDescriptor `json:"chunks,omitempty"`
	MerkleRoot string            `json:"merkle_root"`
}

// ChunkDescriptor describes a single chunk
type ChunkDescriptor struct {
	Index  int    `json:"index"`
	Hash   string `json:"hash"`   // Base64-encoded BLAKE3 hash
	Length int    `json:"length"` // Actual chunk length in bytes
}

// Complete reports whether every chunk has the full chunk size.
func (m *Manifest) Complete() bool {
	return m.Size == int64(m.ChunkCount)*int64(m.ChunkSize)
}

// ChunkOptions configures chunking behavior
type ChunkOptions struct {
	ChunkSize int // Chunk size in bytes (default: 1 MiB)

	// OmitChunks leaves Manifest.Chunks empty; only the count, size and
	// Merkle root are computed.
	OmitChunks bool
}

// DefaultChunkOptions returns default chunking options
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{
		ChunkSize: 1048576, // 1 MiB
	}
}
