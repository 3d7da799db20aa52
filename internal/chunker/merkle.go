package chunker

import (
	"encoding/base64"

	"github.com/zeebo/blake3"
)

// MerkleBuilder computes a Merkle root incrementally, holding one node per
// tree level instead of every leaf.
//
// The tree pairs nodes left to right; an odd node at the end of a level is
// paired with itself. The zero value is ready to use.
type MerkleBuilder struct {
	stack []merkleNode
	count int
}

type merkleNode struct {
	level int
	hash  []byte
}

// Add appends a leaf hash.
func (b *MerkleBuilder) Add(leaf []byte) {
	node := merkleNode{hash: append([]byte(nil), leaf...)}
	for len(b.stack) > 0 && b.stack[len(b.stack)-1].level == node.level {
		left := b.stack[len(b.stack)-1]
		b.stack = b.stack[:len(b.stack)-1]
		node = merkleNode{level: node.level + 1, hash: hashPair(left.hash, node.hash)}
	}
	b.stack = append(b.stack, node)
	b.count++
}

// Count returns how many leaves were added.
func (b *MerkleBuilder) Count() int {
	return b.count
}

// Root returns the root hash, or nil when no leaves were added.
func (b *MerkleBuilder) Root() []byte {
	if len(b.stack) == 0 {
		return nil
	}
	// Fold the unfinished subtrees from the smallest up. A node with no
	// sibling at its level is paired with itself until it meets one.
	carry := b.stack[len(b.stack)-1]
	for i := len(b.stack) - 2; i >= 0; i-- {
		left := b.stack[i]
		for carry.level < left.level {
			carry = merkleNode{level: carry.level + 1, hash: hashPair(carry.hash, carry.hash)}
		}
		carry = merkleNode{level: left.level + 1, hash: hashPair(left.hash, carry.hash)}
	}
	return append([]byte(nil), carry.hash...)
}

func hashPair(left, right []byte) []byte {
	hasher := blake3.New()
	hasher.Write(left)
	hasher.Write(right)
	return hasher.Sum(nil)
}

// ComputeMerkleRoot computes the Merkle root from base64 chunk hashes.
func ComputeMerkleRoot(chunkHashes []string) (string, error) {
	var b MerkleBuilder
	for _, hashStr := range chunkHashes {
		decoded, err := base64.StdEncoding.DecodeString(hashStr)
		if err != nil {
			return "", err
		}
		b.Add(decoded)
	}
	return encodeRoot(b.Root()), nil
}

func encodeRoot(root []byte) string {
	if root == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(root)
}
