// Copyright 2025 GOVRES Settlement Authority
//
// Block validation against a chain predecessor

package block

import "github.com/govres/govres/pkg/config"

// Validate reports whether b passes all structural checks, optionally against
// its chain predecessor. All six checks must hold:
//
//  1. The stored hash matches the recomputed header hash.
//  2. previous_hash links to the predecessor's hash.
//  3. The Merkle root matches the transaction list.
//  4. transaction_count matches the transaction list length.
//  5. block_height is the predecessor's height plus one.
//  6. The transaction list is within the per-block bound.
//
// Validation never mutates the block; any failure returns false.
func Validate(b *Block, predecessor *Block) bool {
	if b == nil {
		return false
	}

	if ComputeBlockHash(&b.Header) != b.Hash {
		return false
	}

	if predecessor != nil && b.Header.PreviousHash != predecessor.Hash {
		return false
	}

	if ComputeMerkleRoot(b.Transactions) != b.Header.MerkleRoot {
		return false
	}

	if b.Header.TransactionCount != len(b.Transactions) {
		return false
	}

	if predecessor != nil && b.Header.BlockHeight != predecessor.Header.BlockHeight+1 {
		return false
	}

	if len(b.Transactions) > config.MaxTxPerBlock {
		return false
	}

	return true
}
