// Copyright 2025 GOVRES Settlement Authority
//
// Deterministic block hashing, Merkle summarization, and genesis construction

package block

import (
	"fmt"
	"time"

	"github.com/govres/govres/pkg/commitment"
	"github.com/govres/govres/pkg/cryptoutil"
	"github.com/govres/govres/pkg/merkle"
)

// ComputeBlockHash canonicalizes the header fields in fixed order -
// blockHeight, previousHash, timestampISO, merkleRoot, transactionCount,
// validatorId, nonce - and returns the 64-hex SHA-256 of the serialization.
// ValidatorSignature is deliberately excluded.
func ComputeBlockHash(h *BlockHeader) string {
	canonical := fmt.Sprintf("%d|%s|%s|%s|%d|%s|%d",
		h.BlockHeight,
		h.PreviousHash,
		commitment.TimestampISO(h.Timestamp),
		h.MerkleRoot,
		h.TransactionCount,
		h.ValidatorID,
		h.Nonce,
	)
	return cryptoutil.Hash([]byte(canonical))
}

// LeafHash produces the Merkle leaf for a transaction: SHA-256 over the
// concatenation of its id and validator signature.
func LeafHash(tx *Transaction) string {
	return cryptoutil.Hash([]byte(tx.TxID + tx.Signature))
}

// ComputeMerkleRoot summarizes an ordered transaction list into one 64-hex
// digest. The root is a deterministic function of transaction order.
func ComputeMerkleRoot(txs []*Transaction) string {
	if len(txs) == 0 {
		return merkle.EmptyRoot()
	}
	leaves := make([]string, len(txs))
	for i, tx := range txs {
		leaves[i] = LeafHash(tx)
	}
	return merkle.ComputeRoot(leaves)
}

// NewGenesisBlock produces the height-0 block: all-zero previous hash, no
// transactions, and the fixed empty Merkle root.
func NewGenesisBlock(validatorID string) *Block {
	header := BlockHeader{
		BlockHeight:      0,
		PreviousHash:     ZeroHash,
		Timestamp:        time.Now().UTC(),
		MerkleRoot:       merkle.EmptyRoot(),
		TransactionCount: 0,
		ValidatorID:      validatorID,
		Nonce:            0,
	}
	return &Block{
		Header:       header,
		Transactions: []*Transaction{},
		Hash:         ComputeBlockHash(&header),
	}
}
