// Copyright 2025 GOVRES Settlement Authority
//
// Block - canonical settlement block and transaction records
// Blocks form a singly-linked, append-only chain via previous_hash

package block

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxType identifies the settlement operation a transaction records.
type TxType string

const (
	TxMint     TxType = "MINT"
	TxTransfer TxType = "TRANSFER"
	TxRedeem   TxType = "REDEEM"
	TxConvert  TxType = "CONVERT"
	TxSettle   TxType = "SETTLE"
	TxBurn     TxType = "BURN"
)

// InstrumentType identifies which instrument a transaction settles.
type InstrumentType string

const (
	InstrumentGBDC InstrumentType = "GBDC"
	InstrumentCRDN InstrumentType = "CRDN"
)

// ZeroHash is the previous_hash of the genesis block and the first audit entry.
const ZeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Transaction is a single settlement record. It sits in the engine's pending
// queue until sealed into exactly one block, and is never modified after.
type Transaction struct {
	TxID           string                 `json:"tx_id"` // 64-hex
	Type           TxType                 `json:"type"`
	InstrumentType InstrumentType         `json:"instrument_type"`
	InstrumentID   string                 `json:"instrument_id"`
	FromAccount    string                 `json:"from_account"`
	ToAccount      string                 `json:"to_account"`
	Amount         decimal.Decimal        `json:"amount"`
	Timestamp      time.Time              `json:"timestamp"`
	Data           map[string]interface{} `json:"data,omitempty"`
	Signature      string                 `json:"signature"` // validator digest, 64-hex
}

// BlockHeader carries the hashed metadata of a block. ValidatorSignature is
// excluded from the block hash so signatures may be attached post-hash.
type BlockHeader struct {
	BlockHeight        uint64    `json:"block_height"`
	PreviousHash       string    `json:"previous_hash"`
	Timestamp          time.Time `json:"timestamp"`
	MerkleRoot         string    `json:"merkle_root"`
	TransactionCount   int       `json:"transaction_count"`
	ValidatorID        string    `json:"validator_id"`
	ValidatorSignature string    `json:"validator_signature"`
	Nonce              uint64    `json:"nonce"`
}

// Block is a sealed batch of settlement transactions.
type Block struct {
	Header       BlockHeader    `json:"header"`
	Transactions []*Transaction `json:"transactions"`
	Hash         string         `json:"hash"`
}
