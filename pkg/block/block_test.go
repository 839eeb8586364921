// Copyright 2025 GOVRES Settlement Authority
//
// Block hashing, Merkle summarization, and validation tests

package block

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/govres/govres/pkg/cryptoutil"
	"github.com/govres/govres/pkg/merkle"
)

func fixedHeader() BlockHeader {
	return BlockHeader{
		BlockHeight:      7,
		PreviousHash:     "aa00000000000000000000000000000000000000000000000000000000000000",
		Timestamp:        time.Date(2025, 6, 1, 12, 0, 0, 250_000_000, time.UTC),
		MerkleRoot:       merkle.EmptyRoot(),
		TransactionCount: 0,
		ValidatorID:      "BOG-VALIDATOR-01",
		Nonce:            0,
	}
}

func testTx(txID, sig string) *Transaction {
	return &Transaction{
		TxID:           txID,
		Type:           TxMint,
		InstrumentType: InstrumentGBDC,
		InstrumentID:   "GBDC-test-0000000000000000",
		FromAccount:    "BOG_RESERVE",
		ToAccount:      "BOG_TREASURY",
		Amount:         decimal.NewFromInt(1000),
		Timestamp:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Signature:      sig,
	}
}

func TestComputeBlockHash_Deterministic(t *testing.T) {
	h := fixedHeader()
	first := ComputeBlockHash(&h)
	if len(first) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(first))
	}
	for i := 0; i < 5; i++ {
		if got := ComputeBlockHash(&h); got != first {
			t.Fatalf("hash changed across invocations: %s vs %s", got, first)
		}
	}
}

func TestComputeBlockHash_IgnoresValidatorSignature(t *testing.T) {
	h := fixedHeader()
	unsigned := ComputeBlockHash(&h)

	h.ValidatorSignature = "deadbeef"
	if ComputeBlockHash(&h) != unsigned {
		t.Error("validator signature must be excluded from the block hash")
	}
}

func TestComputeBlockHash_FieldSensitivity(t *testing.T) {
	base := fixedHeader()
	baseHash := ComputeBlockHash(&base)

	mutations := []func(*BlockHeader){
		func(h *BlockHeader) { h.BlockHeight++ },
		func(h *BlockHeader) { h.PreviousHash = ZeroHash },
		func(h *BlockHeader) { h.Timestamp = h.Timestamp.Add(time.Millisecond) },
		func(h *BlockHeader) { h.MerkleRoot = cryptoutil.Hash([]byte("other")) },
		func(h *BlockHeader) { h.TransactionCount++ },
		func(h *BlockHeader) { h.ValidatorID = "BOG-VALIDATOR-02" },
		func(h *BlockHeader) { h.Nonce++ },
	}

	for i, mutate := range mutations {
		h := fixedHeader()
		mutate(&h)
		if ComputeBlockHash(&h) == baseHash {
			t.Errorf("mutation %d did not change the block hash", i)
		}
	}
}

func TestComputeMerkleRoot_Empty(t *testing.T) {
	if got := ComputeMerkleRoot(nil); got != merkle.EmptyRoot() {
		t.Errorf("empty merkle root mismatch: got %s", got)
	}
}

func TestComputeMerkleRoot_Sensitivity(t *testing.T) {
	txA := testTx("aa", "11")
	txB := testTx("bb", "22")
	base := ComputeMerkleRoot([]*Transaction{txA, txB})

	// Changing any byte of a tx id or signature changes the root.
	if ComputeMerkleRoot([]*Transaction{testTx("ab", "11"), txB}) == base {
		t.Error("root should change with a tx id")
	}
	if ComputeMerkleRoot([]*Transaction{testTx("aa", "12"), txB}) == base {
		t.Error("root should change with a signature")
	}
	if ComputeMerkleRoot([]*Transaction{txB, txA}) == base {
		t.Error("root should change with transaction order")
	}
}

func TestNewGenesisBlock(t *testing.T) {
	genesis := NewGenesisBlock("BOG-VALIDATOR-01")

	if genesis.Header.BlockHeight != 0 {
		t.Errorf("genesis height mismatch: got %d", genesis.Header.BlockHeight)
	}
	if genesis.Header.PreviousHash != ZeroHash {
		t.Errorf("genesis previous hash mismatch: got %s", genesis.Header.PreviousHash)
	}
	if len(genesis.Transactions) != 0 {
		t.Errorf("genesis should carry no transactions, got %d", len(genesis.Transactions))
	}
	if genesis.Header.MerkleRoot != merkle.EmptyRoot() {
		t.Errorf("genesis merkle root mismatch: got %s", genesis.Header.MerkleRoot)
	}
	if genesis.Hash != ComputeBlockHash(&genesis.Header) {
		t.Error("genesis hash does not match its header")
	}
	if !Validate(genesis, nil) {
		t.Error("genesis should validate without a predecessor")
	}
}

func sealNext(predecessor *Block, txs []*Transaction) *Block {
	header := BlockHeader{
		BlockHeight:      predecessor.Header.BlockHeight + 1,
		PreviousHash:     predecessor.Hash,
		Timestamp:        predecessor.Header.Timestamp.Add(5 * time.Second),
		MerkleRoot:       ComputeMerkleRoot(txs),
		TransactionCount: len(txs),
		ValidatorID:      predecessor.Header.ValidatorID,
		Nonce:            0,
	}
	return &Block{Header: header, Transactions: txs, Hash: ComputeBlockHash(&header)}
}

func TestValidate_GoodBlock(t *testing.T) {
	genesis := NewGenesisBlock("BOG-VALIDATOR-01")
	next := sealNext(genesis, []*Transaction{testTx("aa", "11"), testTx("bb", "22")})

	if !Validate(next, genesis) {
		t.Error("well-formed block should validate against its predecessor")
	}
}

func TestValidate_Failures(t *testing.T) {
	genesis := NewGenesisBlock("BOG-VALIDATOR-01")
	txs := []*Transaction{testTx("aa", "11"), testTx("bb", "22")}

	cases := []struct {
		name   string
		mutate func(*Block)
	}{
		{"tampered hash", func(b *Block) { b.Hash = cryptoutil.Hash([]byte("tampered")) }},
		{"broken link", func(b *Block) {
			b.Header.PreviousHash = ZeroHash
			b.Hash = ComputeBlockHash(&b.Header)
		}},
		{"wrong merkle root", func(b *Block) {
			b.Header.MerkleRoot = merkle.EmptyRoot()
			b.Hash = ComputeBlockHash(&b.Header)
		}},
		{"wrong count", func(b *Block) {
			b.Header.TransactionCount = 5
			b.Hash = ComputeBlockHash(&b.Header)
		}},
		{"wrong height", func(b *Block) {
			b.Header.BlockHeight = 9
			b.Hash = ComputeBlockHash(&b.Header)
		}},
	}

	for _, tc := range cases {
		b := sealNext(genesis, txs)
		tc.mutate(b)
		if Validate(b, genesis) {
			t.Errorf("%s: block should not validate", tc.name)
		}
	}
}

func TestValidate_SizeBound(t *testing.T) {
	genesis := NewGenesisBlock("BOG-VALIDATOR-01")

	txs := make([]*Transaction, 1001)
	for i := range txs {
		txs[i] = testTx(cryptoutil.Hash([]byte{byte(i), byte(i >> 8)}), "11")
	}

	over := sealNext(genesis, txs)
	if Validate(over, genesis) {
		t.Error("block over the per-block bound should not validate")
	}

	within := sealNext(genesis, txs[:1000])
	if !Validate(within, genesis) {
		t.Error("block at the per-block bound should validate")
	}
}
