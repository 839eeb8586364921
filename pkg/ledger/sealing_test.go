// Copyright 2025 GOVRES Settlement Authority
//
// Block sealing tests - queue draining, chain integrity, size bounds

package ledger

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/govres/govres/pkg/block"
)

func enqueueMints(t *testing.T, e *Engine, n int) {
	t.Helper()
	if err := e.RegisterGoldReserve(dec(1_000_000), "h"); err != nil {
		t.Fatalf("failed to register reserve: %v", err)
	}
	for i := 0; i < n; i++ {
		if _, err := e.MintGBDC(MintGBDCParams{
			AmountCedi:       dec(1_000),
			GoldBackingGrams: dec(1),
			IssuanceID:       fmt.Sprintf("ISS-%d", i),
			IssuedBy:         TreasuryAccount,
		}); err != nil {
			t.Fatalf("failed to mint %d: %v", i, err)
		}
	}
}

func TestFlush_EmptyQueueIsNoOp(t *testing.T) {
	e := newTestEngine(t)

	sealed, err := e.Flush()
	if err != nil {
		t.Fatalf("empty flush errored: %v", err)
	}
	if sealed != nil {
		t.Error("empty flush should not seal a block")
	}
	if e.ChainHeight() != 0 {
		t.Errorf("chain height should remain 0, got %d", e.ChainHeight())
	}
}

func TestFlush_SealsPendingTransactions(t *testing.T) {
	e := newTestEngine(t)
	enqueueMints(t, e, 3)

	if e.PendingCount() != 3 {
		t.Fatalf("expected 3 pending, got %d", e.PendingCount())
	}

	sealed, err := e.Flush()
	if err != nil {
		t.Fatalf("failed to flush: %v", err)
	}
	if sealed == nil {
		t.Fatal("flush should seal a block")
	}
	if len(sealed.Transactions) != 3 {
		t.Errorf("expected 3 transactions, got %d", len(sealed.Transactions))
	}
	if sealed.Header.BlockHeight != 1 {
		t.Errorf("first sealed block should be height 1, got %d", sealed.Header.BlockHeight)
	}
	if e.PendingCount() != 0 {
		t.Errorf("queue should drain, %d left", e.PendingCount())
	}

	got, err := e.GetBlock(1)
	if err != nil {
		t.Fatalf("failed to fetch block 1: %v", err)
	}
	if got.Hash != sealed.Hash {
		t.Error("stored block does not match the sealed block")
	}
}

func TestSealing_TwoTicksSplitLargeQueue(t *testing.T) {
	e := newTestEngine(t)
	enqueueMints(t, e, 1_500)

	first, err := e.Flush()
	if err != nil {
		t.Fatalf("first seal failed: %v", err)
	}
	if len(first.Transactions) != 1_000 {
		t.Errorf("first block should carry 1000 transactions, got %d", len(first.Transactions))
	}

	second, err := e.Flush()
	if err != nil {
		t.Fatalf("second seal failed: %v", err)
	}
	if len(second.Transactions) != 500 {
		t.Errorf("second block should carry 500 transactions, got %d", len(second.Transactions))
	}

	genesis, _ := e.GetBlock(0)
	if !block.Validate(first, genesis) {
		t.Error("first block does not validate against genesis")
	}
	if !block.Validate(second, first) {
		t.Error("second block does not validate against the first")
	}
}

func TestSealing_PreservesEnqueueOrder(t *testing.T) {
	e := newTestEngine(t)
	enqueueMints(t, e, 10)

	sealed, err := e.Flush()
	if err != nil {
		t.Fatalf("failed to flush: %v", err)
	}

	for i, tx := range sealed.Transactions {
		want := fmt.Sprintf("ISS-%d", i)
		if got := tx.Data["issuanceId"]; got != want {
			t.Errorf("transaction %d out of order: got %v, want %s", i, got, want)
		}
	}
}

func TestSealing_FullChainIntegrity(t *testing.T) {
	e := newTestEngine(t)
	e.RegisterGoldReserve(dec(1_000_000), "h")
	e.RegisterAccount("BANK-A", RoleCommercialBank)

	// Interleave operations and seals across several blocks.
	for round := 0; round < 5; round++ {
		id, err := e.MintGBDC(MintGBDCParams{
			AmountCedi:       dec(1_000),
			GoldBackingGrams: dec(2),
			IssuanceID:       fmt.Sprintf("ISS-%d", round),
			IssuedBy:         TreasuryAccount,
		})
		if err != nil {
			t.Fatalf("round %d mint failed: %v", round, err)
		}
		if _, err := e.TransferGBDC(TransferGBDCParams{
			InstrumentID: id, FromAccount: TreasuryAccount, ToAccount: "BANK-A", AmountCedi: dec(1_000),
		}); err != nil {
			t.Fatalf("round %d transfer failed: %v", round, err)
		}
		if _, err := e.Flush(); err != nil {
			t.Fatalf("round %d seal failed: %v", round, err)
		}
	}

	if e.ChainHeight() != 5 {
		t.Fatalf("expected height 5, got %d", e.ChainHeight())
	}

	// Every block N>=1 passes all validation checks against block N-1, and
	// no block exceeds the per-block bound.
	for height := uint64(1); height <= e.ChainHeight(); height++ {
		current, err := e.GetBlock(height)
		if err != nil {
			t.Fatalf("failed to fetch block %d: %v", height, err)
		}
		previous, err := e.GetBlock(height - 1)
		if err != nil {
			t.Fatalf("failed to fetch block %d: %v", height-1, err)
		}
		if !block.Validate(current, previous) {
			t.Errorf("block %d fails validation against its predecessor", height)
		}
		if len(current.Transactions) > 1000 {
			t.Errorf("block %d exceeds the size bound: %d", height, len(current.Transactions))
		}
	}
}

func TestSealing_EmitsBlockGenerated(t *testing.T) {
	e := newTestEngine(t)
	sub := e.Bus().Subscribe(16, "block:generated")
	defer sub.Close()

	enqueueMints(t, e, 2)
	sealed, err := e.Flush()
	if err != nil {
		t.Fatalf("failed to flush: %v", err)
	}

	select {
	case evt := <-sub.C:
		if evt.Payload["hash"] != sealed.Hash {
			t.Errorf("event hash mismatch: %v", evt.Payload["hash"])
		}
		if evt.Payload["txCount"] != 2 {
			t.Errorf("event txCount mismatch: %v", evt.Payload["txCount"])
		}
	case <-time.After(time.Second):
		t.Fatal("block:generated was not emitted")
	}
}

func TestStartStop_SealingLoop(t *testing.T) {
	e := New(&Config{
		ValidatorID:   "BOG-VALIDATOR-01",
		BlockInterval: 10 * time.Millisecond,
		MaxTxPerBlock: 1000,
		Logger:        log.New(io.Discard, "", 0),
	})
	if err := e.Initialize(); err != nil {
		t.Fatalf("failed to initialize: %v", err)
	}
	enqueueMints(t, e, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := e.Start(ctx); err != nil {
		t.Fatalf("failed to start loop: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for e.ChainHeight() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	e.Stop()

	if e.ChainHeight() == 0 {
		t.Error("interval tick never sealed the pending queue")
	}
	if e.PendingCount() != 0 {
		t.Errorf("pending queue should drain, %d left", e.PendingCount())
	}

	// Stop is idempotent.
	e.Stop()
}
