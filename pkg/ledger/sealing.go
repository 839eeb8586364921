// Copyright 2025 GOVRES Settlement Authority
//
// Block sealing - drains the pending queue into validated blocks
//
// Sealing runs on a background interval tick or through an explicit Flush.
// Both paths take the engine's mutation lock, so sealing is linearized with
// every other mutating operation.

package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/govres/govres/pkg/audit"
	"github.com/govres/govres/pkg/block"
	"github.com/govres/govres/pkg/metrics"
)

// Flush seals one block from the pending queue. It returns the sealed block,
// or nil when the queue was empty.
func (e *Engine) Flush() (*block.Block, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return nil, ErrNotInitialized
	}
	return e.sealLocked()
}

// sealLocked drains up to maxTxPerBlock transactions FIFO, builds and
// validates a block against the tip, and appends it. On validation failure
// the drained transactions stay at the head of the queue in original order.
func (e *Engine) sealLocked() (*block.Block, error) {
	if len(e.pending) == 0 {
		return nil, nil
	}

	n := len(e.pending)
	if n > e.maxTxPerBlock {
		n = e.maxTxPerBlock
	}
	drained := make([]*block.Transaction, n)
	copy(drained, e.pending[:n])

	tip := e.chain[len(e.chain)-1]
	header := block.BlockHeader{
		BlockHeight:        tip.Header.BlockHeight + 1,
		PreviousHash:       tip.Hash,
		Timestamp:          time.Now().UTC(),
		MerkleRoot:         block.ComputeMerkleRoot(drained),
		TransactionCount:   n,
		ValidatorID:        e.validatorID,
		ValidatorSignature: "",
		Nonce:              0,
	}
	sealed := &block.Block{
		Header:       header,
		Transactions: drained,
		Hash:         block.ComputeBlockHash(&header),
	}

	if !block.Validate(sealed, tip) {
		metrics.BlockSealFailures.Inc()
		e.bus.Publish("block:validation_failed", map[string]interface{}{
			"blockHeight": header.BlockHeight,
		})
		e.logger.Printf("Block %d failed validation; %d transactions returned to queue",
			header.BlockHeight, n)
		return nil, fmt.Errorf("%w: height %d", ErrBlockValidationFailed, header.BlockHeight)
	}

	e.chain = append(e.chain, sealed)
	e.pending = e.pending[n:]

	metrics.BlocksSealedTotal.Inc()
	metrics.ChainHeight.Set(float64(header.BlockHeight))
	metrics.PendingTransactions.Set(float64(len(e.pending)))

	e.recordAudit(audit.Params{
		Action:       "BLOCK_SEALED",
		ActorID:      e.validatorID,
		ActorRole:    string(RoleCentralBank),
		ResourceType: "block",
		ResourceID:   sealed.Hash,
		Details: map[string]interface{}{
			"blockHeight": header.BlockHeight,
			"txCount":     n,
		},
	})

	e.bus.Publish("block:generated", map[string]interface{}{
		"blockHeight": header.BlockHeight,
		"hash":        sealed.Hash,
		"txCount":     n,
	})

	e.logger.Printf("Sealed block %d: hash=%s, txs=%d, pending=%d",
		header.BlockHeight, sealed.Hash[:16]+"...", n, len(e.pending))

	return sealed, nil
}

// Start launches the sealing loop: one sealing attempt per block interval.
// The loop stops when ctx is cancelled or Stop is called.
func (e *Engine) Start(ctx context.Context) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.stopCh != nil {
		return nil // already running
	}

	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})

	go e.run(ctx, e.stopCh, e.doneCh)

	e.logger.Printf("Sealing loop started (interval=%s, max_tx=%d)", e.blockInterval, e.maxTxPerBlock)
	return nil
}

// Stop halts the sealing loop and waits for it to exit.
func (e *Engine) Stop() {
	e.runMu.Lock()
	if e.stopCh == nil {
		e.runMu.Unlock()
		return
	}
	stopCh, doneCh := e.stopCh, e.doneCh
	e.stopCh, e.doneCh = nil, nil
	e.runMu.Unlock()

	close(stopCh)
	<-doneCh
	e.logger.Println("Sealing loop stopped")
}

// run is the sealing loop body.
func (e *Engine) run(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(e.blockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if _, err := e.Flush(); err != nil {
				e.logger.Printf("Sealing tick failed: %v", err)
			}
		}
	}
}
