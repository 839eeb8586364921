// Copyright 2025 GOVRES Settlement Authority
//
// Read-only query surface. Queries take the read lock and observe a
// consistent snapshot between mutations. Account and instrument records are
// returned as copies; blocks are returned as stored in the chain.

package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/govres/govres/pkg/block"
)

// ChainHeight returns the height of the chain tip. The genesis block is
// height 0; a zero height before Initialize means no chain exists yet.
func (e *Engine) ChainHeight() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.chain) == 0 {
		return 0
	}
	return e.chain[len(e.chain)-1].Header.BlockHeight
}

// GetBlock returns the block at the given height.
func (e *Engine) GetBlock(height uint64) (*block.Block, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if height >= uint64(len(e.chain)) {
		return nil, fmt.Errorf("%w: height %d", ErrBlockNotFound, height)
	}
	return e.chain[height], nil
}

// LatestBlock returns the chain tip, or nil before Initialize.
func (e *Engine) LatestBlock() *block.Block {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.chain) == 0 {
		return nil
	}
	return e.chain[len(e.chain)-1]
}

// GetAccountBalance returns a copy of an account's current state.
func (e *Engine) GetAccountBalance(accountID string) (*Account, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	acct, ok := e.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, accountID)
	}
	copied := *acct
	return &copied, nil
}

// GetGBDCRecord returns a copy of a GBDC instrument record.
func (e *Engine) GetGBDCRecord(instrumentID string) (*GBDCInstrument, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	inst, ok := e.gbdcInstruments[instrumentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstrument, instrumentID)
	}
	copied := *inst
	return &copied, nil
}

// GetCRDNRecord returns a copy of a CRDN instrument record.
func (e *Engine) GetCRDNRecord(instrumentID string) (*CRDNInstrument, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	inst, ok := e.crdnInstruments[instrumentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstrument, instrumentID)
	}
	copied := *inst
	return &copied, nil
}

// TotalGBDCOutstanding sums amountCedi over MINTED and CIRCULATING
// instruments.
func (e *Engine) TotalGBDCOutstanding() decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.totalGBDCOutstandingLocked()
}

// TotalCRDNOutstanding sums amountCedi over ISSUED and HELD notes.
func (e *Engine) TotalCRDNOutstanding() decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.totalCRDNOutstandingLocked()
}

// PendingCount returns the pending queue depth.
func (e *Engine) PendingCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.pending)
}

// AccountCount returns the number of registered accounts.
func (e *Engine) AccountCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.accounts)
}

// GetReserveSummary returns the aggregate reserve and supply view. The
// backing ratio is (goldGrams + cocoaKg) / (totalGBDC + totalCRDN), zero
// when nothing is outstanding.
func (e *Engine) GetReserveSummary() ReserveSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	totalGBDC := e.totalGBDCOutstandingLocked()
	totalCRDN := e.totalCRDNOutstandingLocked()

	ratio := decimal.Zero
	if denom := totalGBDC.Add(totalCRDN); denom.IsPositive() {
		ratio = e.goldReserveGrams.Add(e.cocoaReserveKg).Div(denom)
	}

	var height uint64
	if len(e.chain) > 0 {
		height = e.chain[len(e.chain)-1].Header.BlockHeight
	}

	return ReserveSummary{
		GoldReserveGrams:     e.goldReserveGrams,
		CocoaReserveKg:       e.cocoaReserveKg,
		TotalGBDCOutstanding: totalGBDC,
		TotalCRDNOutstanding: totalCRDN,
		ChainHeight:          height,
		PendingTransactions:  len(e.pending),
		AccountCount:         len(e.accounts),
		ReserveBackingRatio:  ratio,
	}
}
