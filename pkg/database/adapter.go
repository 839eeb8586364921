// Copyright 2025 GOVRES Settlement Authority
//
// Persistence Adapter - mirrors engine state into PostgreSQL
//
// The adapter subscribes to the engine's event bus and applies each event to
// the mirror tables on its own goroutine. The engine is the source of truth:
// a persistence error is logged and skipped, and a dropped delivery is
// recovered the next time the same resource changes.

package database

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/govres/govres/pkg/events"
	"github.com/govres/govres/pkg/ledger"
)

// Adapter consumes engine events and persists the affected state.
type Adapter struct {
	engine *ledger.Engine
	repo   *LedgerRepository
	sub    *events.Subscription
	logger *log.Logger

	doneCh       chan struct{}
	closeOnce    sync.Once
	lastAuditSeq uint64
	opTimeout    time.Duration
}

// NewAdapter creates a persistence adapter over an engine and a connected
// client. Call Start to begin consuming events.
func NewAdapter(engine *ledger.Engine, client *Client, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.New(log.Writer(), "[PersistAdapter] ", log.LstdFlags)
	}
	return &Adapter{
		engine:    engine,
		repo:      NewLedgerRepository(client),
		logger:    logger,
		doneCh:    make(chan struct{}),
		opTimeout: 10 * time.Second,
	}
}

// Start subscribes to the engine bus and launches the consumer loop.
func (a *Adapter) Start(bufferSize int) {
	a.sub = a.engine.Bus().Subscribe(bufferSize)
	go a.run()
	a.logger.Printf("Persistence adapter started (buffer=%d)", bufferSize)
}

// Close stops consuming and waits for in-flight work to finish.
func (a *Adapter) Close() {
	a.closeOnce.Do(func() {
		if a.sub != nil {
			a.sub.Close()
			<-a.doneCh
		}
	})
}

func (a *Adapter) run() {
	defer close(a.doneCh)

	for evt := range a.sub.C {
		ctx, cancel := context.WithTimeout(context.Background(), a.opTimeout)
		a.handle(ctx, evt)
		a.syncAudit(ctx)
		cancel()
	}
}

func (a *Adapter) handle(ctx context.Context, evt events.Event) {
	switch evt.Name {
	case "ledger:initialized":
		a.persistBlock(ctx, 0)
		a.persistAccounts(ctx, ledger.TreasuryAccount, ledger.ReserveAccount)

	case "account:registered":
		a.persistAccounts(ctx, payloadString(evt, "accountId"))

	case "reserve:gold:updated":
		a.persistReserve(ctx, "gold", payloadString(evt, "totalGrams"), payloadString(evt, "attestationHash"))

	case "reserve:cocoa:updated":
		a.persistReserve(ctx, "cocoa", payloadString(evt, "totalKg"), payloadString(evt, "attestationHash"))

	case "gbdc:minted":
		a.persistGBDC(ctx, payloadString(evt, "instrumentId"))
		a.persistAccounts(ctx, ledger.TreasuryAccount)

	case "gbdc:transferred":
		a.persistGBDC(ctx, payloadString(evt, "instrumentId"))
		a.persistAccounts(ctx, payloadString(evt, "fromAccount"), payloadString(evt, "toAccount"))

	case "gbdc:redeemed":
		a.persistGBDC(ctx, payloadString(evt, "instrumentId"))
		a.persistAccounts(ctx, payloadString(evt, "holderAccount"), ledger.TreasuryAccount)

	case "crdn:issued":
		a.persistCRDN(ctx, payloadString(evt, "instrumentId"))
		a.persistAccounts(ctx, payloadString(evt, "farmerId"))

	case "crdn:held":
		a.persistCRDN(ctx, payloadString(evt, "instrumentId"))

	case "crdn:converted":
		a.persistCRDN(ctx, payloadString(evt, "instrumentId"))
		a.persistAccounts(ctx, payloadString(evt, "farmerId"))

	case "block:generated":
		if height, ok := evt.Payload["blockHeight"].(uint64); ok {
			a.persistBlock(ctx, height)
		}
	}
}

func payloadString(evt events.Event, key string) string {
	s, _ := evt.Payload[key].(string)
	return s
}

func (a *Adapter) persistAccounts(ctx context.Context, ids ...string) {
	for _, id := range ids {
		if id == "" {
			continue
		}
		acct, err := a.engine.GetAccountBalance(id)
		if err != nil {
			a.logger.Printf("Skipping account %s: %v", id, err)
			continue
		}
		if err := a.repo.UpsertAccount(ctx, acct); err != nil {
			a.logger.Printf("Failed to persist account %s: %v", id, err)
		}
	}
}

func (a *Adapter) persistGBDC(ctx context.Context, instrumentID string) {
	if instrumentID == "" {
		return
	}
	inst, err := a.engine.GetGBDCRecord(instrumentID)
	if err != nil {
		a.logger.Printf("Skipping GBDC %s: %v", instrumentID, err)
		return
	}
	if err := a.repo.UpsertGBDCInstrument(ctx, inst); err != nil {
		a.logger.Printf("Failed to persist GBDC %s: %v", instrumentID, err)
	}
}

func (a *Adapter) persistCRDN(ctx context.Context, instrumentID string) {
	if instrumentID == "" {
		return
	}
	inst, err := a.engine.GetCRDNRecord(instrumentID)
	if err != nil {
		a.logger.Printf("Skipping CRDN %s: %v", instrumentID, err)
		return
	}
	if err := a.repo.UpsertCRDNInstrument(ctx, inst); err != nil {
		a.logger.Printf("Failed to persist CRDN %s: %v", instrumentID, err)
	}
}

func (a *Adapter) persistReserve(ctx context.Context, reserveType, total, attestationHash string) {
	value, err := decimal.NewFromString(total)
	if err != nil {
		a.logger.Printf("Skipping %s reserve update with total %q: %v", reserveType, total, err)
		return
	}
	if err := a.repo.UpsertReserve(ctx, reserveType, value, attestationHash); err != nil {
		a.logger.Printf("Failed to persist %s reserve: %v", reserveType, err)
	}
}

func (a *Adapter) persistBlock(ctx context.Context, height uint64) {
	b, err := a.engine.GetBlock(height)
	if err != nil {
		a.logger.Printf("Skipping block %d: %v", height, err)
		return
	}
	if err := a.repo.InsertBlock(ctx, b); err != nil {
		a.logger.Printf("Failed to persist block %d: %v", height, err)
	}
}

// syncAudit copies any audit entries appended since the last pass.
func (a *Adapter) syncAudit(ctx context.Context) {
	for _, entry := range a.engine.Audit().Entries() {
		if entry.SequenceNumber <= a.lastAuditSeq {
			continue
		}
		if err := a.repo.InsertAuditEntry(ctx, entry); err != nil {
			a.logger.Printf("Failed to persist audit entry %d: %v", entry.SequenceNumber, err)
			return
		}
		a.lastAuditSeq = entry.SequenceNumber
	}
}
