// Copyright 2025 GOVRES Settlement Authority
//
// Ledger Engine - the central settlement state machine
//
// The engine owns the accounts map, both instrument registries, the reserve
// counters, the pending transaction queue, and the chain. It is a
// single-writer, multi-reader component: one lock serializes every mutation
// and the sealing tick; read-only queries take the read side.

package ledger

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/govres/govres/pkg/audit"
	"github.com/govres/govres/pkg/block"
	"github.com/govres/govres/pkg/config"
	"github.com/govres/govres/pkg/cryptoutil"
	"github.com/govres/govres/pkg/events"
	"github.com/govres/govres/pkg/metrics"
)

// Config holds engine configuration.
type Config struct {
	ValidatorID   string
	BlockInterval time.Duration
	MaxTxPerBlock int
	Logger        *log.Logger

	// Bus and Audit may be shared with other components; the engine creates
	// its own when nil.
	Bus   *events.Bus
	Audit *audit.Log
}

// DefaultConfig returns engine configuration bound to the protocol constants.
func DefaultConfig() *Config {
	return &Config{
		ValidatorID:   "BOG-VALIDATOR-01",
		BlockInterval: config.BlockInterval,
		MaxTxPerBlock: config.MaxTxPerBlock,
		Logger:        log.New(log.Writer(), "[Ledger] ", log.LstdFlags),
	}
}

// Engine is the GOVRES core state machine.
type Engine struct {
	mu sync.RWMutex

	// Configuration
	validatorID   string
	blockInterval time.Duration
	maxTxPerBlock int

	// State owned by the engine; no external mutation path exists
	accounts         map[string]*Account
	gbdcInstruments  map[string]*GBDCInstrument
	crdnInstruments  map[string]*CRDNInstrument
	goldReserveGrams decimal.Decimal
	cocoaReserveKg   decimal.Decimal
	pending          []*block.Transaction
	chain            []*block.Block

	initialized bool

	// Collaborators
	bus      *events.Bus
	auditLog *audit.Log
	logger   *log.Logger

	// Sealing loop state
	runMu  sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates an engine. Call Initialize before any other mutation.
func New(cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Writer(), "[Ledger] ", log.LstdFlags)
	}
	if cfg.Bus == nil {
		cfg.Bus = events.NewBus(cfg.Logger, func(name string) {
			metrics.EventsDropped.WithLabelValues(name).Inc()
		})
	}
	if cfg.Audit == nil {
		cfg.Audit = audit.NewLog(cfg.Logger)
	}
	if cfg.MaxTxPerBlock <= 0 {
		cfg.MaxTxPerBlock = config.MaxTxPerBlock
	}
	if cfg.BlockInterval <= 0 {
		cfg.BlockInterval = config.BlockInterval
	}
	if cfg.ValidatorID == "" {
		cfg.ValidatorID = "BOG-VALIDATOR-01"
	}

	return &Engine{
		validatorID:      cfg.ValidatorID,
		blockInterval:    cfg.BlockInterval,
		maxTxPerBlock:    cfg.MaxTxPerBlock,
		accounts:         make(map[string]*Account),
		gbdcInstruments:  make(map[string]*GBDCInstrument),
		crdnInstruments:  make(map[string]*CRDNInstrument),
		goldReserveGrams: decimal.Zero,
		cocoaReserveKg:   decimal.Zero,
		pending:          make([]*block.Transaction, 0),
		chain:            make([]*block.Block, 0),
		bus:              cfg.Bus,
		auditLog:         cfg.Audit,
		logger:           cfg.Logger,
	}
}

// Bus returns the engine's event bus for subscribers.
func (e *Engine) Bus() *events.Bus {
	return e.bus
}

// Audit returns the engine's audit log.
func (e *Engine) Audit() *audit.Log {
	return e.auditLog
}

// ValidatorID returns the configured validator identity.
func (e *Engine) ValidatorID() string {
	return e.validatorID
}

// Initialize creates the genesis block and pre-registers the administrative
// accounts. It must be called exactly once before any other mutation.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return ErrAlreadyInitialized
	}

	genesis := block.NewGenesisBlock(e.validatorID)
	e.chain = append(e.chain, genesis)

	now := time.Now().UTC()
	for _, id := range []string{TreasuryAccount, ReserveAccount} {
		e.accounts[id] = &Account{
			AccountID:   id,
			Role:        RoleCentralBank,
			GBDCBalance: decimal.Zero,
			CRDNBalance: decimal.Zero,
			IsActive:    true,
			CreatedAt:   now,
		}
	}

	e.initialized = true
	metrics.ChainHeight.Set(0)

	e.recordAudit(audit.Params{
		Action:       "LEDGER_INITIALIZED",
		ActorID:      e.validatorID,
		ActorRole:    string(RoleCentralBank),
		ResourceType: "block",
		ResourceID:   genesis.Hash,
		Details: map[string]interface{}{
			"blockHeight": genesis.Header.BlockHeight,
		},
	})

	e.bus.Publish("ledger:initialized", map[string]interface{}{
		"blockHeight": genesis.Header.BlockHeight,
		"hash":        genesis.Hash,
	})

	e.logger.Printf("Ledger initialized: genesis %s, validator %s", genesis.Hash[:16]+"...", e.validatorID)
	return nil
}

// RegisterAccount inserts a new account with zero balances.
func (e *Engine) RegisterAccount(accountID string, role Role) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return ErrNotInitialized
	}
	if accountID == "" {
		return fmt.Errorf("%w: empty account id", ErrUnknownAccount)
	}
	if _, exists := e.accounts[accountID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAccount, accountID)
	}

	e.accounts[accountID] = &Account{
		AccountID:   accountID,
		Role:        role,
		GBDCBalance: decimal.Zero,
		CRDNBalance: decimal.Zero,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}

	e.recordAudit(audit.Params{
		Action:       "ACCOUNT_REGISTERED",
		ActorID:      accountID,
		ActorRole:    string(role),
		ResourceType: "account",
		ResourceID:   accountID,
	})

	e.bus.Publish("account:registered", map[string]interface{}{
		"accountId": accountID,
		"role":      string(role),
	})

	return nil
}

// RegisterGoldReserve records additional attested gold in the reserve. The
// attestation hash is provenance only; the core does not verify it.
func (e *Engine) RegisterGoldReserve(grams decimal.Decimal, attestationHash string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return ErrNotInitialized
	}
	if !grams.IsPositive() {
		return fmt.Errorf("%w: gold grams %s", ErrNonPositiveAmount, grams)
	}

	e.goldReserveGrams = e.goldReserveGrams.Add(grams)

	e.recordAudit(audit.Params{
		Action:       "GOLD_RESERVE_REGISTERED",
		ActorID:      e.validatorID,
		ActorRole:    string(RoleCentralBank),
		ResourceType: "reserve",
		ResourceID:   "gold",
		Details: map[string]interface{}{
			"addedGrams":      grams.String(),
			"totalGrams":      e.goldReserveGrams.String(),
			"attestationHash": attestationHash,
		},
	})

	e.bus.Publish("reserve:gold:updated", map[string]interface{}{
		"totalGrams":      e.goldReserveGrams.String(),
		"addedGrams":      grams.String(),
		"attestationHash": attestationHash,
	})

	return nil
}

// RegisterCocoaReserve records additional attested cocoa stock in the reserve.
func (e *Engine) RegisterCocoaReserve(kg decimal.Decimal, attestationHash string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return ErrNotInitialized
	}
	if !kg.IsPositive() {
		return fmt.Errorf("%w: cocoa kg %s", ErrNonPositiveAmount, kg)
	}

	e.cocoaReserveKg = e.cocoaReserveKg.Add(kg)

	e.recordAudit(audit.Params{
		Action:       "COCOA_RESERVE_REGISTERED",
		ActorID:      e.validatorID,
		ActorRole:    string(RoleCentralBank),
		ResourceType: "reserve",
		ResourceID:   "cocoa",
		Details: map[string]interface{}{
			"addedKg":         kg.String(),
			"totalKg":         e.cocoaReserveKg.String(),
			"attestationHash": attestationHash,
		},
	})

	e.bus.Publish("reserve:cocoa:updated", map[string]interface{}{
		"totalKg":         e.cocoaReserveKg.String(),
		"addedKg":         kg.String(),
		"attestationHash": attestationHash,
	})

	return nil
}

// ============================================================================
// Internal helpers (callers hold e.mu)
// ============================================================================

// newTransactionLocked builds a signed transaction without enqueueing it.
// Identifier generation happens before any state mutation so an entropy
// failure cannot leave partial state.
func (e *Engine) newTransactionLocked(txType block.TxType, instrType block.InstrumentType, instrumentID, from, to string, amount decimal.Decimal, data map[string]interface{}) (*block.Transaction, error) {
	txID, err := cryptoutil.NewTxID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate transaction id: %w", err)
	}
	now := time.Now().UTC()
	return &block.Transaction{
		TxID:           txID,
		Type:           txType,
		InstrumentType: instrType,
		InstrumentID:   instrumentID,
		FromAccount:    from,
		ToAccount:      to,
		Amount:         amount,
		Timestamp:      now,
		Data:           data,
		Signature:      cryptoutil.SignTx(txID, e.validatorID, now.UnixMilli()),
	}, nil
}

// enqueueLocked appends a transaction to the pending queue and announces it.
func (e *Engine) enqueueLocked(tx *block.Transaction) {
	e.pending = append(e.pending, tx)
	metrics.TransactionsTotal.WithLabelValues(string(tx.Type)).Inc()
	metrics.PendingTransactions.Set(float64(len(e.pending)))

	e.bus.Publish("transaction:created", map[string]interface{}{
		"txId": tx.TxID,
		"type": string(tx.Type),
	})
}

// recordAudit appends to the audit chain; a hashing failure is logged, never
// propagated, so audit trouble cannot roll back settled state.
func (e *Engine) recordAudit(params audit.Params) {
	if _, err := e.auditLog.Append(params); err != nil {
		e.logger.Printf("Failed to record audit entry %s: %v", params.Action, err)
		return
	}
	metrics.AuditEntriesTotal.Inc()
}

// currentGoldBackingLocked sums goldBackingGrams over non-terminal GBDC
// instruments.
func (e *Engine) currentGoldBackingLocked() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range e.gbdcInstruments {
		if !inst.Status.IsTerminal() {
			total = total.Add(inst.GoldBackingGrams)
		}
	}
	return total
}

// goldAllocationCapLocked is the backing ceiling: the allocation percentage
// of the declared gold reserve.
func (e *Engine) goldAllocationCapLocked() decimal.Decimal {
	return e.goldReserveGrams.
		Mul(decimal.NewFromInt(config.GoldReserveAllocationPercent)).
		Div(decimal.NewFromInt(100))
}

// totalGBDCOutstandingLocked sums amountCedi over MINTED and CIRCULATING
// instruments.
func (e *Engine) totalGBDCOutstandingLocked() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range e.gbdcInstruments {
		if inst.Status == GBDCMinted || inst.Status == GBDCCirculating {
			total = total.Add(inst.AmountCedi)
		}
	}
	return total
}

// totalCRDNOutstandingLocked sums amountCedi over ISSUED and HELD notes.
func (e *Engine) totalCRDNOutstandingLocked() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range e.crdnInstruments {
		if inst.Status == CRDNIssued || inst.Status == CRDNHeld {
			total = total.Add(inst.AmountCedi)
		}
	}
	return total
}

// updateSupplyGaugesLocked refreshes the outstanding-supply gauges.
func (e *Engine) updateSupplyGaugesLocked() {
	metrics.GBDCOutstanding.Set(e.totalGBDCOutstandingLocked().InexactFloat64())
	metrics.CRDNOutstanding.Set(e.totalCRDNOutstandingLocked().InexactFloat64())
}
