// Copyright 2025 GOVRES Settlement Authority
//
// Ledger Repository - upserts for the engine-state mirror tables

package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/govres/govres/pkg/audit"
	"github.com/govres/govres/pkg/block"
	"github.com/govres/govres/pkg/ledger"
)

// LedgerRepository persists engine state snapshots
type LedgerRepository struct {
	client *Client
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(client *Client) *LedgerRepository {
	return &LedgerRepository{client: client}
}

// UpsertAccount writes an account snapshot
func (r *LedgerRepository) UpsertAccount(ctx context.Context, acct *ledger.Account) error {
	query := `
		INSERT INTO accounts (account_id, role, gbdc_balance, crdn_balance, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (account_id) DO UPDATE SET
			gbdc_balance = EXCLUDED.gbdc_balance,
			crdn_balance = EXCLUDED.crdn_balance,
			is_active = EXCLUDED.is_active,
			updated_at = now()`

	_, err := r.client.db.ExecContext(ctx, query,
		acct.AccountID, string(acct.Role),
		acct.GBDCBalance.String(), acct.CRDNBalance.String(),
		acct.IsActive, acct.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert account %s: %w", acct.AccountID, err)
	}
	return nil
}

// UpsertGBDCInstrument writes a GBDC instrument snapshot
func (r *LedgerRepository) UpsertGBDCInstrument(ctx context.Context, inst *ledger.GBDCInstrument) error {
	query := `
		INSERT INTO gbdc_instruments (
			instrument_id, amount_cedi, gold_backing_grams, gold_price_per_gram_usd,
			exchange_rate_usd_ghs, holder, status, minted_at, issuance_id, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (instrument_id) DO UPDATE SET
			holder = EXCLUDED.holder,
			status = EXCLUDED.status,
			updated_at = now()`

	_, err := r.client.db.ExecContext(ctx, query,
		inst.InstrumentID, inst.AmountCedi.String(), inst.GoldBackingGrams.String(),
		inst.GoldPricePerGramUSD.String(), inst.ExchangeRateUSDGHS.String(),
		inst.Holder, string(inst.Status), inst.MintedAt, inst.IssuanceID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert GBDC instrument %s: %w", inst.InstrumentID, err)
	}
	return nil
}

// UpsertCRDNInstrument writes a CRDN instrument snapshot
func (r *LedgerRepository) UpsertCRDNInstrument(ctx context.Context, inst *ledger.CRDNInstrument) error {
	query := `
		INSERT INTO crdn_instruments (
			instrument_id, amount_cedi, cocoa_weight_kg, price_per_kg_ghs,
			farmer_id, lbc_id, holder, status, issued_at,
			warehouse_receipt_id, season_year, attestation_hash, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (instrument_id) DO UPDATE SET
			holder = EXCLUDED.holder,
			status = EXCLUDED.status,
			updated_at = now()`

	_, err := r.client.db.ExecContext(ctx, query,
		inst.InstrumentID, inst.AmountCedi.String(), inst.CocoaWeightKg.String(),
		inst.PricePerKgGHS.String(), inst.FarmerID, inst.LBCID, inst.Holder,
		string(inst.Status), inst.IssuedAt, inst.WarehouseReceiptID,
		inst.SeasonYear, inst.AttestationHash,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert CRDN instrument %s: %w", inst.InstrumentID, err)
	}
	return nil
}

// UpsertReserve writes a reserve counter snapshot
func (r *LedgerRepository) UpsertReserve(ctx context.Context, reserveType string, total decimal.Decimal, attestationHash string) error {
	query := `
		INSERT INTO reserves (reserve_type, total, attestation_hash, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (reserve_type) DO UPDATE SET
			total = EXCLUDED.total,
			attestation_hash = EXCLUDED.attestation_hash,
			updated_at = now()`

	_, err := r.client.db.ExecContext(ctx, query, reserveType, total.String(), attestationHash)
	if err != nil {
		return fmt.Errorf("failed to upsert %s reserve: %w", reserveType, err)
	}
	return nil
}

// InsertBlock writes a sealed block and its transactions in one database
// transaction so the mirror never holds a block without its settlements.
func (r *LedgerRepository) InsertBlock(ctx context.Context, b *block.Block) error {
	tx, err := r.client.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin block insert: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO blocks (block_height, hash, previous_hash, merkle_root, transaction_count, validator_id, sealed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (block_height) DO NOTHING`,
		b.Header.BlockHeight, b.Hash, b.Header.PreviousHash, b.Header.MerkleRoot,
		b.Header.TransactionCount, b.Header.ValidatorID, b.Header.Timestamp,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert block %d: %w", b.Header.BlockHeight, err)
	}

	for _, t := range b.Transactions {
		data, err := json.Marshal(t.Data)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to marshal tx %s data: %w", t.TxID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions (
				tx_id, tx_type, instrument_type, instrument_id,
				from_account, to_account, amount, tx_timestamp, data, signature, block_height
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (tx_id) DO NOTHING`,
			t.TxID, string(t.Type), string(t.InstrumentType), t.InstrumentID,
			t.FromAccount, t.ToAccount, t.Amount.String(), t.Timestamp,
			data, t.Signature, b.Header.BlockHeight,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert transaction %s: %w", t.TxID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit block %d: %w", b.Header.BlockHeight, err)
	}
	return nil
}

// InsertAuditEntry writes one audit chain entry
func (r *LedgerRepository) InsertAuditEntry(ctx context.Context, entry *audit.Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	query := `
		INSERT INTO audit_entries (
			sequence_number, entry_id, entry_timestamp, action, actor_id, actor_role,
			resource_type, resource_id, details, previous_hash, entry_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (sequence_number) DO NOTHING`

	_, err = r.client.db.ExecContext(ctx, query,
		entry.SequenceNumber, entry.EntryID, entry.Timestamp, entry.Action,
		entry.ActorID, entry.ActorRole, entry.ResourceType, entry.ResourceID,
		details, entry.PreviousHash, entry.EntryHash,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry %d: %w", entry.SequenceNumber, err)
	}
	return nil
}
