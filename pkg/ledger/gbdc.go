// Copyright 2025 GOVRES Settlement Authority
//
// GBDC lifecycle - mint, transfer, redeem
//
// State machine: MINTED -> CIRCULATING -> REDEEMED. LOCKED and BURNED are
// reachable only through administrative operations outside the core.
// Terminal: REDEEMED, BURNED.

package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/govres/govres/pkg/audit"
	"github.com/govres/govres/pkg/block"
	"github.com/govres/govres/pkg/config"
	"github.com/govres/govres/pkg/cryptoutil"
)

// MintGBDCParams are the inputs to MintGBDC.
type MintGBDCParams struct {
	AmountCedi          decimal.Decimal
	GoldBackingGrams    decimal.Decimal
	GoldPricePerGramUSD decimal.Decimal
	ExchangeRateUSDGHS  decimal.Decimal
	IssuanceID          string
	IssuedBy            string
}

// MintGBDC creates a new gold-backed issuance held by the treasury.
// Preconditions, checked in order: the issuer holds the administrative role,
// the amount meets the issuance minimum, the backing is positive, and total
// backing over non-terminal instruments stays within the allocation cap.
// Returns the new instrument id.
func (e *Engine) MintGBDC(params MintGBDCParams) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return "", ErrNotInitialized
	}

	issuer, ok := e.accounts[params.IssuedBy]
	if !ok || issuer.Role != RoleCentralBank {
		return "", fmt.Errorf("%w: %s cannot mint GBDC", ErrUnauthorized, params.IssuedBy)
	}

	minIssuance := decimal.NewFromInt(config.MinGBDCIssuanceCedi)
	if params.AmountCedi.LessThan(minIssuance) {
		return "", fmt.Errorf("%w: %s < %s cedi", ErrAmountBelowMinimum, params.AmountCedi, minIssuance)
	}

	if !params.GoldBackingGrams.IsPositive() {
		return "", fmt.Errorf("%w: gold backing %s grams", ErrNonPositiveAmount, params.GoldBackingGrams)
	}

	allocationCap := e.goldAllocationCapLocked()
	requested := e.currentGoldBackingLocked().Add(params.GoldBackingGrams)
	if requested.GreaterThan(allocationCap) {
		return "", fmt.Errorf("%w: requested backing %s grams exceeds allocation cap %s grams",
			ErrInsufficientReserve, requested, allocationCap)
	}

	instrumentID, err := cryptoutil.NewInstrumentID("GBDC")
	if err != nil {
		return "", fmt.Errorf("failed to generate instrument id: %w", err)
	}

	tx, err := e.newTransactionLocked(block.TxMint, block.InstrumentGBDC, instrumentID,
		ReserveAccount, TreasuryAccount, params.AmountCedi, map[string]interface{}{
			"issuanceId":          params.IssuanceID,
			"goldBackingGrams":    params.GoldBackingGrams.String(),
			"goldPricePerGramUsd": params.GoldPricePerGramUSD.String(),
			"exchangeRateUsdGhs":  params.ExchangeRateUSDGHS.String(),
		})
	if err != nil {
		return "", err
	}

	// All preconditions passed and identifiers exist; mutate.
	treasury := e.accounts[TreasuryAccount]
	e.gbdcInstruments[instrumentID] = &GBDCInstrument{
		InstrumentID:        instrumentID,
		AmountCedi:          params.AmountCedi,
		GoldBackingGrams:    params.GoldBackingGrams,
		GoldPricePerGramUSD: params.GoldPricePerGramUSD,
		ExchangeRateUSDGHS:  params.ExchangeRateUSDGHS,
		Holder:              TreasuryAccount,
		Status:              GBDCMinted,
		MintedAt:            tx.Timestamp,
		IssuanceID:          params.IssuanceID,
	}
	treasury.GBDCBalance = treasury.GBDCBalance.Add(params.AmountCedi)

	e.enqueueLocked(tx)
	e.updateSupplyGaugesLocked()

	e.recordAudit(audit.Params{
		Action:       "GBDC_MINTED",
		ActorID:      params.IssuedBy,
		ActorRole:    string(issuer.Role),
		ResourceType: "gbdc_instrument",
		ResourceID:   instrumentID,
		Details: map[string]interface{}{
			"amountCedi":       params.AmountCedi.String(),
			"goldBackingGrams": params.GoldBackingGrams.String(),
			"issuanceId":       params.IssuanceID,
			"txId":             tx.TxID,
		},
	})

	e.bus.Publish("gbdc:minted", map[string]interface{}{
		"instrumentId":     instrumentID,
		"amountCedi":       params.AmountCedi.String(),
		"goldBackingGrams": params.GoldBackingGrams.String(),
		"holder":           TreasuryAccount,
		"issuanceId":       params.IssuanceID,
		"txId":             tx.TxID,
	})

	return instrumentID, nil
}

// TransferGBDCParams are the inputs to TransferGBDC.
type TransferGBDCParams struct {
	InstrumentID string
	FromAccount  string
	ToAccount    string
	AmountCedi   decimal.Decimal
	Description  string
}

// TransferGBDC moves value between two active accounts and marks the
// instrument CIRCULATING (idempotent if it already is). Returns the tx id.
func (e *Engine) TransferGBDC(params TransferGBDCParams) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return "", ErrNotInitialized
	}

	from, ok := e.accounts[params.FromAccount]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAccount, params.FromAccount)
	}
	to, ok := e.accounts[params.ToAccount]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAccount, params.ToAccount)
	}
	if !from.IsActive {
		return "", fmt.Errorf("%w: %s", ErrInactiveAccount, params.FromAccount)
	}
	if !to.IsActive {
		return "", fmt.Errorf("%w: %s", ErrInactiveAccount, params.ToAccount)
	}

	if !params.AmountCedi.IsPositive() {
		return "", fmt.Errorf("%w: transfer of %s cedi", ErrNonPositiveAmount, params.AmountCedi)
	}

	inst, ok := e.gbdcInstruments[params.InstrumentID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownInstrument, params.InstrumentID)
	}
	if inst.Status.IsTerminal() {
		return "", fmt.Errorf("%w: %s is %s", ErrInvalidState, params.InstrumentID, inst.Status)
	}

	if from.GBDCBalance.LessThan(params.AmountCedi) {
		return "", fmt.Errorf("%w: %s holds %s cedi, transfer of %s requested",
			ErrInsufficientBalance, params.FromAccount, from.GBDCBalance, params.AmountCedi)
	}

	tx, err := e.newTransactionLocked(block.TxTransfer, block.InstrumentGBDC, params.InstrumentID,
		params.FromAccount, params.ToAccount, params.AmountCedi, map[string]interface{}{
			"description": params.Description,
		})
	if err != nil {
		return "", err
	}

	// Debit exactly what is credited; holder and status follow the value.
	from.GBDCBalance = from.GBDCBalance.Sub(params.AmountCedi)
	to.GBDCBalance = to.GBDCBalance.Add(params.AmountCedi)
	inst.Holder = params.ToAccount
	inst.Status = GBDCCirculating

	e.enqueueLocked(tx)
	e.updateSupplyGaugesLocked()

	e.recordAudit(audit.Params{
		Action:       "GBDC_TRANSFERRED",
		ActorID:      params.FromAccount,
		ActorRole:    string(from.Role),
		ResourceType: "gbdc_instrument",
		ResourceID:   params.InstrumentID,
		Details: map[string]interface{}{
			"toAccount":  params.ToAccount,
			"amountCedi": params.AmountCedi.String(),
			"txId":       tx.TxID,
		},
	})

	e.bus.Publish("gbdc:transferred", map[string]interface{}{
		"instrumentId": params.InstrumentID,
		"fromAccount":  params.FromAccount,
		"toAccount":    params.ToAccount,
		"amountCedi":   params.AmountCedi.String(),
		"txId":         tx.TxID,
	})

	return tx.TxID, nil
}

// RedeemGBDCParams are the inputs to RedeemGBDC.
type RedeemGBDCParams struct {
	InstrumentID  string
	HolderAccount string
	AmountCedi    decimal.Decimal
}

// RedeemGBDC retires an instrument back to the treasury. Only commercial
// banks redeem. The terminal transition fires on any redeemed amount;
// partial redemption is out of scope. Returns the tx id.
func (e *Engine) RedeemGBDC(params RedeemGBDCParams) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return "", ErrNotInitialized
	}

	holder, ok := e.accounts[params.HolderAccount]
	if !ok || holder.Role != RoleCommercialBank {
		return "", fmt.Errorf("%w: %s cannot redeem GBDC", ErrUnauthorized, params.HolderAccount)
	}

	if !params.AmountCedi.IsPositive() {
		return "", fmt.Errorf("%w: redemption of %s cedi", ErrNonPositiveAmount, params.AmountCedi)
	}

	inst, ok := e.gbdcInstruments[params.InstrumentID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownInstrument, params.InstrumentID)
	}
	if inst.Status.IsTerminal() {
		return "", fmt.Errorf("%w: %s is %s", ErrInvalidState, params.InstrumentID, inst.Status)
	}

	if holder.GBDCBalance.LessThan(params.AmountCedi) {
		return "", fmt.Errorf("%w: %s holds %s cedi, redemption of %s requested",
			ErrInsufficientBalance, params.HolderAccount, holder.GBDCBalance, params.AmountCedi)
	}

	tx, err := e.newTransactionLocked(block.TxRedeem, block.InstrumentGBDC, params.InstrumentID,
		params.HolderAccount, TreasuryAccount, params.AmountCedi, nil)
	if err != nil {
		return "", err
	}

	holder.GBDCBalance = holder.GBDCBalance.Sub(params.AmountCedi)
	inst.Status = GBDCRedeemed
	inst.Holder = TreasuryAccount

	e.enqueueLocked(tx)
	e.updateSupplyGaugesLocked()

	e.recordAudit(audit.Params{
		Action:       "GBDC_REDEEMED",
		ActorID:      params.HolderAccount,
		ActorRole:    string(holder.Role),
		ResourceType: "gbdc_instrument",
		ResourceID:   params.InstrumentID,
		Details: map[string]interface{}{
			"amountCedi": params.AmountCedi.String(),
			"txId":       tx.TxID,
		},
	})

	e.bus.Publish("gbdc:redeemed", map[string]interface{}{
		"instrumentId":  params.InstrumentID,
		"holderAccount": params.HolderAccount,
		"amountCedi":    params.AmountCedi.String(),
		"txId":          tx.TxID,
	})

	return tx.TxID, nil
}
