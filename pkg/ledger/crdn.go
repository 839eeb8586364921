// Copyright 2025 GOVRES Settlement Authority
//
// CRDN lifecycle - issue, hold, convert
//
// State machine: ISSUED -> (optional HELD) -> CONVERTING -> CONVERTED.
// EXPIRED and CANCELLED are reachable only through administrative operations
// outside the core. Terminal: CONVERTED, EXPIRED, CANCELLED.

package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/govres/govres/pkg/audit"
	"github.com/govres/govres/pkg/block"
	"github.com/govres/govres/pkg/config"
	"github.com/govres/govres/pkg/cryptoutil"
)

// IssueCRDNParams are the inputs to IssueCRDN.
type IssueCRDNParams struct {
	FarmerID           string
	LBCID              string
	CocoaWeightKg      decimal.Decimal
	PricePerKgGHS      decimal.Decimal
	WarehouseReceiptID string
	SeasonYear         int
	AttestationHash    string
}

// IssueCRDN creates a cocoa-receipt note held by the farmer. The note's value
// is cocoaWeightKg x pricePerKgGHS and must meet the issuance minimum.
// Returns the new instrument id.
func (e *Engine) IssueCRDN(params IssueCRDNParams) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return "", ErrNotInitialized
	}

	farmer, ok := e.accounts[params.FarmerID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAccount, params.FarmerID)
	}
	if farmer.Role != RoleFarmer {
		return "", fmt.Errorf("%w: %s is not a farmer", ErrUnauthorized, params.FarmerID)
	}

	lbc, ok := e.accounts[params.LBCID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAccount, params.LBCID)
	}
	if lbc.Role != RoleLBC {
		return "", fmt.Errorf("%w: %s is not a licensed buying company", ErrUnauthorized, params.LBCID)
	}

	if !params.CocoaWeightKg.IsPositive() || !params.PricePerKgGHS.IsPositive() {
		return "", fmt.Errorf("%w: weight %s kg at %s GHS/kg", ErrNonPositiveAmount,
			params.CocoaWeightKg, params.PricePerKgGHS)
	}

	amountCedi := params.CocoaWeightKg.Mul(params.PricePerKgGHS)
	minValue := decimal.NewFromInt(config.MinCRDNValueCedi)
	if amountCedi.LessThan(minValue) {
		return "", fmt.Errorf("%w: %s < %s cedi", ErrAmountBelowMinimum, amountCedi, minValue)
	}

	instrumentID, err := cryptoutil.NewInstrumentID("CRDN")
	if err != nil {
		return "", fmt.Errorf("failed to generate instrument id: %w", err)
	}

	tx, err := e.newTransactionLocked(block.TxMint, block.InstrumentCRDN, instrumentID,
		ReserveAccount, params.FarmerID, amountCedi, map[string]interface{}{
			"lbcId":              params.LBCID,
			"cocoaWeightKg":      params.CocoaWeightKg.String(),
			"pricePerKgGhs":      params.PricePerKgGHS.String(),
			"warehouseReceiptId": params.WarehouseReceiptID,
			"seasonYear":         params.SeasonYear,
			"attestationHash":    params.AttestationHash,
		})
	if err != nil {
		return "", err
	}

	e.crdnInstruments[instrumentID] = &CRDNInstrument{
		InstrumentID:       instrumentID,
		AmountCedi:         amountCedi,
		CocoaWeightKg:      params.CocoaWeightKg,
		PricePerKgGHS:      params.PricePerKgGHS,
		FarmerID:           params.FarmerID,
		LBCID:              params.LBCID,
		Holder:             params.FarmerID,
		Status:             CRDNIssued,
		IssuedAt:           tx.Timestamp,
		WarehouseReceiptID: params.WarehouseReceiptID,
		SeasonYear:         params.SeasonYear,
		AttestationHash:    params.AttestationHash,
	}
	farmer.CRDNBalance = farmer.CRDNBalance.Add(amountCedi)

	e.enqueueLocked(tx)
	e.updateSupplyGaugesLocked()

	e.recordAudit(audit.Params{
		Action:       "CRDN_ISSUED",
		ActorID:      params.LBCID,
		ActorRole:    string(lbc.Role),
		ResourceType: "crdn_instrument",
		ResourceID:   instrumentID,
		Details: map[string]interface{}{
			"farmerId":           params.FarmerID,
			"amountCedi":         amountCedi.String(),
			"cocoaWeightKg":      params.CocoaWeightKg.String(),
			"warehouseReceiptId": params.WarehouseReceiptID,
			"txId":               tx.TxID,
		},
	})

	e.bus.Publish("crdn:issued", map[string]interface{}{
		"instrumentId":  instrumentID,
		"farmerId":      params.FarmerID,
		"lbcId":         params.LBCID,
		"amountCedi":    amountCedi.String(),
		"cocoaWeightKg": params.CocoaWeightKg.String(),
		"txId":          tx.TxID,
	})

	return instrumentID, nil
}

// HoldCRDN parks an issued note in the HELD state. Only the holder may hold.
func (e *Engine) HoldCRDN(instrumentID, farmerID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return ErrNotInitialized
	}

	inst, ok := e.crdnInstruments[instrumentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInstrument, instrumentID)
	}
	if inst.Holder != farmerID {
		return fmt.Errorf("%w: %s does not hold %s", ErrNotHolder, farmerID, instrumentID)
	}
	if inst.Status != CRDNIssued {
		return fmt.Errorf("%w: %s is %s", ErrInvalidState, instrumentID, inst.Status)
	}

	inst.Status = CRDNHeld

	e.recordAudit(audit.Params{
		Action:       "CRDN_HELD",
		ActorID:      farmerID,
		ActorRole:    string(RoleFarmer),
		ResourceType: "crdn_instrument",
		ResourceID:   instrumentID,
	})

	e.bus.Publish("crdn:held", map[string]interface{}{
		"instrumentId": instrumentID,
		"farmerId":     farmerID,
	})

	return nil
}

// ConvertCRDNParams are the inputs to ConvertCRDN.
type ConvertCRDNParams struct {
	InstrumentID     string
	FarmerID         string
	TargetInstrument string // ConvertTargetGBDC or ConvertTargetCash
	BankAccountID    string // optional payout account for CASH
}

// ConvertCRDN settles a note for its holder. A GBDC target credits the
// farmer's gbdc balance for the full note value; a CASH target leaves payout
// to the downstream settlement collaborator. Conversion is terminal - a
// second attempt fails on state. Returns the tx id.
func (e *Engine) ConvertCRDN(params ConvertCRDNParams) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return "", ErrNotInitialized
	}

	if params.TargetInstrument != ConvertTargetGBDC && params.TargetInstrument != ConvertTargetCash {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedTarget, params.TargetInstrument)
	}

	inst, ok := e.crdnInstruments[params.InstrumentID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownInstrument, params.InstrumentID)
	}
	if inst.Holder != params.FarmerID {
		return "", fmt.Errorf("%w: %s does not hold %s", ErrNotHolder, params.FarmerID, params.InstrumentID)
	}
	if inst.Status != CRDNIssued && inst.Status != CRDNHeld {
		return "", fmt.Errorf("%w: %s is %s", ErrInvalidState, params.InstrumentID, inst.Status)
	}

	farmer, ok := e.accounts[params.FarmerID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAccount, params.FarmerID)
	}

	toAccount := params.FarmerID
	if params.TargetInstrument == ConvertTargetCash && params.BankAccountID != "" {
		toAccount = params.BankAccountID
	}

	tx, err := e.newTransactionLocked(block.TxConvert, block.InstrumentCRDN, params.InstrumentID,
		params.FarmerID, toAccount, inst.AmountCedi, map[string]interface{}{
			"targetInstrument": params.TargetInstrument,
		})
	if err != nil {
		return "", err
	}

	inst.Status = CRDNConverting
	farmer.CRDNBalance = farmer.CRDNBalance.Sub(inst.AmountCedi)
	if params.TargetInstrument == ConvertTargetGBDC {
		// The credit is a balance-level claim: no gold backing is allocated
		// and no GBDC instrument record is created. Policy confirmation is
		// pending; surface it on every conversion.
		farmer.GBDCBalance = farmer.GBDCBalance.Add(inst.AmountCedi)
		e.logger.Printf("Warning: CRDN %s converted to GBDC balance without gold backing allocation",
			params.InstrumentID)
	}
	inst.Status = CRDNConverted

	e.enqueueLocked(tx)
	e.updateSupplyGaugesLocked()

	e.recordAudit(audit.Params{
		Action:       "CRDN_CONVERTED",
		ActorID:      params.FarmerID,
		ActorRole:    string(farmer.Role),
		ResourceType: "crdn_instrument",
		ResourceID:   params.InstrumentID,
		Details: map[string]interface{}{
			"targetInstrument": params.TargetInstrument,
			"amountCedi":       inst.AmountCedi.String(),
			"txId":             tx.TxID,
		},
	})

	e.bus.Publish("crdn:converted", map[string]interface{}{
		"instrumentId":     params.InstrumentID,
		"farmerId":         params.FarmerID,
		"targetInstrument": params.TargetInstrument,
		"amountCedi":       inst.AmountCedi.String(),
		"txId":             tx.TxID,
	})

	return tx.TxID, nil
}
