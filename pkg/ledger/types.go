// Copyright 2025 GOVRES Settlement Authority
//
// Ledger state types - accounts, instrument registries, lifecycle statuses

package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role gates which state transitions an account may drive.
type Role string

const (
	RoleCentralBank    Role = "CENTRAL_BANK"
	RoleCommercialBank Role = "COMMERCIAL_BANK"
	RoleFarmer         Role = "FARMER"
	RoleLBC            Role = "LBC"
	RoleRegulator      Role = "REGULATOR"
)

// Administrative accounts pre-created at genesis. Treasury holds minted GBDC;
// reserve is the nominal source account in MINT transactions.
const (
	TreasuryAccount = "BOG_TREASURY"
	ReserveAccount  = "BOG_RESERVE"
)

// Account is a ledger participant. Accounts are created by RegisterAccount
// and never deleted; balances are mutated only by the engine.
type Account struct {
	AccountID   string          `json:"accountId"`
	Role        Role            `json:"role"`
	GBDCBalance decimal.Decimal `json:"gbdcBalance"`
	CRDNBalance decimal.Decimal `json:"crdnBalance"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// GBDCStatus is the lifecycle state of a gold-backed instrument.
type GBDCStatus string

const (
	GBDCMinted      GBDCStatus = "MINTED"
	GBDCCirculating GBDCStatus = "CIRCULATING"
	GBDCLocked      GBDCStatus = "LOCKED" // administrative, outside the core
	GBDCRedeemed    GBDCStatus = "REDEEMED"
	GBDCBurned      GBDCStatus = "BURNED" // administrative, outside the core
)

// IsTerminal reports whether no further transitions are allowed.
func (s GBDCStatus) IsTerminal() bool {
	return s == GBDCRedeemed || s == GBDCBurned
}

// CRDNStatus is the lifecycle state of a cocoa-receipt note.
type CRDNStatus string

const (
	CRDNIssued     CRDNStatus = "ISSUED"
	CRDNHeld       CRDNStatus = "HELD"
	CRDNConverting CRDNStatus = "CONVERTING"
	CRDNConverted  CRDNStatus = "CONVERTED"
	CRDNExpired    CRDNStatus = "EXPIRED"   // administrative, outside the core
	CRDNCancelled  CRDNStatus = "CANCELLED" // administrative, outside the core
)

// IsTerminal reports whether no further transitions are allowed.
func (s CRDNStatus) IsTerminal() bool {
	return s == CRDNConverted || s == CRDNExpired || s == CRDNCancelled
}

// GBDCInstrument records the provenance and lifecycle of one gold-backed
// issuance. The per-account balance is the authoritative ledger state; the
// registry stays consistent with it on every mutation.
type GBDCInstrument struct {
	InstrumentID        string          `json:"instrumentId"`
	AmountCedi          decimal.Decimal `json:"amountCedi"`
	GoldBackingGrams    decimal.Decimal `json:"goldBackingGrams"`
	GoldPricePerGramUSD decimal.Decimal `json:"goldPricePerGramUsd"`
	ExchangeRateUSDGHS  decimal.Decimal `json:"exchangeRateUsdGhs"`
	Holder              string          `json:"holder"`
	Status              GBDCStatus      `json:"status"`
	MintedAt            time.Time       `json:"mintedAt"`
	IssuanceID          string          `json:"issuanceId"`
}

// CRDNInstrument records one cocoa-receipt note issued against a warehouse
// receipt and farm-gate delivery.
type CRDNInstrument struct {
	InstrumentID       string          `json:"instrumentId"`
	AmountCedi         decimal.Decimal `json:"amountCedi"`
	CocoaWeightKg      decimal.Decimal `json:"cocoaWeightKg"`
	PricePerKgGHS      decimal.Decimal `json:"pricePerKgGhs"`
	FarmerID           string          `json:"farmerId"`
	LBCID              string          `json:"lbcId"`
	Holder             string          `json:"holder"`
	Status             CRDNStatus      `json:"status"`
	IssuedAt           time.Time       `json:"issuedAt"`
	WarehouseReceiptID string          `json:"warehouseReceiptId"`
	SeasonYear         int             `json:"seasonYear"`
	AttestationHash    string          `json:"attestationHash"`
}

// ReserveSummary is the aggregate view returned by the query surface.
type ReserveSummary struct {
	GoldReserveGrams     decimal.Decimal `json:"goldReserveGrams"`
	CocoaReserveKg       decimal.Decimal `json:"cocoaReserveKg"`
	TotalGBDCOutstanding decimal.Decimal `json:"totalGbdcOutstanding"`
	TotalCRDNOutstanding decimal.Decimal `json:"totalCrdnOutstanding"`
	ChainHeight          uint64          `json:"chainHeight"`
	PendingTransactions  int             `json:"pendingTransactions"`
	AccountCount         int             `json:"accountCount"`
	ReserveBackingRatio  decimal.Decimal `json:"reserveBackingRatio"`
}

// Conversion targets accepted by ConvertCRDN.
const (
	ConvertTargetGBDC = "GBDC"
	ConvertTargetCash = "CASH"
)
