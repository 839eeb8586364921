// Copyright 2025 GOVRES Settlement Authority
//
// Engine constants. The exact values are contracts shared with auditors and
// downstream collaborators; changing any of them is a protocol change.

package config

import "time"

const (
	// GoldReserveAllocationPercent bounds the share of the declared gold
	// reserve that may back non-terminal GBDC instruments.
	GoldReserveAllocationPercent = 10

	// MinGBDCIssuanceCedi is the smallest mintable GBDC amount.
	MinGBDCIssuanceCedi = 1000

	// MinCRDNValueCedi is the smallest issuable CRDN value.
	MinCRDNValueCedi = 10

	// BlockIntervalMS is the sealing tick period in milliseconds.
	BlockIntervalMS = 5000

	// BlockInterval is BlockIntervalMS as a duration.
	BlockInterval = BlockIntervalMS * time.Millisecond

	// MaxTxPerBlock bounds the transactions sealed into one block.
	MaxTxPerBlock = 1000

	// HashAlgorithm names the digest used across blocks and audit entries.
	HashAlgorithm = "SHA-256"
)
