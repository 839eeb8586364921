// Copyright 2025 GOVRES Settlement Authority
//
// Prometheus collectors for engine activity. Served by promhttp from the
// govresd metrics listener.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransactionsTotal counts settlement transactions appended to the
	// pending queue, by transaction type.
	TransactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "govres_transactions_total",
		Help: "Settlement transactions created, by type.",
	}, []string{"type"})

	// BlocksSealedTotal counts blocks appended to the chain.
	BlocksSealedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "govres_blocks_sealed_total",
		Help: "Blocks sealed and appended to the chain.",
	})

	// BlockSealFailures counts sealing attempts rejected by validation.
	BlockSealFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "govres_block_seal_failures_total",
		Help: "Sealed blocks that failed validation and were re-queued.",
	})

	// PendingTransactions tracks the pending queue depth.
	PendingTransactions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "govres_pending_transactions",
		Help: "Transactions waiting to be sealed into a block.",
	})

	// ChainHeight tracks the height of the chain tip.
	ChainHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "govres_chain_height",
		Help: "Height of the latest sealed block.",
	})

	// GBDCOutstanding tracks outstanding GBDC supply in cedi.
	GBDCOutstanding = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "govres_gbdc_outstanding_cedi",
		Help: "Sum of amountCedi over MINTED and CIRCULATING GBDC instruments.",
	})

	// CRDNOutstanding tracks outstanding CRDN supply in cedi.
	CRDNOutstanding = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "govres_crdn_outstanding_cedi",
		Help: "Sum of amountCedi over ISSUED and HELD CRDN instruments.",
	})

	// AuditEntriesTotal counts appended audit entries.
	AuditEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "govres_audit_entries_total",
		Help: "Audit entries appended to the hash chain.",
	})

	// EventsDropped counts event deliveries lost to slow subscribers.
	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "govres_events_dropped_total",
		Help: "Event deliveries dropped because a subscriber buffer was full.",
	}, []string{"event"})
)
