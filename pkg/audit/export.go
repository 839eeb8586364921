// Copyright 2025 GOVRES Settlement Authority
//
// Regulator export - portable CSV and JSON renderings of the audit chain

package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/govres/govres/pkg/commitment"
)

// Export formats accepted by ExportForRegulator.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// csvHeader is a byte-exact contract with the regulator's ingestion tooling.
var csvHeader = []string{
	"EntryID", "Sequence", "Timestamp", "Action",
	"ActorID", "ActorRole", "ResourceType", "ResourceID", "Hash",
}

// ExportOptions selects the window and format of a regulator export.
type ExportOptions struct {
	Start  *time.Time
	End    *time.Time
	Format string // FormatCSV or FormatJSON
}

// jsonExport is the JSON export envelope. The key set is contractual.
type jsonExport struct {
	ExportedAt     string       `json:"exportedAt"`
	System         string       `json:"system"`
	ChainIntegrity Verification `json:"chainIntegrity"`
	Entries        []*Entry     `json:"entries"`
}

// ExportForRegulator renders the entries in the requested window as CSV or
// JSON. The JSON form carries a full chain-integrity verification so the
// regulator can detect tampering without replaying the hashes.
func (l *Log) ExportForRegulator(opts ExportOptions) ([]byte, error) {
	entries := l.Query(Filter{StartDate: opts.Start, EndDate: opts.End})

	switch opts.Format {
	case FormatCSV:
		return exportCSV(entries)
	case FormatJSON, "":
		export := jsonExport{
			ExportedAt:     commitment.TimestampISO(time.Now()),
			System:         "GOVRES",
			ChainIntegrity: l.VerifyChain(),
			Entries:        entries,
		}
		return json.MarshalIndent(export, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported export format %q", opts.Format)
	}
}

func exportCSV(entries []*Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, entry := range entries {
		record := []string{
			entry.EntryID,
			strconv.FormatUint(entry.SequenceNumber, 10),
			commitment.TimestampISO(entry.Timestamp),
			entry.Action,
			entry.ActorID,
			entry.ActorRole,
			entry.ResourceType,
			entry.ResourceID,
			entry.EntryHash,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row %d: %w", entry.SequenceNumber, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
