// Copyright 2025 GOVRES Settlement Authority
//
// Audit Log
// Append-only hash-chained sequence of audit entries for compliance and
// forensics. Every entry links to its predecessor; mutating any recorded
// field breaks the chain at that index.

package audit

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/govres/govres/pkg/commitment"
)

// zeroHash seeds the chain: entry 1 links back to 64 zeros.
const zeroHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Entry is a single audit record.
type Entry struct {
	EntryID        string                 `json:"entryId"`
	SequenceNumber uint64                 `json:"sequenceNumber"`
	Timestamp      time.Time              `json:"timestamp"`
	Action         string                 `json:"action"`
	ActorID        string                 `json:"actorId"`
	ActorRole      string                 `json:"actorRole"`
	ResourceType   string                 `json:"resourceType"`
	ResourceID     string                 `json:"resourceId"`
	Details        map[string]interface{} `json:"details,omitempty"`
	PreviousHash   string                 `json:"previousHash"`
	EntryHash      string                 `json:"entryHash"`
}

// Params holds the caller-supplied fields of a new entry.
type Params struct {
	Action       string
	ActorID      string
	ActorRole    string
	ResourceType string
	ResourceID   string
	Details      map[string]interface{}
}

// Log is the in-memory audit chain. The sequence counter starts at 0 and the
// first appended entry is sequence 1.
type Log struct {
	mu      sync.RWMutex
	entries []*Entry
	seq     uint64
	logger  *log.Logger
}

// NewLog creates an empty audit log.
func NewLog(logger *log.Logger) *Log {
	if logger == nil {
		logger = log.New(log.Writer(), "[AuditLog] ", log.LstdFlags)
	}
	return &Log{
		entries: make([]*Entry, 0),
		logger:  logger,
	}
}

// Append records a new entry: increments the sequence, chains to the previous
// entry's hash, computes the entry hash over the canonical serialization of
// every field except entryHash, and appends.
func (l *Log) Append(params Params) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	previousHash := zeroHash
	if n := len(l.entries); n > 0 {
		previousHash = l.entries[n-1].EntryHash
	}

	l.seq++
	entry := &Entry{
		EntryID:        uuid.New().String(),
		SequenceNumber: l.seq,
		Timestamp:      time.Now().UTC(),
		Action:         params.Action,
		ActorID:        params.ActorID,
		ActorRole:      params.ActorRole,
		ResourceType:   params.ResourceType,
		ResourceID:     params.ResourceID,
		Details:        params.Details,
		PreviousHash:   previousHash,
	}

	hash, err := computeEntryHash(entry)
	if err != nil {
		l.seq--
		return nil, err
	}
	entry.EntryHash = hash

	l.entries = append(l.entries, entry)
	return entry, nil
}

// computeEntryHash hashes the canonical serialization of an entry, excluding
// entryHash itself. Keys sort lexicographically; the timestamp is ISO-8601
// UTC with millisecond precision.
func computeEntryHash(entry *Entry) (string, error) {
	data := map[string]interface{}{
		"entryId":        entry.EntryID,
		"sequenceNumber": entry.SequenceNumber,
		"timestamp":      commitment.TimestampISO(entry.Timestamp),
		"action":         entry.Action,
		"actorId":        entry.ActorID,
		"actorRole":      entry.ActorRole,
		"resourceType":   entry.ResourceType,
		"resourceId":     entry.ResourceID,
		"details":        entry.Details,
		"previousHash":   entry.PreviousHash,
	}
	return commitment.HashCanonical(data)
}

// Verification holds the result of a chain walk. FailedIndex is -1 when the
// chain is intact.
type Verification struct {
	Valid       bool   `json:"valid"`
	EntryCount  int    `json:"entryCount"`
	FailedIndex int    `json:"failedIndex"`
	Reason      string `json:"reason,omitempty"`
}

// VerifyChain walks the entries in order, recomputing each hash and checking
// each previousHash link. It reports the first failing index.
func (l *Log) VerifyChain() Verification {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := Verification{
		Valid:       true,
		EntryCount:  len(l.entries),
		FailedIndex: -1,
	}

	previousHash := zeroHash
	for i, entry := range l.entries {
		if entry.PreviousHash != previousHash {
			result.Valid = false
			result.FailedIndex = i
			result.Reason = "previousHash mismatch"
			return result
		}

		computed, err := computeEntryHash(entry)
		if err != nil {
			result.Valid = false
			result.FailedIndex = i
			result.Reason = "entry not hashable: " + err.Error()
			return result
		}
		if computed != entry.EntryHash {
			result.Valid = false
			result.FailedIndex = i
			result.Reason = "entryHash mismatch"
			return result
		}

		previousHash = entry.EntryHash
	}

	return result
}

// Filter selects entries for Query. Zero-valued predicates are skipped; Limit
// keeps only the last N matches (newest suffix, original order preserved).
type Filter struct {
	Action     string
	ActorID    string
	ResourceID string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
}

// Query applies the filter's predicates in order and then the trailing limit.
func (l *Log) Query(filter Filter) []*Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	matches := make([]*Entry, 0, len(l.entries))
	for _, entry := range l.entries {
		if filter.Action != "" && entry.Action != filter.Action {
			continue
		}
		if filter.ActorID != "" && entry.ActorID != filter.ActorID {
			continue
		}
		if filter.ResourceID != "" && entry.ResourceID != filter.ResourceID {
			continue
		}
		if filter.StartDate != nil && entry.Timestamp.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && entry.Timestamp.After(*filter.EndDate) {
			continue
		}
		matches = append(matches, entry)
	}

	if filter.Limit > 0 && len(matches) > filter.Limit {
		matches = matches[len(matches)-filter.Limit:]
	}

	return matches
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns a snapshot of the full chain in order.
func (l *Log) Entries() []*Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
