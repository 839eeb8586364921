// Copyright 2025 GOVRES Settlement Authority
//
// Crypto primitives - hashing, secure random identifiers, transaction signing

package cryptoutil

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Hash returns the 64-hex SHA-256 digest of data.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// RandomBytes returns n bytes from a cryptographically secure source.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

// NewTxID returns a fresh transaction identifier: 32 random bytes as 64-hex.
func NewTxID() (string, error) {
	b, err := RandomBytes(32)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewInstrumentID returns "<prefix>-<base36 unix-millis>-<16 hex>".
func NewInstrumentID(prefix string) (string, error) {
	b, err := RandomBytes(8)
	if err != nil {
		return "", err
	}
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return fmt.Sprintf("%s-%s-%s", prefix, ts, hex.EncodeToString(b)), nil
}

// SignTx produces the validator digest over a transaction id. The digest is
// SHA-256 of txID || validatorID || nowMillis and guarantees tamper evidence
// against modification of the id once sealed, not non-repudiation.
func SignTx(txID, validatorID string, nowMillis int64) string {
	return Hash([]byte(txID + validatorID + strconv.FormatInt(nowMillis, 10)))
}
