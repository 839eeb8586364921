// Copyright 2025 GOVRES Settlement Authority
//
// Crypto primitive tests

package cryptoutil

import (
	"encoding/hex"
	"strings"
	"testing"
)

func TestHash_KnownVector(t *testing.T) {
	// SHA-256("abc")
	got := Hash([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("hash mismatch: got %s, want %s", got, want)
	}
}

func TestHash_Length(t *testing.T) {
	if got := Hash([]byte{}); len(got) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(got))
	}
}

func TestRandomBytes(t *testing.T) {
	a, err := RandomBytes(32)
	if err != nil {
		t.Fatalf("failed to read random bytes: %v", err)
	}
	if len(a) != 32 {
		t.Fatalf("expected 32 bytes, got %d", len(a))
	}

	b, err := RandomBytes(32)
	if err != nil {
		t.Fatalf("failed to read random bytes: %v", err)
	}
	if string(a) == string(b) {
		t.Error("two random draws should not collide")
	}
}

func TestNewTxID(t *testing.T) {
	id, err := NewTxID()
	if err != nil {
		t.Fatalf("failed to generate tx id: %v", err)
	}
	if len(id) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(id))
	}
	if _, err := hex.DecodeString(id); err != nil {
		t.Errorf("tx id is not hex: %v", err)
	}
}

func TestNewInstrumentID_Format(t *testing.T) {
	id, err := NewInstrumentID("GBDC")
	if err != nil {
		t.Fatalf("failed to generate instrument id: %v", err)
	}

	parts := strings.Split(id, "-")
	if len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d: %s", len(parts), id)
	}
	if parts[0] != "GBDC" {
		t.Errorf("prefix mismatch: got %s", parts[0])
	}
	if len(parts[2]) != 16 {
		t.Errorf("expected 16 hex characters in suffix, got %d", len(parts[2]))
	}
	if _, err := hex.DecodeString(parts[2]); err != nil {
		t.Errorf("suffix is not hex: %v", err)
	}
}

func TestSignTx_Deterministic(t *testing.T) {
	sig1 := SignTx("aabb", "BOG-VALIDATOR-01", 1700000000000)
	sig2 := SignTx("aabb", "BOG-VALIDATOR-01", 1700000000000)
	if sig1 != sig2 {
		t.Error("signature should be deterministic for fixed inputs")
	}
	if len(sig1) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(sig1))
	}

	if SignTx("aabc", "BOG-VALIDATOR-01", 1700000000000) == sig1 {
		t.Error("signature should change with the tx id")
	}
	if SignTx("aabb", "BOG-VALIDATOR-02", 1700000000000) == sig1 {
		t.Error("signature should change with the validator id")
	}
}
