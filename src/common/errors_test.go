package common

import (
	"errors"
	"testing"
)

func TestLedgerErrCode(t *testing.T) {
	err := NewLedgerErr("account", NotFound, "u1")

	if !Is(err, NotFound) {
		t.Fatalf("err should match NotFound")
	}
	if Is(err, Duplicate) {
		t.Fatalf("err should not match Duplicate")
	}
	if CodeOf(err) != NotFound {
		t.Fatalf("CodeOf should be NotFound, not %d", CodeOf(err))
	}
}

func TestCodeOfForeignError(t *testing.T) {
	if CodeOf(errors.New("boom")) != Unknown {
		t.Fatalf("foreign errors should map to Unknown")
	}
}

func TestWireCodes(t *testing.T) {
	tests := []struct {
		code Code
		wire int
	}{
		{NotFound, -1},
		{InsufficientQuorum, -2},
		{RemoteFailure, -3},
		{Duplicate, -4},
		{InsufficientFunds, -4},
		{StorageUnavailable, -4},
		{DebitAfterCreditFailed, -4},
		{InvalidAmount, -5},
		{InvalidInput, -99},
		{Unknown, -99},
	}

	for _, tt := range tests {
		err := NewLedgerErr("test", tt.code, "key")
		if w := WireCode(err); w != tt.wire {
			t.Fatalf("WireCode(%d) should be %d, not %d", tt.code, tt.wire, w)
		}
	}
}

func TestFromWireCode(t *testing.T) {
	tests := []struct {
		wire int
		code Code
	}{
		{-1, NotFound},
		{-2, InsufficientQuorum},
		{-3, RemoteFailure},
		{-4, StorageUnavailable},
		{-5, InvalidAmount},
		{-99, Unknown},
		{-42, Unknown},
	}

	for _, tt := range tests {
		if c := FromWireCode(tt.wire); c != tt.code {
			t.Fatalf("FromWireCode(%d) should be %d, not %d", tt.wire, tt.code, c)
		}
	}
}
