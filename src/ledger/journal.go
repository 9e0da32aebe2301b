package ledger

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

// TransferState tracks an inter-branch transfer attempt through its two
// steps. The remote credit and the local debit are not transactional across
// branches; a record left in StateCredited marks the credited-but-not-debited
// window that operators reconcile.
type TransferState uint32

const (
	// StatePending - the attempt is journaled, nothing has moved yet.
	StatePending TransferState = iota
	// StateCredited - the remote branch acknowledged the credit, the local
	// debit has not been applied.
	StateCredited
	// StateCompleted - the local debit was applied; the transfer is settled.
	StateCompleted
	// StateAborted - the remote credit was refused or failed; no money moved.
	StateAborted
)

// String ...
func (s TransferState) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateCredited:
		return "Credited"
	case StateCompleted:
		return "Completed"
	case StateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// TransferRecord journals one inter-branch transfer attempt.
type TransferRecord struct {
	ID        string        `json:"id"`
	AccountID string        `json:"user_id"`
	Amount    int64         `json:"nilai"`
	Target    string        `json:"ip"`
	State     TransferState `json:"state"`
	CreatedAt int64         `json:"created_at"`
}

// Settled reports whether the record needs no reconciliation.
func (t *TransferRecord) Settled() bool {
	return t.State == StateCompleted || t.State == StateAborted
}

// Marshal - json encoding of TransferRecord
func (t *TransferRecord) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(t); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal ...
func (t *TransferRecord) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(t)
}
