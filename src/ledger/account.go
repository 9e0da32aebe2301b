package ledger

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

// MaxAmount bounds a single credit or transfer amount, per the wire protocol.
const MaxAmount int64 = 1000000000

// ValidAmount reports whether an amount is acceptable for a credit or a
// transfer.
func ValidAmount(amount int64) bool {
	return amount >= 0 && amount <= MaxAmount
}

// Account is one branch-local balance record. A given account id may have
// independent records on several branches; the account's aggregate balance is
// their sum. Balance is never negative.
type Account struct {
	AccountID string `json:"user_id"`
	Name      string `json:"nama"`
	Balance   int64  `json:"nilai_saldo"`
}

// Marshal - json encoding of Account
func (a *Account) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(a); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal ...
func (a *Account) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(a)
}
