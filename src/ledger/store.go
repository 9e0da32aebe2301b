package ledger

// Store is the branch-local ledger gateway. Implementations must make
// UpdateBalance's read-modify-write exclusive so that the non-negative
// balance invariant holds under concurrent operations on the same account.
//
// Errors follow the common.LedgerErr convention: NotFound when no record
// exists, Duplicate on re-registration, InsufficientFunds when a debit would
// push a balance below zero, StorageUnavailable when the backend fails.
type Store interface {
	// FindAccount returns the local record for an account id.
	FindAccount(accountID string) (*Account, error)

	// CreateAccount creates a record with the given id, name and balance.
	// Registration is branch-local and rejects duplicates.
	CreateAccount(account *Account) error

	// UpdateBalance atomically adds delta to the stored balance and returns
	// the new value.
	UpdateBalance(accountID string, delta int64) (int64, error)

	// AccountCount returns the number of local records.
	AccountCount() (int, error)

	// CreateTransfer journals an inter-branch transfer attempt.
	CreateTransfer(record *TransferRecord) error

	// SetTransferState advances a journaled transfer attempt.
	SetTransferState(id string, state TransferState) error

	// UnsettledTransfers returns the journaled attempts that still need
	// reconciliation, oldest first.
	UnsettledTransfers() ([]*TransferRecord, error)

	// Close releases the backend.
	Close() error
}
