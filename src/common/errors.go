package common

import "fmt"

// Code classifies a failure of the branch-ledger protocol. The set is closed
// so that branches can interpret each other's responses programmatically.
type Code uint32

const (
	// Unknown is the catch-all for conditions not otherwise classified. It
	// must not mask a more specific code when one is determinable.
	Unknown Code = iota
	// InvalidInput signals a missing or malformed request field.
	InvalidInput
	// InvalidAmount signals an amount outside [0, MaxAmount]. The legacy wire
	// distinguishes it from other input errors.
	InvalidAmount
	// NotFound signals that the account has no record at the addressed branch.
	NotFound
	// Duplicate signals a registration for an account that already has a
	// local record.
	Duplicate
	// InsufficientQuorum signals fewer live peers than the operation's
	// threshold. The request is rejected before any state change.
	InsufficientQuorum
	// InsufficientFunds signals a local balance below the requested amount.
	InsufficientFunds
	// StorageUnavailable signals that the persistence collaborator is not
	// reachable or not ready.
	StorageUnavailable
	// RemoteFailure signals a peer call that failed, timed out, or returned
	// an unparsable or invalid response.
	RemoteFailure
	// DebitAfterCreditFailed signals the sensitive half-failure of an
	// inter-branch transfer: the remote credit went through but the local
	// debit did not. Operators must reconcile.
	DebitAfterCreditFailed
)

// Numeric codes used on the wire by existing branch deployments. They predate
// this implementation and cannot change.
const (
	WireNotFound           = -1
	WireInsufficientQuorum = -2
	WireRemoteFailure      = -3
	WireStorage            = -4
	WireInvalidAmount      = -5
	WireUnknown            = -99
)

// LedgerErr carries a protocol Code together with the operation and key that
// produced it.
type LedgerErr struct {
	op   string
	code Code
	key  string
}

// NewLedgerErr ...
func NewLedgerErr(op string, code Code, key string) LedgerErr {
	return LedgerErr{
		op:   op,
		code: code,
		key:  key,
	}
}

// Error ...
func (e LedgerErr) Error() string {
	m := ""
	switch e.code {
	case InvalidInput:
		m = "Invalid Input"
	case InvalidAmount:
		m = "Invalid Amount"
	case NotFound:
		m = "Not Found"
	case Duplicate:
		m = "Duplicate"
	case InsufficientQuorum:
		m = "Insufficient Quorum"
	case InsufficientFunds:
		m = "Insufficient Funds"
	case StorageUnavailable:
		m = "Storage Unavailable"
	case RemoteFailure:
		m = "Remote Failure"
	case DebitAfterCreditFailed:
		m = "Debit After Credit Failed"
	default:
		m = "Unknown"
	}

	return fmt.Sprintf("%s, %s, %s", e.op, e.key, m)
}

// Code returns the protocol code of the error.
func (e LedgerErr) Code() Code {
	return e.code
}

// Is checks that an error is a LedgerErr and that its code matches the
// provided one.
func Is(err error, c Code) bool {
	ledgerErr, ok := err.(LedgerErr)
	return ok && ledgerErr.code == c
}

// CodeOf extracts the protocol code from an error. Foreign errors map to
// Unknown.
func CodeOf(err error) Code {
	if ledgerErr, ok := err.(LedgerErr); ok {
		return ledgerErr.code
	}
	return Unknown
}

// WireCode translates an error to the legacy numeric code expected by peer
// branches. The legacy wire overloads -4 for duplicate registrations, storage
// failures, insufficient funds, and the unreconciled debit window.
func WireCode(err error) int {
	switch CodeOf(err) {
	case NotFound:
		return WireNotFound
	case InsufficientQuorum:
		return WireInsufficientQuorum
	case RemoteFailure:
		return WireRemoteFailure
	case Duplicate, InsufficientFunds, StorageUnavailable, DebitAfterCreditFailed:
		return WireStorage
	case InvalidAmount:
		return WireInvalidAmount
	default:
		return WireUnknown
	}
}

// FromWireCode translates a legacy numeric code received from a peer branch
// into a protocol Code. The overloaded -4 maps to StorageUnavailable, its
// dominant meaning on the legacy wire.
func FromWireCode(n int) Code {
	switch n {
	case WireNotFound:
		return NotFound
	case WireInsufficientQuorum:
		return InsufficientQuorum
	case WireRemoteFailure:
		return RemoteFailure
	case WireStorage:
		return StorageUnavailable
	case WireInvalidAmount:
		return InvalidAmount
	default:
		return Unknown
	}
}
