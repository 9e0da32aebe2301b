package net

// Request and response bodies of the branch wire protocol. The JSON field
// names predate this implementation and are consumed by deployed branches;
// they must not change.
//
// Request fields are pointers so handlers can tell a missing field from a
// zero value. On a failure response, the operation's response field carries a
// negative legacy code instead of its value.

// PingRequest ...
type PingRequest struct {
}

// PingResponse ...
type PingResponse struct {
	Pong int `json:"pong"`
}

// BalanceRequest asks a branch for its local record's balance.
type BalanceRequest struct {
	AccountID *string `json:"user_id"`
}

// BalanceResponse carries a balance, or a negative legacy code.
type BalanceResponse struct {
	Balance int64 `json:"nilai_saldo"`
}

// RegisterRequest creates a branch-local record.
type RegisterRequest struct {
	AccountID *string `json:"user_id"`
	Name      *string `json:"nama"`
}

// RegisterResponse ...
type RegisterResponse struct {
	Status int64 `json:"status_register"`
}

// CreditRequest adds to a branch-local balance. It serves both direct
// top-ups and the receiving side of an inter-branch transfer.
type CreditRequest struct {
	AccountID *string `json:"user_id"`
	Amount    *int64  `json:"nilai"`
}

// CreditResponse ...
type CreditResponse struct {
	Status int64 `json:"status_transfer"`
}

// BranchTransferRequest moves funds from the local record to the same
// account at the branch listening on Target.
type BranchTransferRequest struct {
	AccountID *string `json:"user_id"`
	Amount    *int64  `json:"nilai"`
	Target    *string `json:"ip"`
}
