package ledger

import (
	"sort"
	"sync"

	cm "github.com/nusapay/ewallet/src/common"
)

// InmemStore implements the Store interface with mutex-guarded maps. Records
// are never evicted; an evicted balance would corrupt the ledger.
type InmemStore struct {
	mu        sync.Mutex
	accounts  map[string]*Account
	transfers map[string]*TransferRecord
}

// NewInmemStore ...
func NewInmemStore() *InmemStore {
	return &InmemStore{
		accounts:  make(map[string]*Account),
		transfers: make(map[string]*TransferRecord),
	}
}

// FindAccount implements the Store interface.
func (s *InmemStore) FindAccount(accountID string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return nil, cm.NewLedgerErr("account", cm.NotFound, accountID)
	}

	cp := *account
	return &cp, nil
}

// CreateAccount implements the Store interface.
func (s *InmemStore) CreateAccount(account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.AccountID]; ok {
		return cm.NewLedgerErr("account", cm.Duplicate, account.AccountID)
	}

	cp := *account
	s.accounts[account.AccountID] = &cp

	return nil
}

// UpdateBalance implements the Store interface. The whole read-modify-write
// runs under the store mutex.
func (s *InmemStore) UpdateBalance(accountID string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return 0, cm.NewLedgerErr("account", cm.NotFound, accountID)
	}

	newBalance := account.Balance + delta
	if newBalance < 0 {
		return 0, cm.NewLedgerErr("account", cm.InsufficientFunds, accountID)
	}

	account.Balance = newBalance

	return newBalance, nil
}

// AccountCount implements the Store interface.
func (s *InmemStore) AccountCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.accounts), nil
}

// CreateTransfer implements the Store interface.
func (s *InmemStore) CreateTransfer(record *TransferRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transfers[record.ID]; ok {
		return cm.NewLedgerErr("transfer", cm.Duplicate, record.ID)
	}

	cp := *record
	s.transfers[record.ID] = &cp

	return nil
}

// SetTransferState implements the Store interface.
func (s *InmemStore) SetTransferState(id string, state TransferState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.transfers[id]
	if !ok {
		return cm.NewLedgerErr("transfer", cm.NotFound, id)
	}

	record.State = state

	return nil
}

// UnsettledTransfers implements the Store interface.
func (s *InmemStore) UnsettledTransfers() ([]*TransferRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := []*TransferRecord{}
	for _, record := range s.transfers {
		if record.Settled() {
			continue
		}
		cp := *record
		res = append(res, &cp)
	}

	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt != res[j].CreatedAt {
			return res[i].CreatedAt < res[j].CreatedAt
		}
		return res[i].ID < res[j].ID
	})

	return res, nil
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}
