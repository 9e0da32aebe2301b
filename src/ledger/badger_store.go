package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dgraph-io/badger"
	cm "github.com/nusapay/ewallet/src/common"
)

const (
	accountPrefix  = "account"
	transferPrefix = "transfer"
)

// BadgerStore implements the Store interface with a Badger database. A
// store-wide mutex serialises every read-modify-write so the non-negative
// balance invariant holds without relying on transaction retries.
type BadgerStore struct {
	mu   sync.Mutex
	db   *badger.DB
	path string
}

// NewBadgerStore opens, or creates, a database at the given path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = false
	opts.Logger = nil

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	store := &BadgerStore{
		db:   handle,
		path: path,
	}

	return store, nil
}

// Path returns the database directory.
func (s *BadgerStore) Path() string {
	return s.path
}

func accountKey(accountID string) []byte {
	return []byte(fmt.Sprintf("%s_%s", accountPrefix, accountID))
}

func transferKey(id string) []byte {
	return []byte(fmt.Sprintf("%s_%s", transferPrefix, id))
}

// FindAccount implements the Store interface.
func (s *BadgerStore) FindAccount(accountID string) (*Account, error) {
	account := new(Account)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(accountKey(accountID))
		if err != nil {
			return err
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return account.Unmarshal(data)
	})

	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, cm.NewLedgerErr("account", cm.NotFound, accountID)
		}
		return nil, cm.NewLedgerErr("account", cm.StorageUnavailable, accountID)
	}

	return account, nil
}

// CreateAccount implements the Store interface.
func (s *BadgerStore) CreateAccount(account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := accountKey(account.AccountID)

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return cm.NewLedgerErr("account", cm.Duplicate, account.AccountID)
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		data, err := account.Marshal()
		if err != nil {
			return err
		}

		return txn.Set(key, data)
	})

	if err != nil {
		if cm.Is(err, cm.Duplicate) {
			return err
		}
		return cm.NewLedgerErr("account", cm.StorageUnavailable, account.AccountID)
	}

	return nil
}

// UpdateBalance implements the Store interface.
func (s *BadgerStore) UpdateBalance(accountID string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := accountKey(accountID)
	newBalance := int64(0)

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		account := new(Account)
		if err := account.Unmarshal(data); err != nil {
			return err
		}

		if account.Balance+delta < 0 {
			return cm.NewLedgerErr("account", cm.InsufficientFunds, accountID)
		}

		account.Balance += delta
		newBalance = account.Balance

		updated, err := account.Marshal()
		if err != nil {
			return err
		}

		return txn.Set(key, updated)
	})

	if err != nil {
		if err == badger.ErrKeyNotFound {
			return 0, cm.NewLedgerErr("account", cm.NotFound, accountID)
		}
		if cm.Is(err, cm.InsufficientFunds) {
			return 0, err
		}
		return 0, cm.NewLedgerErr("account", cm.StorageUnavailable, accountID)
	}

	return newBalance, nil
}

// AccountCount implements the Store interface.
func (s *BadgerStore) AccountCount() (int, error) {
	count := 0
	prefix := []byte(accountPrefix + "_")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})

	if err != nil {
		return 0, cm.NewLedgerErr("account", cm.StorageUnavailable, "count")
	}

	return count, nil
}

// CreateTransfer implements the Store interface.
func (s *BadgerStore) CreateTransfer(record *TransferRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := transferKey(record.ID)

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return cm.NewLedgerErr("transfer", cm.Duplicate, record.ID)
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		data, err := record.Marshal()
		if err != nil {
			return err
		}

		return txn.Set(key, data)
	})

	if err != nil {
		if cm.Is(err, cm.Duplicate) {
			return err
		}
		return cm.NewLedgerErr("transfer", cm.StorageUnavailable, record.ID)
	}

	return nil
}

// SetTransferState implements the Store interface.
func (s *BadgerStore) SetTransferState(id string, state TransferState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := transferKey(id)

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		record := new(TransferRecord)
		if err := record.Unmarshal(data); err != nil {
			return err
		}

		record.State = state

		updated, err := record.Marshal()
		if err != nil {
			return err
		}

		return txn.Set(key, updated)
	})

	if err != nil {
		if err == badger.ErrKeyNotFound {
			return cm.NewLedgerErr("transfer", cm.NotFound, id)
		}
		return cm.NewLedgerErr("transfer", cm.StorageUnavailable, id)
	}

	return nil
}

// UnsettledTransfers implements the Store interface.
func (s *BadgerStore) UnsettledTransfers() ([]*TransferRecord, error) {
	res := []*TransferRecord{}
	prefix := []byte(transferPrefix + "_")

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			record := new(TransferRecord)
			if err := record.Unmarshal(data); err != nil {
				return err
			}

			if !record.Settled() {
				res = append(res, record)
			}
		}
		return nil
	})

	if err != nil {
		return nil, cm.NewLedgerErr("transfer", cm.StorageUnavailable, "scan")
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
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
