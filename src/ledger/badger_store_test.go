package ledger

import (
	"io/ioutil"
	"os"
	"testing"
)

func initBadgerStore(t *testing.T) *BadgerStore {
	os.RemoveAll("test_data")
	os.Mkdir("test_data", os.ModeDir|0777)

	dir, err := ioutil.TempDir("test_data", "badger")
	if err != nil {
		t.Fatal(err)
	}

	store, err := NewBadgerStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	return store
}

func removeBadgerStore(store *BadgerStore, t *testing.T) {
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(store.Path()); err != nil {
		t.Fatal(err)
	}
}

func TestBadgerAccounts(t *testing.T) {
	store := initBadgerStore(t)
	defer removeBadgerStore(store, t)

	testAccounts(t, store)
}

func TestBadgerTransfers(t *testing.T) {
	store := initBadgerStore(t)
	defer removeBadgerStore(store, t)

	testTransfers(t, store)
}

func TestBadgerReopen(t *testing.T) {
	store := initBadgerStore(t)
	path := store.Path()

	account := &Account{AccountID: "u1", Name: "Budi", Balance: 750}
	if err := store.CreateAccount(account); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	// Records survive a restart
	reopened, err := NewBadgerStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer removeBadgerStore(reopened, t)

	found, err := reopened.FindAccount("u1")
	if err != nil {
		t.Fatal(err)
	}
	if found.Name != "Budi" || found.Balance != 750 {
		t.Fatalf("account mismatch after reopen: %+v", found)
	}
}
