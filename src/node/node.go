package node

import (
	"context"
	"fmt"
	"strconv"
	"time"

	cm "github.com/nusapay/ewallet/src/common"
	"github.com/nusapay/ewallet/src/directory"
	"github.com/nusapay/ewallet/src/ledger"
	"github.com/nusapay/ewallet/src/net"
	"github.com/nusapay/ewallet/src/peers"
	"github.com/sirupsen/logrus"
)

// Node holds one branch of the multi-branch ledger. State-changing and
// aggregate operations are gated behind a liveness quorum computed by probing
// all trusted participants: single-branch operations require a majority,
// the whole-network aggregate requires full liveness, because a partial
// fan-out would silently under-count the true total rather than fail loudly.
type Node struct {
	moniker       string
	advertiseAddr string
	trusted       *peers.PeerSet
	directory     *directory.Client
	client        *net.PeerClient
	store         ledger.Store
	logger        *logrus.Entry

	lastQuorum int64
}

// NewNode ...
func NewNode(
	moniker string,
	advertiseAddr string,
	trusted *peers.PeerSet,
	dir *directory.Client,
	client *net.PeerClient,
	store ledger.Store,
	logger *logrus.Entry,
) *Node {
	return &Node{
		moniker:       moniker,
		advertiseAddr: advertiseAddr,
		trusted:       trusted,
		directory:     dir,
		client:        client,
		store:         store,
		logger:        logger,
	}
}

// Moniker returns this branch's participant identifier.
func (n *Node) Moniker() string {
	return n.moniker
}

// AdvertiseAddr returns the address under which this branch appears in the
// directory.
func (n *Node) AdvertiseAddr() string {
	return n.advertiseAddr
}

// TrustedPeers returns the participant allow-list.
func (n *Node) TrustedPeers() []*peers.Peer {
	return n.trusted.Peers
}

// Majority is the quorum threshold of single-branch operations.
func (n *Node) Majority() int {
	return n.trusted.Majority()
}

// Full is the quorum threshold of the aggregate-total operation.
func (n *Node) Full() int {
	return n.trusted.Len()
}

// Register creates the branch-local record of an account with balance 0.
// Registration is not idempotent: a second call for the same account id
// fails with Duplicate and leaves the record untouched.
func (n *Node) Register(ctx context.Context, accountID, name string) error {
	if accountID == "" || name == "" {
		return cm.NewLedgerErr("register", cm.InvalidInput, accountID)
	}

	if err := n.requireQuorum(ctx, n.Majority()); err != nil {
		return err
	}

	if err := n.store.CreateAccount(&ledger.Account{
		AccountID: accountID,
		Name:      name,
		Balance:   0,
	}); err != nil {
		return err
	}

	n.logger.WithField("user_id", accountID).Info("registered account")

	return nil
}

// LocalBalance returns the balance of the branch-local record. Read-only.
func (n *Node) LocalBalance(ctx context.Context, accountID string) (int64, error) {
	if accountID == "" {
		return 0, cm.NewLedgerErr("getSaldo", cm.InvalidInput, accountID)
	}

	if err := n.requireQuorum(ctx, n.Majority()); err != nil {
		return 0, err
	}

	account, err := n.store.FindAccount(accountID)
	if err != nil {
		return 0, err
	}

	return account.Balance, nil
}

// Credit atomically adds amount to the branch-local record. It serves both
// direct top-ups and the receiving side of an inter-branch transfer; the
// protocol does not distinguish the two at this layer.
func (n *Node) Credit(ctx context.Context, accountID string, amount int64) error {
	if accountID == "" {
		return cm.NewLedgerErr("transfer", cm.InvalidInput, accountID)
	}
	if !ledger.ValidAmount(amount) {
		return cm.NewLedgerErr("transfer", cm.InvalidAmount, accountID)
	}

	if err := n.requireQuorum(ctx, n.Majority()); err != nil {
		return err
	}

	newBalance, err := n.store.UpdateBalance(accountID, amount)
	if err != nil {
		return err
	}

	n.logger.WithFields(logrus.Fields{
		"user_id": accountID,
		"nilai":   amount,
		"balance": newBalance,
	}).Info("credited account")

	return nil
}

// balanceOutcome pairs one participant with its leg of the aggregate
// fan-out.
type balanceOutcome struct {
	peer    *peers.Peer
	balance int64
	err     error
}

// TotalBalance computes the account's balance summed across all branches.
// On the home branch it fans out a local-balance query to every trusted
// participant, answering the self leg locally without a network hop; on any
// other branch it forwards the request to the home branch verbatim.
//
// A branch with no record contributes 0 - that is a determinate answer. Any
// other per-peer failure fails the whole aggregation: a partial sum would
// misstate a financial total.
func (n *Node) TotalBalance(ctx context.Context, accountID string) (int64, error) {
	if accountID == "" {
		return 0, cm.NewLedgerErr("getTotalSaldo", cm.InvalidInput, accountID)
	}

	if err := n.requireQuorum(ctx, n.Full()); err != nil {
		return 0, err
	}

	home, local, err := n.Route(ctx, accountID)
	if err != nil {
		return 0, err
	}

	if !local {
		n.logger.WithFields(logrus.Fields{
			"user_id": accountID,
			"home":    home.NetAddr,
		}).Debug("forwarding total-balance to home branch")

		return n.client.TotalBalance(ctx, home.NetAddr, accountID)
	}

	participants, err := n.directory.Participants(ctx)
	if err != nil {
		return 0, err
	}

	outcomes := make(chan balanceOutcome, len(participants))

	for _, p := range participants {
		go func(p *peers.Peer) {
			var balance int64
			var err error

			if p.NetAddr == n.advertiseAddr {
				balance, err = n.localLeg(accountID)
			} else {
				balance, err = n.client.LocalBalance(ctx, p.NetAddr, accountID)
			}

			outcomes <- balanceOutcome{peer: p, balance: balance, err: err}
		}(p)
	}

	results := make(map[string]balanceOutcome, len(participants))
	for range participants {
		o := <-outcomes
		results[o.peer.Moniker] = o
	}

	total := int64(0)
	for moniker, o := range results {
		if o.err != nil {
			if cm.Is(o.err, cm.NotFound) {
				continue
			}

			n.logger.WithFields(logrus.Fields{
				"user_id": accountID,
				"peer":    moniker,
			}).WithError(o.err).Error("aggregate leg failed")

			return 0, cm.NewLedgerErr("getTotalSaldo", cm.RemoteFailure, moniker)
		}
		total += o.balance
	}

	return total, nil
}

// localLeg answers the self leg of the aggregate fan-out from the local
// store.
func (n *Node) localLeg(accountID string) (int64, error) {
	account, err := n.store.FindAccount(accountID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// TransferToBranch debits the local record only after successfully crediting
// the same amount at the target branch. The two steps are not transactional
// across branches: a crash or store failure between them leaves the amount
// credited twice. The journal makes that window observable - a record stuck
// in StateCredited is exactly one unreconciled transfer.
func (n *Node) TransferToBranch(ctx context.Context, accountID string, amount int64, target string) error {
	if accountID == "" || target == "" {
		return cm.NewLedgerErr("transferKeKantorCabang", cm.InvalidInput, accountID)
	}
	if !ledger.ValidAmount(amount) {
		return cm.NewLedgerErr("transferKeKantorCabang", cm.InvalidAmount, accountID)
	}

	if err := n.requireQuorum(ctx, n.Majority()); err != nil {
		return err
	}

	account, err := n.store.FindAccount(accountID)
	if err != nil {
		return err
	}

	if account.Balance < amount {
		return cm.NewLedgerErr("transferKeKantorCabang", cm.InsufficientFunds, accountID)
	}

	record := &ledger.TransferRecord{
		ID:        fmt.Sprintf("%s-%d", accountID, time.Now().UnixNano()),
		AccountID: accountID,
		Amount:    amount,
		Target:    target,
		State:     ledger.StatePending,
		CreatedAt: time.Now().Unix(),
	}

	if err := n.store.CreateTransfer(record); err != nil {
		return err
	}

	if err := n.client.Credit(ctx, target, accountID, amount); err != nil {
		if serr := n.store.SetTransferState(record.ID, ledger.StateAborted); serr != nil {
			n.logger.WithField("transfer", record.ID).WithError(serr).Warn("cannot mark transfer aborted")
		}
		return err
	}

	if err := n.store.SetTransferState(record.ID, ledger.StateCredited); err != nil {
		n.logger.WithField("transfer", record.ID).WithError(err).Warn("cannot mark transfer credited")
	}

	// The debit re-reads the record; the balance may have moved since the
	// check above.
	newBalance, err := n.store.UpdateBalance(accountID, -amount)
	if err != nil {
		n.logger.WithFields(logrus.Fields{
			"user_id":  accountID,
			"nilai":    amount,
			"target":   target,
			"transfer": record.ID,
		}).WithError(err).Error("local debit failed after remote credit")

		return cm.NewLedgerErr("transferKeKantorCabang", cm.DebitAfterCreditFailed, accountID)
	}

	if err := n.store.SetTransferState(record.ID, ledger.StateCompleted); err != nil {
		n.logger.WithField("transfer", record.ID).WithError(err).Warn("cannot mark transfer completed")
	}

	n.logger.WithFields(logrus.Fields{
		"user_id": accountID,
		"nilai":   amount,
		"target":  target,
		"balance": newBalance,
	}).Info("transferred to branch")

	return nil
}

// UnsettledTransfers lists the journaled transfer attempts that still need
// reconciliation.
func (n *Node) UnsettledTransfers() ([]*ledger.TransferRecord, error) {
	return n.store.UnsettledTransfers()
}

// GetStats returns operational counters for the stats endpoint.
func (n *Node) GetStats() map[string]string {
	accounts := -1
	if count, err := n.store.AccountCount(); err == nil {
		accounts = count
	}

	unsettled := -1
	if records, err := n.store.UnsettledTransfers(); err == nil {
		unsettled = len(records)
	}

	return map[string]string{
		"moniker":             n.moniker,
		"advertise_addr":      n.advertiseAddr,
		"trusted_peers":       strconv.Itoa(n.trusted.Len()),
		"majority":            strconv.Itoa(n.Majority()),
		"last_quorum":         strconv.Itoa(n.LastQuorum()),
		"accounts":            strconv.Itoa(accounts),
		"unsettled_transfers": strconv.Itoa(unsettled),
	}
}
