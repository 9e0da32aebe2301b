package node

import (
	"context"
	"sync/atomic"

	cm "github.com/nusapay/ewallet/src/common"
	"github.com/nusapay/ewallet/src/peers"
	"github.com/sirupsen/logrus"
)

// probeOutcome pairs one directory participant with its liveness result.
type probeOutcome struct {
	peer  *peers.Peer
	alive int
}

// Quorum probes every trusted participant listed by the directory
// concurrently and returns the number of live ones. Probes all run to
// completion before the count is reduced; there is no early exit on reaching
// a threshold. Individual probe failures only contribute 0. The call itself
// fails only when the directory lookup fails.
func (n *Node) Quorum(ctx context.Context) (int, error) {
	participants, err := n.directory.Participants(ctx)
	if err != nil {
		return 0, err
	}

	outcomes := make(chan probeOutcome, len(participants))

	for _, p := range participants {
		go func(p *peers.Peer) {
			outcomes <- probeOutcome{
				peer:  p,
				alive: n.client.Ping(ctx, p.NetAddr),
			}
		}(p)
	}

	// Join on every outstanding probe, then reduce.
	results := make(map[string]int, len(participants))
	for range participants {
		o := <-outcomes
		results[o.peer.Moniker] = o.alive
	}

	count := 0
	for _, alive := range results {
		count += alive
	}

	atomic.StoreInt64(&n.lastQuorum, int64(count))

	n.logger.WithFields(logrus.Fields{
		"count":        count,
		"participants": len(participants),
	}).Debug("quorum")

	return count, nil
}

// requireQuorum rejects the request before any ledger access when fewer than
// required peers are live.
func (n *Node) requireQuorum(ctx context.Context, required int) error {
	count, err := n.Quorum(ctx)
	if err != nil {
		return err
	}

	if count < required {
		n.logger.WithFields(logrus.Fields{
			"count":    count,
			"required": required,
			"trusted":  n.trusted.Len(),
		}).Error("insufficient quorum")

		return cm.NewLedgerErr("quorum", cm.InsufficientQuorum, n.moniker)
	}

	return nil
}

// LastQuorum returns the most recently computed quorum count. It is only
// informational; every gated request recomputes its own count.
func (n *Node) LastQuorum() int {
	return int(atomic.LoadInt64(&n.lastQuorum))
}
