package node

import (
	"context"

	cm "github.com/nusapay/ewallet/src/common"
	"github.com/nusapay/ewallet/src/peers"
)

// Route resolves the home branch of an account. The account id doubles as
// the routing key: it is matched against the monikers of the directory
// entries that survive the allow-list filter. The home branch is local when
// the matched entry's address equals this node's advertised address.
func (n *Node) Route(ctx context.Context, accountID string) (*peers.Peer, bool, error) {
	participants, err := n.directory.Participants(ctx)
	if err != nil {
		return nil, false, err
	}

	for _, p := range participants {
		if p.Moniker == accountID {
			return p, p.NetAddr == n.advertiseAddr, nil
		}
	}

	return nil, false, cm.NewLedgerErr("router", cm.NotFound, accountID)
}
