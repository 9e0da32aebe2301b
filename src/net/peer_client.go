package net

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	cm "github.com/nusapay/ewallet/src/common"
	"github.com/sirupsen/logrus"
)

// PeerClient issues the outbound peer calls of the branch protocol. Every
// call is bounded by a fixed timeout after which the underlying connection is
// aborted and the call counts as a failure of that single peer. Calls are
// never retried.
type PeerClient struct {
	timeout time.Duration
	client  *http.Client
	logger  *logrus.Entry
}

// NewPeerClient ...
func NewPeerClient(timeout time.Duration, logger *logrus.Entry) *PeerClient {
	return &PeerClient{
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func peerURL(netAddr, op string) string {
	return fmt.Sprintf("http://%s/ewallet/%s", netAddr, op)
}

// post sends a JSON body and decodes the response body into out. It returns
// the HTTP status code; out is left untouched when the body cannot be
// decoded.
func (c *PeerClient) post(ctx context.Context, netAddr, op string, in, out interface{}) (int, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, peerURL(netAddr, op), bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, err
	}

	return resp.StatusCode, nil
}

// Ping probes one peer for liveness. Every failure mode - network error,
// non-200 status, malformed body, timeout - folds into 0; Ping never reports
// an error to its caller.
func (c *PeerClient) Ping(ctx context.Context, netAddr string) int {
	var out PingResponse

	status, err := c.post(ctx, netAddr, "ping", PingRequest{}, &out)
	if err != nil || status != http.StatusOK {
		c.logger.WithField("peer", netAddr).WithError(err).Debug("ping failed")
		return 0
	}

	if out.Pong != 1 {
		return 0
	}

	return 1
}

// LocalBalance queries a peer branch for its local record of an account. A
// decodable negative legacy code is translated to the matching protocol code
// so callers can distinguish a determinate "no record here" from a failed
// peer; anything else is a RemoteFailure.
func (c *PeerClient) LocalBalance(ctx context.Context, netAddr, accountID string) (int64, error) {
	var out BalanceResponse

	status, err := c.post(ctx, netAddr, "getSaldo", BalanceRequest{AccountID: &accountID}, &out)
	if err != nil {
		return 0, cm.NewLedgerErr("peer.getSaldo", cm.RemoteFailure, netAddr)
	}

	if status == http.StatusOK && out.Balance >= 0 {
		return out.Balance, nil
	}

	if out.Balance < 0 {
		if code := cm.FromWireCode(int(out.Balance)); code != cm.Unknown {
			return 0, cm.NewLedgerErr("peer.getSaldo", code, netAddr)
		}
	}

	return 0, cm.NewLedgerErr("peer.getSaldo", cm.RemoteFailure, netAddr)
}

// Credit asks a peer branch to add amount to its local record of an account.
// This is the forward step of an inter-branch transfer. A refusal carried in
// a decodable response is translated to the remote's own code.
func (c *PeerClient) Credit(ctx context.Context, netAddr, accountID string, amount int64) error {
	var out CreditResponse

	status, err := c.post(ctx, netAddr, "transfer", CreditRequest{AccountID: &accountID, Amount: &amount}, &out)
	if err != nil {
		return cm.NewLedgerErr("peer.transfer", cm.RemoteFailure, netAddr)
	}

	if status == http.StatusOK && out.Status == 1 {
		return nil
	}

	if out.Status < 0 {
		if code := cm.FromWireCode(int(out.Status)); code != cm.Unknown {
			return cm.NewLedgerErr("peer.transfer", code, netAddr)
		}
	}

	return cm.NewLedgerErr("peer.transfer", cm.RemoteFailure, netAddr)
}

// TotalBalance forwards an aggregate-total request to the account's home
// branch and returns its answer verbatim, or propagates its failure.
func (c *PeerClient) TotalBalance(ctx context.Context, netAddr, accountID string) (int64, error) {
	var out BalanceResponse

	status, err := c.post(ctx, netAddr, "getTotalSaldo", BalanceRequest{AccountID: &accountID}, &out)
	if err != nil {
		return 0, cm.NewLedgerErr("peer.getTotalSaldo", cm.RemoteFailure, netAddr)
	}

	if status == http.StatusOK && out.Balance >= 0 {
		return out.Balance, nil
	}

	if out.Balance < 0 {
		if code := cm.FromWireCode(int(out.Balance)); code != cm.Unknown {
			return 0, cm.NewLedgerErr("peer.getTotalSaldo", code, netAddr)
		}
	}

	return 0, cm.NewLedgerErr("peer.getTotalSaldo", cm.RemoteFailure, netAddr)
}
