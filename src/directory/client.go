package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	cm "github.com/nusapay/ewallet/src/common"
	"github.com/nusapay/ewallet/src/peers"
	"github.com/sirupsen/logrus"
)

// Client resolves the current set of participant branches from the directory
// service. It is consulted fresh on every operation requiring quorum or
// aggregation; nothing is cached. Directory entries whose monikers are not in
// the trusted allow-list are discarded before they reach any caller.
type Client struct {
	url     string
	trusted *peers.PeerSet
	client  *http.Client
	logger  *logrus.Entry
}

// NewClient ...
func NewClient(url string, trusted *peers.PeerSet, timeout time.Duration, logger *logrus.Entry) *Client {
	return &Client{
		url:     url,
		trusted: trusted,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// URL returns the directory address.
func (c *Client) URL() string {
	return c.url
}

// Participants fetches the participant list and filters it through the
// trusted allow-list. A directory failure is the only error this method
// returns; it is surfaced as RemoteFailure and callers treat it as fatal to
// the gated request.
func (c *Client) Participants(ctx context.Context) ([]*peers.Peer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, cm.NewLedgerErr("directory", cm.RemoteFailure, c.url)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).Error("directory unreachable")
		return nil, cm.NewLedgerErr("directory", cm.RemoteFailure, c.url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithField("status", resp.StatusCode).Error("directory error")
		return nil, cm.NewLedgerErr("directory", cm.RemoteFailure, c.url)
	}

	var listed []*peers.Peer
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		c.logger.WithError(err).Error("directory returned malformed list")
		return nil, cm.NewLedgerErr("directory", cm.RemoteFailure, c.url)
	}

	filtered := c.trusted.Filter(listed)

	if len(filtered) < len(listed) {
		c.logger.WithFields(logrus.Fields{
			"listed":  len(listed),
			"trusted": len(filtered),
		}).Debug("discarded untrusted directory entries")
	}

	return filtered, nil
}
