package ewallet

import (
	"fmt"

	"github.com/nusapay/ewallet/src/config"
	"github.com/nusapay/ewallet/src/directory"
	"github.com/nusapay/ewallet/src/ledger"
	wire "github.com/nusapay/ewallet/src/net"
	"github.com/nusapay/ewallet/src/node"
	"github.com/nusapay/ewallet/src/peers"
	"github.com/nusapay/ewallet/src/service"
)

// EWallet is one branch process. It assembles the trusted peer set, the
// ledger store, the directory client, the node and the HTTP service from a
// config object.
type EWallet struct {
	Config    *config.Config
	Peers     *peers.PeerSet
	Store     ledger.Store
	Directory *directory.Client
	Node      *node.Node
	Service   *service.Service
}

// NewEWallet ...
func NewEWallet(config *config.Config) *EWallet {
	engine := &EWallet{
		Config: config,
	}

	return engine
}

func (e *EWallet) initPeers() error {
	peerStore := peers.NewJSONPeerSet(e.Config.DataDir)

	participants, err := peerStore.PeerSet()
	if err != nil {
		return err
	}

	if participants == nil || participants.Len() == 0 {
		return fmt.Errorf("peers.json should define at least one trusted participant")
	}

	if !participants.Contains(e.Config.Moniker) {
		return fmt.Errorf("cannot find moniker %s in peers.json", e.Config.Moniker)
	}

	e.Peers = participants

	return nil
}

func (e *EWallet) initStore() error {
	if !e.Config.Store {
		e.Store = ledger.NewInmemStore()

		e.Config.Logger().Debug("created new in-mem store")
	} else {
		var err error

		e.Config.Logger().WithField("path", e.Config.DatabaseDir).Debug("Attempting to load or create database")

		e.Store, err = ledger.NewBadgerStore(e.Config.DatabaseDir)
		if err != nil {
			return err
		}
	}

	return nil
}

func (e *EWallet) initDirectory() error {
	url := e.Config.DirectoryURL

	// Without an external directory the node consults its own /ewallet/list,
	// which serves the allow-list.
	if url == "" {
		url = fmt.Sprintf("http://%s/ewallet/list", e.advertiseAddr())
	}

	e.Directory = directory.NewClient(
		url,
		e.Peers,
		e.Config.RPCTimeout,
		e.Config.Logger().WithField("component", "directory"),
	)

	return nil
}

func (e *EWallet) initNode() error {
	client := wire.NewPeerClient(
		e.Config.RPCTimeout,
		e.Config.Logger().WithField("component", "peer-client"),
	)

	e.Node = node.NewNode(
		e.Config.Moniker,
		e.advertiseAddr(),
		e.Peers,
		e.Directory,
		client,
		e.Store,
		e.Config.Logger().WithField("component", "node"),
	)

	return nil
}

func (e *EWallet) initService() error {
	e.Service = service.NewService(
		e.Config.BindAddr,
		e.Node,
		e.Config.DirectoryURL == "",
		e.Config.Logger().WithField("component", "service"),
	)

	return nil
}

func (e *EWallet) advertiseAddr() string {
	if e.Config.AdvertiseAddr != "" {
		return e.Config.AdvertiseAddr
	}
	return e.Config.BindAddr
}

// Init initialises all the components in dependency order.
func (e *EWallet) Init() error {
	if err := e.initPeers(); err != nil {
		return err
	}

	if err := e.initStore(); err != nil {
		return err
	}

	if err := e.initDirectory(); err != nil {
		return err
	}

	if err := e.initNode(); err != nil {
		return err
	}

	if err := e.initService(); err != nil {
		return err
	}

	return nil
}

// Run serves the branch API. This is a blocking call.
func (e *EWallet) Run() {
	e.Service.Serve()
}
