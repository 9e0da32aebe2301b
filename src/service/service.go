package service

import (
	"encoding/json"
	"net/http"

	cm "github.com/nusapay/ewallet/src/common"
	"github.com/nusapay/ewallet/src/node"
	wire "github.com/nusapay/ewallet/src/net"
	"github.com/sirupsen/logrus"
)

// Service exposes the branch API over JSON HTTP under the /ewallet prefix.
// The endpoint paths, field names and negative failure codes are the legacy
// wire protocol consumed by deployed branches.
//
// Handlers are not serialised: a branch probes and queries itself through
// the same listener during quorum and aggregation, so a per-service lock
// would deadlock the self leg. Concurrency safety lives in the store.
type Service struct {
	bindAddress string
	node        *node.Node
	listLocal   bool
	logger      *logrus.Entry
	mux         *http.ServeMux
}

// NewService creates the service and registers its handlers. When listLocal
// is set, the node serves its own allow-list under /ewallet/list, standing in
// for an external directory.
func NewService(bindAddress string, n *node.Node, listLocal bool, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		node:        n,
		listLocal:   listLocal,
		logger:      logger,
		mux:         http.NewServeMux(),
	}

	service.registerHandlers()

	return &service
}

// registerHandlers registers the API handlers on the service mux.
func (s *Service) registerHandlers() {
	s.logger.Debug("Registering ewallet API handlers")

	s.mux.HandleFunc("/ewallet/ping", s.makeHandler(s.Ping))
	s.mux.HandleFunc("/ewallet/getSaldo", s.makeHandler(s.GetSaldo))
	s.mux.HandleFunc("/ewallet/register", s.makeHandler(s.Register))
	s.mux.HandleFunc("/ewallet/transfer", s.makeHandler(s.Transfer))
	s.mux.HandleFunc("/ewallet/transferKeKantorCabang", s.makeHandler(s.TransferKeKantorCabang))
	s.mux.HandleFunc("/ewallet/getTotalSaldo", s.makeHandler(s.GetTotalSaldo))
	s.mux.HandleFunc("/ewallet/stats", s.makeHandler(s.GetStats))
	s.mux.HandleFunc("/ewallet/audit", s.makeHandler(s.GetAudit))

	if s.listLocal {
		s.mux.HandleFunc("/ewallet/list", s.makeHandler(s.GetList))
	}
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", "application/json")

		fn(w, r)
	}
}

// Mux exposes the handler tree. Used to mount the service in tests.
func (s *Service) Mux() *http.ServeMux {
	return s.mux
}

// Serve calls ListenAndServe. This is a blocking call.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving ewallet API")

	err := http.ListenAndServe(s.bindAddress, s.mux)
	if err != nil {
		s.logger.Error(err)
	}
}

// sendError reports a failure the way deployed branches expect it: HTTP 500
// with the operation's response field carrying the negative legacy code.
func (s *Service) sendError(w http.ResponseWriter, field string, err error) {
	s.logger.WithError(err).Debug("request failed")

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]int{field: cm.WireCode(err)})
}

// decode parses the request body into v. A missing or malformed body maps to
// InvalidInput.
func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return cm.NewLedgerErr("service", cm.InvalidInput, r.URL.Path)
	}
	return nil
}

// Ping answers the liveness probe.
func (s *Service) Ping(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	json.NewEncoder(w).Encode(wire.PingResponse{Pong: 1})
}

// GetList serves the trusted allow-list as a directory response. Only
// registered when no external directory is configured.
func (s *Service) GetList(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(s.node.TrustedPeers())
}

// GetSaldo returns the branch-local balance of an account.
func (s *Service) GetSaldo(w http.ResponseWriter, r *http.Request) {
	var req wire.BalanceRequest
	if err := decode(r, &req); err != nil {
		s.sendError(w, "nilai_saldo", err)
		return
	}
	if req.AccountID == nil {
		s.sendError(w, "nilai_saldo", cm.NewLedgerErr("getSaldo", cm.InvalidInput, r.URL.Path))
		return
	}

	balance, err := s.node.LocalBalance(r.Context(), *req.AccountID)
	if err != nil {
		s.sendError(w, "nilai_saldo", err)
		return
	}

	json.NewEncoder(w).Encode(wire.BalanceResponse{Balance: balance})
}

// Register creates the branch-local record of an account.
func (s *Service) Register(w http.ResponseWriter, r *http.Request) {
	var req wire.RegisterRequest
	if err := decode(r, &req); err != nil {
		s.sendError(w, "status_register", err)
		return
	}
	if req.AccountID == nil || req.Name == nil {
		s.sendError(w, "status_register", cm.NewLedgerErr("register", cm.InvalidInput, r.URL.Path))
		return
	}

	if err := s.node.Register(r.Context(), *req.AccountID, *req.Name); err != nil {
		s.sendError(w, "status_register", err)
		return
	}

	json.NewEncoder(w).Encode(wire.RegisterResponse{Status: 1})
}

// Transfer credits the branch-local record. It serves direct top-ups and
// incoming inter-branch transfers alike.
func (s *Service) Transfer(w http.ResponseWriter, r *http.Request) {
	var req wire.CreditRequest
	if err := decode(r, &req); err != nil {
		s.sendError(w, "status_transfer", err)
		return
	}
	if req.AccountID == nil {
		s.sendError(w, "status_transfer", cm.NewLedgerErr("transfer", cm.InvalidInput, r.URL.Path))
		return
	}
	if req.Amount == nil {
		s.sendError(w, "status_transfer", cm.NewLedgerErr("transfer", cm.InvalidAmount, r.URL.Path))
		return
	}

	if err := s.node.Credit(r.Context(), *req.AccountID, *req.Amount); err != nil {
		s.sendError(w, "status_transfer", err)
		return
	}

	json.NewEncoder(w).Encode(wire.CreditResponse{Status: 1})
}

// TransferKeKantorCabang moves funds from the local record to the same
// account at another branch.
func (s *Service) TransferKeKantorCabang(w http.ResponseWriter, r *http.Request) {
	var req wire.BranchTransferRequest
	if err := decode(r, &req); err != nil {
		s.sendError(w, "status_transfer", err)
		return
	}
	if req.AccountID == nil || req.Target == nil {
		s.sendError(w, "status_transfer", cm.NewLedgerErr("transferKeKantorCabang", cm.InvalidInput, r.URL.Path))
		return
	}
	if req.Amount == nil {
		s.sendError(w, "status_transfer", cm.NewLedgerErr("transferKeKantorCabang", cm.InvalidAmount, r.URL.Path))
		return
	}

	if err := s.node.TransferToBranch(r.Context(), *req.AccountID, *req.Amount, *req.Target); err != nil {
		s.sendError(w, "status_transfer", err)
		return
	}

	json.NewEncoder(w).Encode(wire.CreditResponse{Status: 1})
}

// GetTotalSaldo returns the account's balance summed across all branches.
func (s *Service) GetTotalSaldo(w http.ResponseWriter, r *http.Request) {
	var req wire.BalanceRequest
	if err := decode(r, &req); err != nil {
		s.sendError(w, "nilai_saldo", err)
		return
	}
	if req.AccountID == nil {
		s.sendError(w, "nilai_saldo", cm.NewLedgerErr("getTotalSaldo", cm.InvalidInput, r.URL.Path))
		return
	}

	total, err := s.node.TotalBalance(r.Context(), *req.AccountID)
	if err != nil {
		s.sendError(w, "nilai_saldo", err)
		return
	}

	json.NewEncoder(w).Encode(wire.BalanceResponse{Balance: total})
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(s.node.GetStats())
}

// GetAudit lists the transfer-journal records that still need
// reconciliation, notably those stuck in the credited-but-not-debited
// window.
func (s *Service) GetAudit(w http.ResponseWriter, r *http.Request) {
	records, err := s.node.UnsettledTransfers()
	if err != nil {
		s.sendError(w, "status_audit", err)
		return
	}

	json.NewEncoder(w).Encode(records)
}
