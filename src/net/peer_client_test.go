package net

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	cm "github.com/nusapay/ewallet/src/common"
)

func testClient(t *testing.T, timeout time.Duration) *PeerClient {
	return NewPeerClient(timeout, cm.NewTestEntry(t, "net"))
}

// stripAddr turns an httptest URL into the host:port form peers use.
func stripAddr(url string) string {
	return strings.TrimPrefix(url, "http://")
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ewallet/ping" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"pong": 1}`))
	}))
	defer srv.Close()

	client := testClient(t, time.Second)

	if alive := client.Ping(context.Background(), stripAddr(srv.URL)); alive != 1 {
		t.Fatalf("ping should return 1, not %d", alive)
	}
}

func TestPingDeadPeer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := stripAddr(srv.URL)
	srv.Close()

	client := testClient(t, time.Second)

	if alive := client.Ping(context.Background(), addr); alive != 0 {
		t.Fatalf("ping of a dead peer should return 0, not %d", alive)
	}
}

func TestPingBadAnswers(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"wrong pong", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"pong": 0}`))
		}},
		{"garbage", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`pong`))
		}},
		{"error status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"pong": 1}`))
		}},
	}

	client := testClient(t, time.Second)

	for _, tt := range tests {
		srv := httptest.NewServer(tt.handler)

		if alive := client.Ping(context.Background(), stripAddr(srv.URL)); alive != 0 {
			t.Fatalf("%s: ping should return 0, not %d", tt.name, alive)
		}

		srv.Close()
	}
}

func TestPingTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(`{"pong": 1}`))
	}))
	defer srv.Close()

	client := testClient(t, 50*time.Millisecond)

	start := time.Now()
	if alive := client.Ping(context.Background(), stripAddr(srv.URL)); alive != 0 {
		t.Fatalf("slow peer should count as dead")
	}
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Fatalf("ping should have been aborted by the timeout, took %v", elapsed)
	}
}

func TestLocalBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"nilai_saldo": 300}`))
	}))
	defer srv.Close()

	client := testClient(t, time.Second)

	balance, err := client.LocalBalance(context.Background(), stripAddr(srv.URL), "u1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if balance != 300 {
		t.Fatalf("balance should be 300, not %d", balance)
	}
}

func TestLocalBalanceNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"nilai_saldo": -1}`))
	}))
	defer srv.Close()

	client := testClient(t, time.Second)

	// -1 is the peer's determinate "no record here" answer; it must remain
	// distinguishable from a failed peer.
	if _, err := client.LocalBalance(context.Background(), stripAddr(srv.URL), "u1"); !cm.Is(err, cm.NotFound) {
		t.Fatalf("should return NotFound, got %v", err)
	}
}

func TestLocalBalanceDeadPeer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := stripAddr(srv.URL)
	srv.Close()

	client := testClient(t, time.Second)

	if _, err := client.LocalBalance(context.Background(), addr, "u1"); !cm.Is(err, cm.RemoteFailure) {
		t.Fatalf("should return RemoteFailure, got %v", err)
	}
}

func TestCredit(t *testing.T) {
	received := CreditRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("err: %v", err)
		}
		w.Write([]byte(`{"status_transfer": 1}`))
	}))
	defer srv.Close()

	client := testClient(t, time.Second)

	if err := client.Credit(context.Background(), stripAddr(srv.URL), "u1", 200); err != nil {
		t.Fatalf("err: %v", err)
	}

	if received.AccountID == nil || *received.AccountID != "u1" {
		t.Fatalf("request user_id wrong: %v", received.AccountID)
	}
	if received.Amount == nil || *received.Amount != 200 {
		t.Fatalf("request nilai wrong: %v", received.Amount)
	}
}

func TestCreditRefused(t *testing.T) {
	tests := []struct {
		wire int
		code cm.Code
	}{
		{-1, cm.NotFound},
		{-2, cm.InsufficientQuorum},
		{-4, cm.StorageUnavailable},
		{-5, cm.InvalidAmount},
	}

	client := testClient(t, time.Second)

	for _, tt := range tests {
		body := fmt.Sprintf(`{"status_transfer": %d}`, tt.wire)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(body))
		}))

		err := client.Credit(context.Background(), stripAddr(srv.URL), "u1", 200)
		if !cm.Is(err, tt.code) {
			t.Fatalf("wire %d should map to code %d, got %v", tt.wire, tt.code, err)
		}

		srv.Close()
	}
}

func TestTotalBalanceForward(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ewallet/getTotalSaldo" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"nilai_saldo": 500}`))
	}))
	defer srv.Close()

	client := testClient(t, time.Second)

	balance, err := client.TotalBalance(context.Background(), stripAddr(srv.URL), "u1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if balance != 500 {
		t.Fatalf("balance should be 500, not %d", balance)
	}
}

func TestTotalBalancePropagatesCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"nilai_saldo": -2}`))
	}))
	defer srv.Close()

	client := testClient(t, time.Second)

	if _, err := client.TotalBalance(context.Background(), stripAddr(srv.URL), "u1"); !cm.Is(err, cm.InsufficientQuorum) {
		t.Fatalf("home branch quorum failure should propagate, got %v", err)
	}
}
