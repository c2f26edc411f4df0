package ledger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
)

type pendingState struct {
	mu        sync.Mutex
	confirmed bool
	poolError string
}

func newLedgerServer(t *testing.T, state *pendingState) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/transactions/params", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"current_height":500,"validity_window":10,"min_fee":1000,"genesis_id":"test"}`))
	})
	mux.HandleFunc("/v1/transactions", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"tx_id":"TX1"}`))
	})
	mux.HandleFunc("/v1/transactions/pending/", func(w http.ResponseWriter, _ *http.Request) {
		state.mu.Lock()
		defer state.mu.Unlock()
		if state.poolError != "" {
			_, _ = w.Write([]byte(`{"pool_error":"` + state.poolError + `"}`))
			return
		}
		if state.confirmed {
			_, _ = w.Write([]byte(`{"confirmed_height":501}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL)
	c.SetRoundWait(time.Millisecond)
	return c
}

func TestSuggestedParams(t *testing.T) {
	c := newLedgerServer(t, &pendingState{})
	sp, err := c.SuggestedParams(context.Background())
	if err != nil {
		t.Fatalf("SuggestedParams error: %v", err)
	}
	if sp.CurrentHeight != 500 || sp.ValidityWindow != 10 {
		t.Fatalf("参数不匹配: %+v", sp)
	}
}

func TestSubmitGroupEmpty(t *testing.T) {
	c := newLedgerServer(t, &pendingState{})
	if _, err := c.SubmitGroup(context.Background(), nil); err == nil {
		t.Fatal("空交易组应当失败")
	}
}

func TestWaitForConfirmation(t *testing.T) {
	state := &pendingState{confirmed: true}
	c := newLedgerServer(t, state)
	if err := c.WaitForConfirmation(context.Background(), "TX1", 3); err != nil {
		t.Fatalf("WaitForConfirmation error: %v", err)
	}
}

func TestWaitForConfirmationTimeout(t *testing.T) {
	c := newLedgerServer(t, &pendingState{})
	err := c.WaitForConfirmation(context.Background(), "TX1", 2)
	if !errors.Is(err, ErrConfirmationTimeout) {
		t.Fatalf("应当返回确认超时, got: %v", err)
	}
}

func TestWaitForConfirmationPoolError(t *testing.T) {
	state := &pendingState{poolError: "overspend"}
	c := newLedgerServer(t, state)
	err := c.WaitForConfirmation(context.Background(), "TX1", 3)
	if err == nil || errors.Is(err, ErrConfirmationTimeout) {
		t.Fatalf("池拒绝应当作为独立错误返回, got: %v", err)
	}
}
