package gasoptd

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func fastNotifier() *Notifier {
	n := NewNotifier()
	n.baseDelay = time.Millisecond
	return n
}

func TestNotifierRetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	var path atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := RunRecord{
		Run:   Run{ID: "run-x", Status: RunStatusFailed, Error: "boom"},
		Input: RunInput{CallbackURL: srv.URL + "/runs/{run_id}/done"},
	}
	done := fastNotifier().Notify(rec)
	if done == nil {
		t.Fatal("expected a delivery channel")
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("notification did not finish")
	}

	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if got := path.Load(); got != "/runs/run-x/done" {
		t.Fatalf("expected run id substituted into the URL, got %v", got)
	}
}

func TestNotifierGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, strings.Repeat("x", 500), http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := fastNotifier()
	done := n.Notify(RunRecord{Run: Run{ID: "r"}, Input: RunInput{CallbackURL: srv.URL}})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("notification did not finish")
	}
	if got := int(calls.Load()); got != n.maxRetries+1 {
		t.Fatalf("expected %d attempts, got %d", n.maxRetries+1, got)
	}
}

func TestNotifierWithoutCallback(t *testing.T) {
	if done := NewNotifier().Notify(RunRecord{Run: Run{ID: "r"}}); done != nil {
		t.Fatal("expected no delivery without a callback URL")
	}
}
