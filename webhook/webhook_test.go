package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNotify_SignsAndDelivers(t *testing.T) {
	got := make(chan *http.Request, 1)
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		got <- r
	}))
	defer srv.Close()

	n := New(srv.URL, "s3cret")
	<-n.Notify(&Event{Type: EventExhausted, Kind: "instagram_profile", Target: "sufitramp", Attempts: 2})

	var r *http.Request
	select {
	case r = <-got:
	default:
		t.Fatal("no request received")
	}
	if want := "sha256=" + Sign("s3cret", body); r.Header.Get(SignatureHeader) != want {
		t.Errorf("signature = %q, want %q", r.Header.Get(SignatureHeader), want)
	}

	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		t.Fatalf("body: %v", err)
	}
	if ev.Type != EventExhausted || ev.Target != "sufitramp" || ev.Timestamp == 0 {
		t.Errorf("event = %+v", ev)
	}
}

func TestNotify_RetriesOnFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	n := New(srv.URL, "")
	n.delays = []time.Duration{0, time.Millisecond, time.Millisecond}

	select {
	case <-n.Notify(&Event{Type: EventExhausted}):
	case <-time.After(5 * time.Second):
		t.Fatal("delivery did not finish")
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestNilNotifierIsNoop(t *testing.T) {
	n := New("", "")
	if n != nil {
		t.Fatal("empty URL should give a nil Notifier")
	}
	select {
	case <-n.Notify(&Event{Type: EventExhausted}):
	case <-time.After(time.Second):
		t.Fatal("nil Notifier should complete immediately")
	}
}
