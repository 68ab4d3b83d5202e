package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func receive(t *testing.T, c *Client) (Event, bool) {
	t.Helper()
	select {
	case e, ok := <-c.Events():
		return e, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an event")
		return Event{}, false
	}
}

func TestClient_Wants(t *testing.T) {
	tests := []struct {
		pattern string
		event   string
		want    bool
	}{
		{"", EventFrame, true},
		{"*", EventConfig, true},
		{"frame", EventFrame, true},
		{"frame", EventConfig, false},
		{"conf*", EventConfig, true},
		{"[", EventFrame, false},
	}
	for _, tc := range tests {
		t.Run(tc.pattern+"/"+tc.event, func(t *testing.T) {
			if got := NewClient("c", tc.pattern).Wants(tc.event); got != tc.want {
				t.Errorf("Wants(%q) with pattern %q = %v, want %v", tc.event, tc.pattern, got, tc.want)
			}
		})
	}
}

func TestValidPattern(t *testing.T) {
	if !ValidPattern("frame") || !ValidPattern("*") {
		t.Error("expected plain and wildcard patterns to be valid")
	}
	if ValidPattern("[") {
		t.Error("expected an unterminated class to be invalid")
	}
}

func TestClient_SendDropsWhenFull(t *testing.T) {
	c := NewClient("slow", "*")
	for i := 0; i < clientBuffer; i++ {
		if !c.Send(Event{Type: EventFrame}) {
			t.Fatalf("send %d failed before the buffer was full", i)
		}
	}
	if c.Send(Event{Type: EventFrame}) {
		t.Fatal("expected send to fail when the buffer is full")
	}
	if c.Dropped() != 1 {
		t.Errorf("expected 1 dropped event, got %d", c.Dropped())
	}
}

func TestHub_DeliversByPattern(t *testing.T) {
	hub := startHub(t)
	frames := NewClient("frames", EventFrame)
	all := NewClient("all", "*")
	ctx := context.Background()
	if !hub.Register(ctx, frames) || !hub.Register(ctx, all) {
		t.Fatal("Register failed")
	}

	hub.Publish(Event{Type: EventConfig, Data: []byte(`{"path":"Forward.Draw"}`)})
	hub.Publish(Event{Type: EventFrame, Data: []byte(`{"frame":1}`)})

	if e, _ := receive(t, frames); e.Type != EventFrame {
		t.Errorf("frames client got %q first, want frame", e.Type)
	}
	if e, _ := receive(t, all); e.Type != EventConfig {
		t.Errorf("wildcard client got %q first, want config", e.Type)
	}
	if e, _ := receive(t, all); e.Type != EventFrame {
		t.Errorf("wildcard client got %q second, want frame", e.Type)
	}
	if hub.ClientCount() != 2 {
		t.Errorf("expected 2 clients, got %d", hub.ClientCount())
	}

	hub.Unregister(frames)
	if _, ok := receive(t, frames); ok {
		t.Error("expected the unregistered client's channel to be closed")
	}
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub(nil)
	for i := 0; i < cap(hub.broadcast); i++ {
		hub.Publish(Event{Type: EventFrame})
	}
	if hub.Publish(Event{Type: EventFrame}) {
		t.Fatal("expected publish to fail on a full queue")
	}
	if hub.Dropped() != 1 {
		t.Errorf("expected 1 dropped event, got %d", hub.Dropped())
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := startHub(t)
	c := NewClient("c", "*")
	if !hub.Register(context.Background(), c) {
		t.Fatal("Register failed")
	}
	hub.Stop()
	hub.Stop()
	if _, ok := receive(t, c); ok {
		t.Error("expected client channel closed after Stop")
	}
	if hub.Register(context.Background(), NewClient("late", "*")) {
		t.Error("expected Register to fail on a stopped hub")
	}
}

func TestServe_StreamsEvents(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Serve(hub, w, r, "client-1", r.URL.Query().Get("types"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?types=frame", http.NoBody)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		for lines.Scan() {
			if line := lines.Text(); line != "" {
				return line
			}
		}
		t.Fatalf("stream ended: %v", lines.Err())
		return ""
	}

	if line := next(); line != "event: connected" {
		t.Fatalf("expected connected event, got %q", line)
	}
	if line := next(); !strings.Contains(line, `"clientId":"client-1"`) || !strings.Contains(line, `"pattern":"frame"`) {
		t.Fatalf("unexpected connected payload %q", line)
	}

	hub.Publish(Event{Type: EventConfig, Data: []byte(`{"skipped":true}`)})
	hub.Publish(Event{Type: EventFrame, Data: []byte(`{"frame":3}`)})
	if line := next(); line != "event: frame" {
		t.Fatalf("expected frame event, got %q", line)
	}
	if line := next(); line != `data: {"frame":3}` {
		t.Fatalf("unexpected frame payload %q", line)
	}
}

func TestServe_InvalidPattern(t *testing.T) {
	hub := startHub(t)
	rr := httptest.NewRecorder()
	Serve(hub, rr, httptest.NewRequest(http.MethodGet, "/events", http.NoBody), "c", "[")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}
