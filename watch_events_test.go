package main

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestListingFor(t *testing.T) {
	root := t.TempDir()
	dw := &directoryWatcher{root: root}

	cases := []struct {
		changed string
		want    string
		ok      bool
	}{
		{filepath.Join(root, "a.txt"), "", true},
		{filepath.Join(root, "docs", "a.txt"), "docs", true},
		{filepath.Join(root, "docs", "img", "b.png"), "docs/img", true},
		{filepath.Join(root, ".git", "HEAD"), "", false},
		{filepath.Join(root, "web", "node_modules", "x", "index.js"), "", false},
		{filepath.Join(filepath.Dir(root), "elsewhere.txt"), "", false},
	}
	for _, tc := range cases {
		got, ok := dw.listingFor(tc.changed)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("listingFor(%q) = %q, %v; want %q, %v", tc.changed, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSubscriptionCovers(t *testing.T) {
	cases := []struct {
		query   string
		changed string
		want    bool
	}{
		{"", "", true},
		{"", "a/b", true},
		{"dir=", "", true},
		{"dir=", "docs", false},
		{"dir=&tree=1", "docs", true},
		{"dir=docs", "docs", true},
		{"dir=docs", "docs/img", false},
		{"dir=docs&tree=1", "docs/img", true},
		{"dir=docs&tree=1", "docsextra", false},
		{"dir=docs&tree=1", "", false},
		{"dir=/docs/../docs/", "docs", true},
	}
	for _, tc := range cases {
		q, err := url.ParseQuery(tc.query)
		if err != nil {
			t.Fatalf("bad query %q: %v", tc.query, err)
		}
		if got := parseSubscription(q).covers(tc.changed); got != tc.want {
			t.Fatalf("%q covers %q = %v, want %v", tc.query, tc.changed, got, tc.want)
		}
	}
}

func TestLiveReloadScript(t *testing.T) {
	got := liveReloadScript("a b/</script>", true)
	if !strings.Contains(got, "new EventSource(") || !strings.Contains(got, `"dirsChanged"`) {
		t.Fatalf("unexpected script %q", got)
	}
	if strings.Count(got, "</script>") != 1 {
		t.Fatalf("directory name must not close the script element: %q", got)
	}
	if !strings.Contains(got, "tree=1") || !strings.Contains(got, liveEventsPath+"?dir=a+b%2F%3C%2Fscript%3E") {
		t.Fatalf("unexpected subscription URL in %q", got)
	}
}

func TestPublishCoalescesPendingReloads(t *testing.T) {
	hub := newSSEHub()
	c := &liveClient{sub: subscription{dir: "docs"}, pending: make(chan []byte, 1), done: make(chan struct{})}
	hub.add(c)

	for i := 0; i < 3; i++ {
		if n, err := hub.publish([]string{"docs"}, time.Now()); err != nil || n != 1 {
			t.Fatalf("publish = %d, %v", n, err)
		}
	}
	if len(c.pending) != 1 {
		t.Fatalf("expected a single queued reload, got %d", len(c.pending))
	}
	if !strings.HasPrefix(string(<-c.pending), "id: 1\n") {
		t.Fatalf("the first queued reload should be kept")
	}
}

// readEvent returns the data line of the next event named name.
func readEvent(t *testing.T, r *bufio.Reader, name string) string {
	t.Helper()
	current := ""
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("reading event stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			current = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: ") && current == name:
			return strings.TrimPrefix(line, "data: ")
		}
	}
}

func subscribe(t *testing.T, ctx context.Context, target string) *bufio.Reader {
	t.Helper()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}
	r := bufio.NewReader(resp.Body)
	if line, _ := r.ReadString('\n'); !strings.HasPrefix(line, "retry: ") {
		t.Fatalf("expected retry hint, got %q", line)
	}
	return r
}

func TestSSEHubFiltersByDirectory(t *testing.T) {
	hub := newSSEHub()
	ts := httptest.NewServer(hub)
	defer ts.Close()
	defer hub.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	docs := subscribe(t, ctx, ts.URL+"?dir=docs")
	_ = subscribe(t, ctx, ts.URL+"?dir=other")
	for hub.clientCount() < 2 {
		time.Sleep(10 * time.Millisecond)
	}

	n, err := hub.publish([]string{"", "docs", "docs/img"}, time.Now())
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected only the docs page to be notified, got %d", n)
	}
	var payload dirsChanged
	if err := json.Unmarshal([]byte(readEvent(t, docs, dirsChangedEvent)), &payload); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if strings.Join(payload.Dirs, ",") != "docs" {
		t.Fatalf("subscriber should only see its own dir, got %q", payload.Dirs)
	}

	hub.CloseAll()
	if hub.clientCount() != 0 {
		t.Fatalf("expected no clients after CloseAll")
	}
}

func TestLiveReloadReportsChangedDirectory(t *testing.T) {
	tmp := t.TempDir()
	writeTestFile(t, filepath.Join(tmp, "docs", "a.txt"), "a")

	s, err := NewShareServer(tmp, ServerOptions{Host: "127.0.0.1", Live: true, Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("NewShareServer failed: %v", err)
	}
	info, err := s.Start()
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() { _ = s.Stop(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	r := subscribe(t, ctx, info.URL+liveEventsPath+"?dir=docs")
	for s.events.clientCount() == 0 {
		time.Sleep(10 * time.Millisecond)
	}

	if err := os.WriteFile(filepath.Join(tmp, "docs", "b.txt"), []byte("b"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var payload dirsChanged
	if err := json.Unmarshal([]byte(readEvent(t, r, dirsChangedEvent)), &payload); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if strings.Join(payload.Dirs, ",") != "docs" {
		t.Fatalf("expected docs to change, got %q", payload.Dirs)
	}
}
