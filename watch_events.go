package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	liveEventsPath    = "/__live/events"
	dirsChangedEvent  = "dirsChanged"
	changeDebounce    = 250 * time.Millisecond
	keepAliveInterval = 20 * time.Second
	reconnectDelay    = 2 * time.Second
)

// Directory names whose subtrees never trigger a reload.
var ignoredWatchDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	"__pycache__":  {},
	".cache":       {},
	".gradle":      {},
	".m2":          {},
}

// startWatcher and stopWatcher expect s.mu to be held.
func (s *ShareServer) startWatcher() {
	if s.events == nil || s.watcher != nil {
		return
	}
	dw, err := newDirectoryWatcher(s.root, s.events, s.logger.Named("watch"))
	if err != nil {
		s.logger.Warn("live reload disabled", zap.Error(err))
		return
	}
	if err := dw.Start(); err != nil {
		s.logger.Warn("live reload disabled", zap.Error(err))
		return
	}
	s.watcher = dw
}

func (s *ShareServer) stopWatcher() {
	if s.watcher == nil {
		return
	}
	s.watcher.Stop()
	s.watcher = nil
}

// subscription is what one open page wants to hear about. Listings follow
// their own directory; HTML pages also follow everything below it, where
// their stylesheets and scripts usually live.
type subscription struct {
	dir  string
	tree bool
}

// parseSubscription reads ?dir= and ?tree=1. Without dir the subscriber
// follows the whole root.
func parseSubscription(q url.Values) subscription {
	if !q.Has("dir") {
		return subscription{tree: true}
	}
	dir := strings.Trim(path.Clean("/"+q.Get("dir")), "/")
	return subscription{dir: dir, tree: q.Get("tree") == "1"}
}

// covers reports whether a change inside the root-relative directory
// changed makes the subscriber's page stale.
func (sub subscription) covers(changed string) bool {
	if changed == sub.dir {
		return true
	}
	if !sub.tree {
		return false
	}
	return sub.dir == "" || strings.HasPrefix(changed, sub.dir+"/")
}

// liveReloadScript is the browser half of live reload for a page showing dir.
func liveReloadScript(dir string, tree bool) string {
	q := url.Values{"dir": {dir}}
	if tree {
		q.Set("tree", "1")
	}
	// json.Marshal escapes <, > and &, so the URL cannot end the script element.
	src, _ := json.Marshal(liveEventsPath + "?" + q.Encode())
	return fmt.Sprintf("\n<script>new EventSource(%s).addEventListener(%q, function () { location.reload(); });</script>\n",
		src, dirsChangedEvent)
}

// dirsChanged is the payload of a dirsChanged event. Dirs are slash separated
// and relative to the serve root, "" being the root itself. Each subscriber
// only receives the dirs it covers.
type dirsChanged struct {
	Dirs []string `json:"dirs"`
	TS   string   `json:"ts"`
}

type liveClient struct {
	sub subscription
	// One slot: a queued reload already covers any later change.
	pending chan []byte
	done    chan struct{}
	once    sync.Once
}

func (c *liveClient) close() {
	c.once.Do(func() { close(c.done) })
}

// sseHub streams dirsChanged events to open pages, each filtered to the
// directories that page shows.
type sseHub struct {
	mu      sync.Mutex
	clients map[*liveClient]struct{}
	seq     uint64
}

func newSSEHub() *sseHub {
	return &sseHub{clients: make(map[*liveClient]struct{})}
}

func (h *sseHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	client := &liveClient{
		sub:     parseSubscription(r.URL.Query()),
		pending: make(chan []byte, 1),
		done:    make(chan struct{}),
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("X-Accel-Buffering", "no")
	fmt.Fprintf(w, "retry: %d\n: subscribed dir=%q tree=%t\n\n",
		reconnectDelay.Milliseconds(), client.sub.dir, client.sub.tree)
	if err := rc.Flush(); err != nil {
		return
	}

	h.add(client)
	defer h.remove(client)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		var msg []byte
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case <-keepAlive.C:
			msg = []byte(": ping\n\n")
		case msg = <-client.pending:
		}
		if _, err := w.Write(msg); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func (h *sseHub) add(c *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *sseHub) remove(c *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	c.close()
}

func (h *sseHub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll ends every open event stream.
func (h *sseHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}

// publish tells every subscriber covering one of dirs to reload and returns
// how many were notified.
func (h *sseHub) publish(dirs []string, at time.Time) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	ts := at.UTC().Format(time.RFC3339Nano)
	notified := 0
	for c := range h.clients {
		relevant := lo.Filter(dirs, func(d string, _ int) bool { return c.sub.covers(d) })
		if len(relevant) == 0 {
			continue
		}
		data, err := json.Marshal(dirsChanged{Dirs: relevant, TS: ts})
		if err != nil {
			return notified, err
		}
		select {
		case c.pending <- fmt.Appendf(nil, "id: %d\nevent: %s\ndata: %s\n\n", h.seq, dirsChangedEvent, data):
		default:
		}
		notified++
	}
	return notified, nil
}

// directoryWatcher watches the serve root recursively and reports, debounced,
// which listings went stale.
type directoryWatcher struct {
	watcher *fsnotify.Watcher
	root    string
	hub     *sseHub
	logger  *zap.Logger

	// watched is only touched by Start and then by the loop goroutine.
	watched map[string]struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	once    sync.Once
}

func newDirectoryWatcher(root string, hub *sseHub, logger *zap.Logger) (*directoryWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &directoryWatcher{
		watcher: w,
		root:    filepath.Clean(root),
		hub:     hub,
		logger:  logger,
		watched: make(map[string]struct{}),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

func (dw *directoryWatcher) Start() error {
	if err := dw.addTree(dw.root); err != nil {
		_ = dw.watcher.Close()
		return err
	}
	dw.logger.Debug("watching", zap.String("root", dw.root), zap.Int("dirs", len(dw.watched)))
	go dw.loop()
	return nil
}

func (dw *directoryWatcher) Stop() {
	dw.once.Do(func() {
		close(dw.stopCh)
		_ = dw.watcher.Close()
	})
	<-dw.doneCh
}

func (dw *directoryWatcher) loop() {
	defer close(dw.doneCh)

	pending := map[string]struct{}{}
	timer := time.NewTimer(changeDebounce)
	timer.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		dirs := lo.Keys(pending)
		slices.Sort(dirs)
		clear(pending)
		notified, err := dw.hub.publish(dirs, time.Now())
		if err != nil {
			dw.logger.Warn("publish failed", zap.Error(err))
			return
		}
		dw.logger.Debug("dirs changed", zap.Strings("dirs", dirs), zap.Int("notified", notified))
	}

	for {
		select {
		case <-dw.stopCh:
			timer.Stop()
			flush()
			return
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				flush()
				return
			}
			dw.logger.Warn("watch error", zap.Error(err))
		case ev, ok := <-dw.watcher.Events:
			if !ok {
				flush()
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) &&
				!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Write) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
					_ = dw.addTree(ev.Name)
				}
			}
			rel, ok := dw.listingFor(ev.Name)
			if !ok {
				continue
			}
			pending[rel] = struct{}{}
			timer.Reset(changeDebounce)
		case <-timer.C:
			flush()
		}
	}
}

// listingFor maps a changed path to the listing that shows it, relative to
// the root. ok is false for paths outside the root or under an ignored
// directory.
func (dw *directoryWatcher) listingFor(changed string) (string, bool) {
	rel, err := filepath.Rel(dw.root, filepath.Dir(filepath.Clean(changed)))
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "", true
	}
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	for _, part := range strings.Split(rel, "/") {
		if _, ignored := ignoredWatchDirs[part]; ignored {
			return "", false
		}
	}
	return rel, true
}

// addTree watches dir and every directory below it. Only a failure on dir
// itself is reported.
func (dw *directoryWatcher) addTree(dir string) error {
	dir = filepath.Clean(dir)
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if p != dw.root {
			if _, ignored := ignoredWatchDirs[d.Name()]; ignored {
				return filepath.SkipDir
			}
		}
		if _, ok := dw.watched[p]; ok {
			return nil
		}
		if err := dw.watcher.Add(p); err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		dw.watched[p] = struct{}{}
		return nil
	})
}
