package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Bind attempts before startup gives up; each retry uses a freshly picked port.
const maxBindAttempts = 16

// ServerOptions are fixed before the listener starts and never change afterwards.
type ServerOptions struct {
	// Host is the address to bind and advertise. Empty means auto-detect.
	Host string
	// Port to try first. Zero picks a free one.
	Port     int
	Live     bool
	Location *time.Location
	Logger   *zap.Logger
	Metrics  *serverMetrics
}

type ShareServer struct {
	root     string
	opts     ServerOptions
	logger   *zap.Logger
	metrics  *serverMetrics
	pages    *pageTemplates
	location *time.Location

	mu       sync.Mutex
	localIP  string
	port     int
	server   *http.Server
	listener net.Listener

	events  *sseHub
	watcher *directoryWatcher
}

func NewShareServer(root string, opts ServerOptions) (*ShareServer, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("serve directory is empty")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", absRoot)
	}

	pages, err := parsePageTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = newServerMetrics(nil)
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	s := &ShareServer{
		root:     filepath.Clean(absRoot),
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
		pages:    pages,
		location: loc,
	}
	if opts.Live {
		s.events = newSSEHub()
	}
	return s, nil
}

// Root is the absolute directory this server exposes.
func (s *ShareServer) Root() string { return s.root }

func (s *ShareServer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server != nil
}

func (s *ShareServer) ServerInfo() *ServerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil
	}
	return s.infoLocked()
}

func (s *ShareServer) infoLocked() *ServerInfo {
	return &ServerInfo{
		URL:          "http://" + net.JoinHostPort(s.localIP, strconv.Itoa(s.port)),
		Port:         s.port,
		LocalIP:      s.localIP,
		SharedFolder: s.root,
	}
}

// Handler is the full request pipeline: request logging, metrics, routes.
func (s *ShareServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return requestLogger(s.logger, s.metrics.Middleware(mux))
}

// Start resolves the advertised address, binds and begins serving in the
// background. Calling it on a running server returns the current info.
func (s *ShareServer) Start() (*ServerInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return s.infoLocked(), nil
	}

	ip := strings.TrimSpace(s.opts.Host)
	if ip == "" {
		ip = getLocalIP()
	}
	ln, ip, port, err := listenWithRetry(ip, s.opts.Port, s.logger)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          zap.NewStdLog(s.logger.Named("http")),
	}

	s.localIP = ip
	s.port = port
	s.listener = ln
	s.server = srv

	if s.opts.Live {
		s.startWatcher()
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped", zap.Error(err))
		}
	}()

	info := s.infoLocked()
	s.logger.Info("server started",
		zap.String("url", info.URL),
		zap.String("root", s.root),
		zap.Bool("live", s.opts.Live),
	)
	return info, nil
}

func (s *ShareServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked(ctx)
}

func (s *ShareServer) stopLocked(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.stopWatcher()
	if s.events != nil {
		s.events.CloseAll()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err := s.server.Shutdown(shutdownCtx)
	_ = s.listener.Close()

	s.server = nil
	s.listener = nil
	s.port = 0
	s.localIP = ""

	s.logger.Info("server stopped")
	return err
}

func (s *ShareServer) registerRoutes(mux *http.ServeMux) {
	if s.events != nil {
		mux.Handle("GET "+liveEventsPath, s.events)
	}
	mux.HandleFunc("GET /{path...}", s.handlePath)
}

// listenWithRetry binds ip:port, picking a new free port after every failure.
// An address that cannot be bound at all falls back to the wildcard address.
func listenWithRetry(ip string, port int, logger *zap.Logger) (net.Listener, string, int, error) {
	var err error
	if port == 0 {
		if port, err = getAvailablePort(); err != nil {
			return nil, "", 0, err
		}
	}
	for attempt := 1; ; attempt++ {
		ln, listenErr := net.Listen("tcp", net.JoinHostPort(ip, strconv.Itoa(port)))
		if listenErr == nil {
			return ln, ip, port, nil
		}
		if attempt >= maxBindAttempts {
			return nil, "", 0, fmt.Errorf("bind %s after %d attempts: %w", ip, attempt, listenErr)
		}

		if classifyError(listenErr) == KindAddrNotAvailable && ip != wildcardIPv4 {
			logger.Warn("address not available, falling back to wildcard",
				zap.String("ip", ip), zap.Error(listenErr))
			ip = wildcardIPv4
		}
		next, pickErr := getAvailablePort()
		if pickErr != nil {
			return nil, "", 0, pickErr
		}
		logger.Warn("bind failed, retrying",
			zap.Int("port", port),
			zap.Int("next_port", next),
			zap.Int("attempt", attempt),
			zap.Error(listenErr),
		)
		port = next
	}
}

// safeJoin resolves a client path against root and reports whether the
// result stays inside it.
func safeJoin(root string, subPath string) (string, bool) {
	root = normalizeRoot(root)
	full := filepath.Clean(filepath.Join(root, filepath.FromSlash(subPath)))
	if !within(root, full) {
		return "", false
	}
	return full, true
}

func normalizeRoot(root string) string {
	root = filepath.Clean(root)
	if runtime.GOOS == "windows" {
		// Clean("D:") can come back as "D:", "D:." or "D:\.", all meaning the volume root.
		vol := filepath.VolumeName(root)
		if vol != "" {
			if strings.EqualFold(root, vol) || strings.EqualFold(root, vol+".") || strings.EqualFold(root, vol+string(os.PathSeparator)+".") {
				root = vol + string(os.PathSeparator)
			}
		}
	}
	return root
}

// within reports whether p is root itself or below it.
func within(root, p string) bool {
	root = normalizeRoot(root)
	p = filepath.Clean(p)

	prefix := root
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	if runtime.GOOS == "windows" {
		return strings.EqualFold(p, root) || strings.HasPrefix(strings.ToLower(p), strings.ToLower(prefix))
	}
	return p == root || strings.HasPrefix(p, prefix)
}

// relPath is p relative to the serve root in slash form ("" for the root).
func (s *ShareServer) relPath(p string) (string, bool) {
	if !within(s.root, p) {
		return "", false
	}
	rel, err := filepath.Rel(s.root, p)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "", true
	}
	return rel, true
}
