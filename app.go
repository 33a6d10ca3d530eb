package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

const shutdownTimeout = 3 * time.Second

// App ties the share server to the terminal: banner, browser, metrics and
// shutdown on signal.
type App struct {
	cfg    Config
	logger *zap.Logger
	out    io.Writer

	// Swapped out in tests.
	openBrowser func(url string) error
	termWidth   func() int
}

func NewApp(cfg Config, logger *zap.Logger, out io.Writer) *App {
	return &App{
		cfg:         cfg,
		logger:      logger,
		out:         out,
		openBrowser: openBrowser,
		termWidth:   func() int { return terminalWidth(os.Stdout) },
	}
}

// Run serves until ctx is cancelled, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	metrics := newServerMetrics(nil)
	var metricsSrv *http.Server
	if a.cfg.MetricsAddr != "" {
		srv, err := startMetricsServer(a.cfg.MetricsAddr, metrics, a.logger.Named("metrics"))
		if err != nil {
			return fmt.Errorf("metrics listener: %w", err)
		}
		metricsSrv = srv
	}

	server, err := NewShareServer(a.cfg.Dir, ServerOptions{
		Host:     a.cfg.Host,
		Port:     a.cfg.Port,
		Live:     a.cfg.Live,
		Location: a.cfg.location,
		Logger:   a.logger,
		Metrics:  metrics,
	})
	if err != nil {
		return err
	}

	info, err := server.Start()
	if err != nil {
		if metricsSrv != nil {
			_ = metricsSrv.Close()
		}
		return err
	}

	a.announce(info)

	if !a.cfg.NoBrowser {
		if err := a.openBrowser(info.URL); err != nil {
			a.logger.Warn("could not open browser", zap.Error(err))
		}
	}

	<-ctx.Done()
	a.logger.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = server.Stop(stopCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(stopCtx)
	}
	return err
}

func (a *App) announce(info *ServerInfo) {
	title := color.New(color.FgCyan, color.Bold)
	_, _ = title.Fprintln(a.out, "Live Server")
	fmt.Fprintf(a.out, "Started at %s\n\n", color.GreenString(info.URL))
	printBanner(a.out, info.URL, info.SharedFolder, a.termWidth(), a.logger)
}
