package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Config is everything the command line controls. There is no config file.
type Config struct {
	Dir         string
	Host        string
	Port        int
	NoBrowser   bool
	Live        bool
	TimeZone    string
	MetricsAddr string
	Log         LogConfig

	// Filled by validate.
	location *time.Location
}

func defaultConfig() Config {
	return Config{
		Dir: ".",
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
		},
	}
}

func (c *Config) bindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Dir, "dir", "d", c.Dir, "directory to serve")
	fs.StringVar(&c.Host, "host", c.Host, "address to bind and advertise (default: detected LAN address)")
	fs.IntVarP(&c.Port, "port", "p", c.Port, "port to listen on (0 picks a free one)")
	fs.BoolVar(&c.NoBrowser, "no-browser", c.NoBrowser, "do not open a browser on start")
	fs.BoolVar(&c.Live, "live", c.Live, "reload listings when the directory changes")
	fs.StringVar(&c.TimeZone, "tz", c.TimeZone, "IANA time zone for modification times (default: local)")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "serve Prometheus metrics on this address, e.g. 127.0.0.1:9090")
	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "log level: debug, info, warn, error")
	fs.StringVar(&c.Log.Format, "log-format", c.Log.Format, "log format: console or json")
	fs.StringVar(&c.Log.OutputPath, "log-file", c.Log.OutputPath, "log destination: stderr, stdout or a file path")
}

func (c *Config) validate() error {
	dir := strings.TrimSpace(c.Dir)
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", dir, err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("serve directory: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("serve directory: %s is not a directory", abs)
	}
	c.Dir = abs

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}

	c.location = time.Local
	if tz := strings.TrimSpace(c.TimeZone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("time zone %q: %w", tz, err)
		}
		c.location = loc
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.New("log format must be console or json")
	}
	return nil
}
