// Package fcfg resolves flowrunnerd configuration from cobra flags,
// falling back to FLOWRUNNER_*-prefixed environment variables when a
// flag wasn't set explicitly. flowrunnerctl does not use it; it takes
// only its own --addr flag.
package fcfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cuemby/flowrunner/internal/supervisor"
	"github.com/cuemby/flowrunner/pkg/ferr"
	"github.com/cuemby/flowrunner/pkg/flowlog"
	"github.com/spf13/cobra"
)

// Config is the resolved set of tunables: data directory, listen
// address, logging, per-task read-buffer size, per-queue output-window
// capacity, and a per-call RPC deadline. CallTimeout is resolved but
// not read by any command in this module; the remote backend always
// uses remote.DefaultCallTimeout.
type Config struct {
	DataDir        string
	ListenAddr     string
	LogLevel       flowlog.Level
	LogJSON        bool
	ReadBufferSize int
	WindowCapacity int
	CallTimeout    time.Duration
}

// Defaults returns flowrunner's baseline configuration.
func Defaults() Config {
	return Config{
		DataDir:        "./flowrunner-data",
		ListenAddr:     "127.0.0.1:7700",
		LogLevel:       flowlog.InfoLevel,
		LogJSON:        false,
		ReadBufferSize: supervisor.DefaultReadBufferSize,
		WindowCapacity: supervisor.DefaultWindowCapacity,
		CallTimeout:    10 * time.Second,
	}
}

// BindFlags registers flowrunner's persistent flags on cmd, seeded from
// Defaults (overridden by FLOWRUNNER_* env vars where set).
func BindFlags(cmd *cobra.Command) {
	d := Defaults()
	flags := cmd.PersistentFlags()
	flags.String("data-dir", envOr("FLOWRUNNER_DATA_DIR", d.DataDir), "directory holding one bbolt file per queue")
	flags.String("listen", envOr("FLOWRUNNER_LISTEN", d.ListenAddr), "address flowrunnerd listens on")
	flags.String("log-level", envOr("FLOWRUNNER_LOG_LEVEL", string(d.LogLevel)), "log level (debug, info, warn, error)")
	flags.Bool("log-json", envOrBool("FLOWRUNNER_LOG_JSON", d.LogJSON), "output logs as JSON")
	flags.Int("read-buffer-size", envOrInt("FLOWRUNNER_READ_BUFFER_SIZE", d.ReadBufferSize), "bytes read per PTY read() call")
	flags.Int("window-capacity", envOrInt("FLOWRUNNER_WINDOW_CAPACITY", d.WindowCapacity), "chunks retained in a running task's output window")
	flags.Duration("call-timeout", envOrDuration("FLOWRUNNER_CALL_TIMEOUT", d.CallTimeout), "per-RPC deadline against a remote flowrunnerd (resolved into Config but not applied by flowrunnerd)")
}

// FromFlags reads back the flags BindFlags registered.
func FromFlags(cmd *cobra.Command) (Config, error) {
	flags := cmd.PersistentFlags()

	dataDir, err := flags.GetString("data-dir")
	if err != nil {
		return Config{}, fmt.Errorf("%w: data-dir: %v", ferr.ErrInvalidArgument, err)
	}
	listen, err := flags.GetString("listen")
	if err != nil {
		return Config{}, fmt.Errorf("%w: listen: %v", ferr.ErrInvalidArgument, err)
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return Config{}, fmt.Errorf("%w: log-level: %v", ferr.ErrInvalidArgument, err)
	}
	logJSON, err := flags.GetBool("log-json")
	if err != nil {
		return Config{}, fmt.Errorf("%w: log-json: %v", ferr.ErrInvalidArgument, err)
	}
	readBuf, err := flags.GetInt("read-buffer-size")
	if err != nil {
		return Config{}, fmt.Errorf("%w: read-buffer-size: %v", ferr.ErrInvalidArgument, err)
	}
	windowCap, err := flags.GetInt("window-capacity")
	if err != nil {
		return Config{}, fmt.Errorf("%w: window-capacity: %v", ferr.ErrInvalidArgument, err)
	}
	callTimeout, err := flags.GetDuration("call-timeout")
	if err != nil {
		return Config{}, fmt.Errorf("%w: call-timeout: %v", ferr.ErrInvalidArgument, err)
	}

	return Config{
		DataDir:        dataDir,
		ListenAddr:     listen,
		LogLevel:       flowlog.Level(logLevel),
		LogJSON:        logJSON,
		ReadBufferSize: readBuf,
		WindowCapacity: windowCap,
		CallTimeout:    callTimeout,
	}, nil
}

// SupervisorConfig narrows cfg to what internal/supervisor.Config needs.
func (cfg Config) SupervisorConfig() supervisor.Config {
	return supervisor.Config{
		ReadBufferSize: cfg.ReadBufferSize,
		WindowCapacity: cfg.WindowCapacity,
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envOrBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
