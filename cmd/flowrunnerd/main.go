// Command flowrunnerd is the daemon: it serves the TaskRunner RPC
// surface (pkg/rpcapi) over a local queue-list (internal/queuelist).
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuemby/flowrunner/internal/queuelist"
	"github.com/cuemby/flowrunner/pkg/fcfg"
	"github.com/cuemby/flowrunner/pkg/flowlog"
	"github.com/cuemby/flowrunner/pkg/rpcapi"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "flowrunnerd",
	Short:   "flowrunnerd runs multiple named task queues and serves them over gRPC",
	Version: Version,
	RunE:    run,
}

func init() {
	fcfg.BindFlags(rootCmd)
	rootCmd.SetVersionTemplate(fmt.Sprintf("flowrunnerd version %s\nCommit: %s\n", Version, Commit))
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := fcfg.FromFlags(cmd)
	if err != nil {
		return err
	}

	flowlog.Init(flowlog.Config{Level: cfg.LogLevel, JSONOutput: cfg.LogJSON})
	log := flowlog.WithComponent("flowrunnerd")

	mgr, err := queuelist.Open(cfg.DataDir, cfg.SupervisorConfig())
	if err != nil {
		return fmt.Errorf("open queue-list: %w", err)
	}
	defer mgr.Close()

	srv := rpcapi.NewServer(mgr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutting down")
		srv.Stop()
	}()

	log.Info().Str("data_dir", cfg.DataDir).Str("addr", cfg.ListenAddr).Msg("starting flowrunnerd")
	if err := srv.Start(cfg.ListenAddr); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
