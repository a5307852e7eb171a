package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/telhawk-systems/telhawk-fim/common/httputil"
	"github.com/telhawk-systems/telhawk-fim/common/logging"
	"github.com/telhawk-systems/telhawk-fim/internal/bus"
	"github.com/telhawk-systems/telhawk-fim/internal/chainlog"
	"github.com/telhawk-systems/telhawk-fim/internal/config"
	"github.com/telhawk-systems/telhawk-fim/internal/monitor"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "fim-agent",
	Short: "TelHawk file integrity monitoring agent",
	Long: `fim-agent watches a directory tree for unauthorized changes,
records every create/modify/delete in a hash-chained tamper-evident log,
and optionally forwards events to a remote collector.`,
	Version: "0.1.0",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the monitoring agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cfg.ValidateAgent(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger := logging.New(
			logging.ParseLevel(cfg.Logging.Level),
			cfg.Logging.Format,
		).With(logging.Component("fim-agent"))
		logging.SetDefault(logger)

		slog.Info("starting FIM agent",
			slog.String("root", cfg.Monitor.RootDirectory),
			slog.String("log_path", cfg.Monitor.LogPath),
			slog.String("poll_interval", cfg.Monitor.PollInterval.String()),
			slog.Bool("exclude_hidden", cfg.Monitor.ExcludeHidden),
			slog.Bool("collector_enabled", cfg.Collector.Enabled),
			slog.Bool("bus_enabled", cfg.Bus.Enabled),
		)

		var pub bus.Publisher
		if cfg.Bus.Enabled {
			p, err := bus.Connect(cfg.Bus.URL, "fim-agent-"+cfg.Labels.Host)
			if err != nil {
				return fmt.Errorf("connect bus: %w", err)
			}
			defer p.Close()
			pub = p
		}

		mon := monitor.New(cfg, pub, logger.Logger)
		startStatusServer(cfg.Server.MetricsAddr, mon)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := mon.Run(ctx); err != nil {
			return fmt.Errorf("monitor stopped: %w", err)
		}
		slog.Info("agent stopped")
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-verify the event log's hash chain end to end",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		n, err := chainlog.Verify(cfg.Monitor.LogPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "chain broken after %d valid record(s): %v\n", n, err)
			return err
		}
		fmt.Printf("chain intact: %d record(s) verified\n", n)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := cmd.Flags().GetString("output")
		if err != nil {
			return err
		}

		raw, err := yaml.Marshal(config.Default())
		if err != nil {
			return fmt.Errorf("render config: %w", err)
		}
		if err := os.WriteFile(out, raw, 0o600); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("wrote default config to %s\n", out)
		return nil
	},
}

// startStatusServer exposes /healthz and /metrics on a side listener. The
// agent's real work never depends on it; listener errors only get logged.
func startStatusServer(addr string, mon *monitor.Monitor) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"state":  string(mon.State()),
		})
	})

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Warn("status server stopped", "addr", addr, "error", err)
		}
	}()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./fim.yaml)")
	configInitCmd.Flags().String("output", "fim.yaml", "where to write the config file")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(runCmd, verifyCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
