package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"addrview/pkg/config"
	"addrview/pkg/logging"
	"addrview/pkg/models"
	"addrview/pkg/relay"
	"addrview/pkg/rpc"
	"addrview/pkg/tui"

	"github.com/spf13/cobra"
)

// Version should be set during build
var Version = "dev"

const programName = "addrview"

var configFlag string

// loadConfig resolves the config path and loads it, defaults included.
func loadConfig() (config.Config, string, error) {
	path, err := config.GetConfigPath(configFlag)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("determining config path: %w", err)
	}
	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("loading config from %s: %w", path, err)
	}
	return cfg, path, nil
}

func rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          programName + " [address[#tab]]",
		Short:        "Browse an address: summary, transactions, internal transactions and contract source",
		Version:      Version,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			var target string
			switch {
			case len(args) > 0:
				target = args[0]
			case len(cfg.Addresses) > 0:
				target = cfg.Addresses[0].Address
			default:
				return fmt.Errorf("no address given and no bookmarks in %s", path)
			}

			// The terminal belongs to the viewer, so logs only go to the log file.
			logger, closer, err := logging.New(cfg, nil)
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			client := rpc.NewClient(cfg, logger)
			return tui.Start(cmd.Context(), client, cfg, path, target, Version, logger)
		},
	}
	cmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to configuration file")
	cmd.AddCommand(relayCommand(), checkCommand())
	return cmd
}

func relayCommand() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:          "relay",
		Short:        "Serve the summary endpoint from EVM JSON-RPC nodes",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if len(cfg.Relay.RPCURLs) == 0 {
				return fmt.Errorf("relay.rpc_urls is empty")
			}
			if listen == "" {
				listen = cfg.Relay.Listen
			}

			logger, closer, err := logging.New(cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := relay.NewServer(cfg.Relay.RPCURLs, cfg.RequestTimeout(), logger)
			logger.Info().Str("listen", listen).Int("nodes", len(cfg.Relay.RPCURLs)).Msg("starting relay")
			return srv.Start(ctx, listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config)")
	return cmd
}

func checkCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:          "check",
		Short:        "Test configuration and relay nodes, then exit",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath(configFlag)
			if err != nil {
				return fmt.Errorf("determining config path: %w", err)
			}
			report := runCheck(cmd.Context(), path, cmd.OutOrStdout(), asJSON)
			if !report.ValidStructure {
				return fmt.Errorf("configuration at %s is invalid", path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output check results as JSON")
	return cmd
}

// runCheck validates the config at path and probes the relay's nodes,
// writing either progress lines or a JSON report to w.
func runCheck(ctx context.Context, path string, w io.Writer, asJSON bool) models.CheckReport {
	report := models.CheckReport{ConfigPath: path, ValidStructure: true}
	say := func(format string, a ...any) {
		if !asJSON {
			_, _ = fmt.Fprintf(w, format, a...)
		}
	}
	defer func() {
		if asJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			_ = enc.Encode(report)
		}
	}()

	say("Testing configuration at: %s\n", path)
	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		report.ValidStructure = false
		report.StructureErrors = append(report.StructureErrors, err.Error())
		say("Error: %v\n", err)
		return report
	}
	if err := cfg.Validate(); err != nil {
		report.ValidStructure = false
		report.StructureErrors = append(report.StructureErrors, err.Error())
		say("Error: %v\n", err)
	}
	report.AddressCount = len(cfg.Addresses)
	report.BackendURL = cfg.BackendURL
	say("Backend: %s, %d bookmarked addresses.\n", cfg.BackendURL, len(cfg.Addresses))

	if len(cfg.Relay.RPCURLs) == 0 {
		return report
	}
	say("Testing relay nodes:\n")
	result := relay.ProbeChain(ctx, cfg.Relay.RPCURLs)
	for _, r := range result.RPCs {
		if r.Status == "ok" {
			say("  RPC: %s ... OK (ChainID: %d)", r.URL, r.ChainID)
		} else {
			say("  RPC: %s ... Failed", r.URL)
		}
		if r.Error != "" {
			say(" - %s", r.Error)
		}
		say("\n")
	}
	if result.Inconsistent {
		say("\nWARNING: relay nodes return conflicting Chain IDs!\n")
	}
	report.Relay = &result
	return report
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
