// Package cli implements the docdbctl command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	docdb_go "docdb-go"
	"docdb-go/docnet"
	"docdb-go/docp"
	"docdb-go/internal/config"
	"docdb-go/internal/logging"
	"docdb-go/internal/output"
)

var (
	// Global flags
	cfgFile      string
	flagHost     string
	outputFormat string
	flagTimeout  time.Duration
	verbose      bool

	// Shared state set during PersistentPreRun
	cfg       *config.Config
	formatter output.Formatter
	log       *zap.Logger

	// dialer is a seam for tests; nil means the real network.
	dialer docnet.DialFunc
)

var rootCmd = &cobra.Command{
	Use:   "docdbctl",
	Short: "Command-line client for the document server",
	Long: `Docdbctl talks to a running document server over its line-delimited JSON
protocol: insert, query, update, and delete documents, count collections,
and trigger snapshots. The server's port is fixed by the protocol; pick the
host with --host or the config file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		// Flags win over the config file.
		if flagHost != "" {
			cfg.Host = flagHost
		}
		if outputFormat != "" {
			cfg.OutputFormat = outputFormat
		}
		if verbose {
			cfg.LogLevel = "debug"
		}

		log, err = logging.New(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			return err
		}
		formatter = output.NewFormatter(cfg.OutputFormat)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// RootCmd returns the root cobra.Command for testing purposes.
func RootCmd() *cobra.Command {
	return rootCmd
}

// SetDialer reroutes every connection the CLI makes. Tests point it at an
// in-process server; the fixed protocol port never binds there.
func SetDialer(d docnet.DialFunc) {
	dialer = d
}

// withClient dials the configured server, runs fn, and closes the
// connection politely afterwards.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, cli *docdb_go.Client) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	opts := []docnet.Option{docnet.WithLogger(log)}
	if dialer != nil {
		opts = append(opts, docnet.WithDialer(dialer))
	}
	cli, err := docdb_go.Dial(ctx, cfg.Host, opts...)
	if err != nil {
		return err
	}
	defer cli.Close(ctx)

	return fn(ctx, cli)
}

// parseDoc decodes a document argument given as inline JSON.
func parseDoc(arg string) (docp.Document, error) {
	var doc docp.Document
	if err := json.Unmarshal([]byte(arg), &doc); err != nil {
		return nil, fmt.Errorf("invalid document JSON %q: %w", arg, err)
	}
	return doc, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.docdb/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "document server host (the port is fixed)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: table, json, yaml (default \"table\")")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 10*time.Second, "per-command timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
