// Command p2pdump decodes peer-to-peer message streams from capture files or
// live TCP peers and prints one line per message.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

// flags shared by every subcommand. Flags that were set explicitly win over
// the config file.
type rootFlags struct {
	configPath  string
	network     string
	chunkSize   int
	addr        string
	metricsAddr string
	logLevel    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "p2pdump",
		Short:         "Decode peer-to-peer message streams",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to a TOML config file")
	pf.StringVar(&flags.network, "network", "", "network magic: mainnet, testnet3, regtest, signet")
	pf.IntVar(&flags.chunkSize, "chunk-size", 0, "bytes pushed into the decoder per read")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(
		decodeCmd(flags),
		listenCmd(flags),
		versionCmd(),
	)
	return rootCmd
}

// resolve loads the config file and applies explicitly set flags.
func (f *rootFlags) resolve(cmd *cobra.Command) (config, error) {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return config{}, err
	}

	changed := cmd.Flags().Changed
	if changed("network") {
		cfg.Network = f.network
	}
	if changed("chunk-size") {
		cfg.ChunkSize = f.chunkSize
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("addr") {
		cfg.Addr = f.addr
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = f.metricsAddr
	}

	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config, w io.Writer) *slog.Logger {
	lvl, _ := cfg.level()
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "p2pdump %s (%s)\n", version, commit)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
		},
	}
}
