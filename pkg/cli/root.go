package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/pesh/pkg/cliconfig"
	"github.com/getmockd/pesh/pkg/interp"
)

var (
	// Root flags, merged over the file and environment layers when set
	configFile  string
	address     string
	logLevel    string
	logFormat   string
	logFile     string
	logSource   bool
	historyFile string
	noHistory   bool
	refresh     time.Duration
	graphite    string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd runs the interactive shell.
var rootCmd = &cobra.Command{
	Use:   "pesh",
	Short: "pesh is an interactive shell for Prometheus gauges",
	Long: `pesh lets you create, update, read and delete labelled Prometheus gauges
from a command line while a scrape endpoint exposes them.

Configuration can be provided via flags, environment variables (PESH_*), a local
.peshrc.yaml or the global ~/.config/pesh/config.yaml.

` + interp.HelpText(),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		return Run(cmd.Context(), cfg, Streams{
			In:  cmd.InOrStdin(),
			Out: cmd.OutOrStdout(),
			Err: cmd.ErrOrStderr(),
		})
	},
}

// Execute runs the root command and exits with status 1 on error.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&address, "address", "a", cliconfig.DefaultAddress, "Scrape endpoint address (host:port)")
	f.DurationVar(&refresh, "refresh", cliconfig.DefaultRefresh, "Interval between exposition snapshots")
	f.StringVar(&graphite, "graphite", "", "Also push metrics to this Graphite/Carbon host:port")
	f.StringVar(&logLevel, "log-level", cliconfig.DefaultLogLevel, "Log level (debug, info, warn, error)")
	f.StringVar(&logFormat, "log-format", cliconfig.DefaultLogFormat, "Log format (text, json)")
	f.StringVar(&logFile, "log-file", "", "Also write JSON logs to this file")
	f.BoolVar(&logSource, "log-source", false, "Add the source file and line to log records")
	f.StringVar(&historyFile, "history-file", "", "History file (default: <user cache dir>/pesh/history)")
	f.BoolVar(&noHistory, "no-history", false, "Do not load or save history")

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: .peshrc.yaml, then ~/.config/pesh/config.yaml)")
}

// resolveConfig layers the flags the user set over the loaded configuration
// and validates the result.
func resolveConfig(cmd *cobra.Command) (*cliconfig.CLIConfig, error) {
	cfg, err := cliconfig.LoadAll(configFile)
	if err != nil {
		return nil, err
	}

	flags := &cliconfig.CLIConfig{SetFields: make(map[string]bool)}
	set := func(name, key string, apply func()) {
		if cmd.Flags().Changed(name) {
			apply()
			flags.SetFields[key] = true
		}
	}
	set("address", "address", func() { flags.Address = address })
	set("refresh", "refresh", func() { flags.Refresh = refresh })
	set("graphite", "graphite", func() { flags.Graphite = graphite })
	set("log-level", "logLevel", func() { flags.LogLevel = logLevel })
	set("log-format", "logFormat", func() { flags.LogFormat = logFormat })
	set("log-file", "logFile", func() { flags.LogFile = logFile })
	set("log-source", "logSource", func() { flags.LogSource = logSource })
	set("history-file", "historyFile", func() { flags.HistoryFile = historyFile })
	set("no-history", "noHistory", func() { flags.NoHistory = noHistory })
	cliconfig.MergeConfig(cfg, flags, cliconfig.SourceFlag)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Streams are the standard streams of a run.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}
