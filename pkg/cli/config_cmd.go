package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/getmockd/pesh/pkg/cli/internal/output"
	"github.com/getmockd/pesh/pkg/cliconfig"
)

var configJSON bool

// configEntry is one resolved setting.
type configEntry struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show effective configuration",
	Long: `Show the effective configuration after merging defaults, config files and
PESH_* environment variables, and where each value came from.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cliconfig.LoadAll(configFile)
		if err != nil {
			return err
		}

		entries := configEntries(cfg)
		w := cmd.OutOrStdout()
		if configJSON {
			return output.JSON(w, entries)
		}

		tw := output.Table(w)
		fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Key, e.Value, e.Source)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if err := cfg.Validate(); err != nil {
			output.Warn(cmd.ErrOrStderr(), "%v", err)
		}
		return nil
	},
}

func configEntries(cfg *cliconfig.CLIConfig) []configEntry {
	values := map[string]string{
		"address":     cfg.Address,
		"refresh":     cfg.Refresh.String(),
		"graphite":    cfg.Graphite,
		"logLevel":    cfg.LogLevel,
		"logFormat":   cfg.LogFormat,
		"logFile":     cfg.LogFile,
		"logSource":   fmt.Sprint(cfg.LogSource),
		"historyFile": cfg.HistoryFile,
		"noHistory":   fmt.Sprint(cfg.NoHistory),
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]configEntry, 0, len(keys))
	for _, k := range keys {
		source := cfg.Sources[k]
		if source == "" {
			source = "-"
		}
		entries = append(entries, configEntry{Key: k, Value: values[k], Source: source})
	}
	return entries
}

func init() {
	configCmd.Flags().BoolVar(&configJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(configCmd)
}
