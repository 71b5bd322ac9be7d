package cli

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/getmockd/pesh/pkg/cliconfig"
)

var (
	initForce       bool
	initOutput      string
	initInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter config file",
	Long: `Create a starter pesh configuration file.

By default the file holds the built-in defaults. With -i the values are asked
for interactively.`,
	Example: `  # Create .peshrc.yaml in the current directory
  pesh init

  # Interactive setup
  pesh init -i

  # Write the global config instead
  pesh init -o ~/.config/pesh/config.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(initOutput); err == nil && !initForce {
			return errors.Newf("file already exists: %s\n\nUse --force to overwrite", initOutput)
		}

		cfg := cliconfig.NewDefault()
		if initInteractive {
			if err := runInitForm(cfg); err != nil {
				return err
			}
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		if err := cliconfig.WriteConfigFile(initOutput, cfg); err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Created %s\n\n", initOutput)
		fmt.Fprintln(w, "Next steps:")
		if initOutput == cliconfig.LocalConfigFileNames[0] {
			fmt.Fprintln(w, "  pesh")
		} else {
			fmt.Fprintf(w, "  pesh --config %s\n", initOutput)
		}
		fmt.Fprintf(w, "  curl http://%s/metrics\n", cfg.Address)
		return nil
	},
}

// runInitForm asks for the settings of cfg. It is a variable so tests can
// replace the terminal form.
var runInitForm = func(cfg *cliconfig.CLIConfig) error {
	refreshStr := cfg.Refresh.String()
	keepHistory := !cfg.NoHistory

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Which address should the scrape endpoint listen on?").
				Placeholder(cliconfig.DefaultAddress).
				Value(&cfg.Address).
				Validate(func(s string) error {
					if _, _, err := net.SplitHostPort(s); err != nil {
						return errors.New("address must be host:port")
					}
					return nil
				}),
			huh.NewInput().
				Title("How often should the exposed snapshot refresh?").
				Value(&refreshStr).
				Validate(func(s string) error {
					d, err := time.ParseDuration(s)
					if err != nil || d <= 0 {
						return errors.New("refresh must be a positive duration such as 1s")
					}
					return nil
				}),
			huh.NewInput().
				Title("Graphite/Carbon address to push to (optional)").
				Placeholder("localhost:2003").
				Value(&cfg.Graphite),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("debug", "debug"),
					huh.NewOption("info", "info"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&cfg.LogLevel),
			huh.NewSelect[string]().
				Title("Log format").
				Options(
					huh.NewOption("text", "text"),
					huh.NewOption("json", "json"),
				).
				Value(&cfg.LogFormat),
			huh.NewConfirm().
				Title("Keep command history between sessions?").
				Value(&keepHistory),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	d, err := time.ParseDuration(refreshStr)
	if err != nil {
		return errors.Wrap(err, "invalid refresh")
	}
	cfg.Refresh = d
	cfg.NoHistory = !keepHistory
	return nil
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config file")
	initCmd.Flags().StringVarP(&initOutput, "output", "o", cliconfig.LocalConfigFileNames[0], "Output filename")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Interactive mode - prompts for configuration")
	rootCmd.AddCommand(initCmd)
}
