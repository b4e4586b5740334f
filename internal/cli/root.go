// Package cli implements the pactverify command line.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ariel-frischer/pactverify/internal/config"
	cliErrors "github.com/ariel-frischer/pactverify/internal/errors"
	"github.com/ariel-frischer/pactverify/internal/git"
	"github.com/ariel-frischer/pactverify/internal/logging"
	"github.com/ariel-frischer/pactverify/internal/verifier"
)

// Command group IDs.
const (
	GroupGettingStarted = "getting-started"
	GroupVerification   = "verification"
	GroupConfiguration  = "configuration"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pactverify",
		Short: "Verify that a provider honours its consumer contracts",
		Long: `pactverify replays the interactions recorded in a consumer contract against a
running provider and reports every response that does not match.

Contracts can be read from a file, fetched from a URI or taken from a
contract broker. Settings come from flags, PACTVERIFY_* environment variables,
.pactverify/config.yml and ~/.config/pactverify/config.yml.

Source: https://github.com/ariel-frischer/pactverify`,
		Example: `  # Verify against a local contract
  pactverify verify --provider "Event API" --provider-url http://localhost:8080 \
    --consumer "Event UI" --file pacts/event_ui-event_api.json

  # Use the latest contracts tagged main and prod from a broker
  pactverify verify --broker https://broker.example.com --broker-tag main --broker-tag prod

  # Diagnose configuration and connectivity
  pactverify doctor`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				color.NoColor = true
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				sugar := logging.New(verifier.LogDebug, cmd.ErrOrStderr()).Sugar()
				git.SetDebugLogger(sugar.Debugf)
			}
		},
	}

	cmd.AddGroup(
		&cobra.Group{ID: GroupGettingStarted, Title: "Getting Started:"},
		&cobra.Group{ID: GroupVerification, Title: "Verification:"},
		&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"},
	)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file (default: .pactverify/config.yml)")
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	cmd.AddCommand(
		newVerifyCmd(),
		newDoctorCmd(),
		newHistoryCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command, printing any error in the structured format.
// The returned error maps to a process exit code via ExitCodeFor.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return execute(ctx, rootCmd)
}

func execute(ctx context.Context, cmd *cobra.Command) error {
	err := cmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		cliErrors.FprintError(cmd.ErrOrStderr(), cliErrors.FromVerify(err))
	}
	return err
}

// loadConfig loads configuration honouring the --config flag.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		ProjectConfigPath: path,
		WarningWriter:     cmd.ErrOrStderr(),
	})
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, cliErrors.ConfigFileNotFound(path)
		}
		if path == "" {
			path = config.ProjectConfigPath()
		}
		return nil, cliErrors.ConfigParseError(path, err)
	}
	return cfg, nil
}

// newLogger returns the base logger for engine runs. The configured log level
// narrows it per request.
func newLogger(cmd *cobra.Command) *zap.Logger {
	return logging.New(verifier.LogTrace, cmd.ErrOrStderr())
}
