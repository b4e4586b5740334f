package cli

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	cliErrors "github.com/ariel-frischer/pactverify/internal/errors"
	"github.com/ariel-frischer/pactverify/internal/health"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, provider and contract source",
		Long: `Check everything a verification run depends on: the configuration loads,
the provider and its provider-state endpoint answer, and the contract source
resolves. The provider's git revision is shown for information.`,
		Example: `  pactverify doctor
  pactverify doctor --config ci/pactverify.yml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgErr := loadConfig(cmd)
			timeout, _ := cmd.Flags().GetDuration("timeout")

			report := health.RunHealthChecks(cmd.Context(), cfg, cfgErr, health.Options{
				Client: &http.Client{Timeout: timeout},
			})
			fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))
			if !report.Passed {
				return cliErrors.NewPrerequisiteError("one or more checks failed",
					"Fix the failing checks above, then run 'pactverify doctor' again")
			}
			return nil
		},
	}
	cmd.GroupID = GroupGettingStarted
	cmd.Flags().Duration("timeout", 5*time.Second, "Timeout for each network check")
	return cmd
}
