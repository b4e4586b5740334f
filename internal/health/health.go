// Package health provides the checks behind 'pactverify doctor' and returns
// structured reports of what would stop a verification run.
package health

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fatih/color"

	"github.com/ariel-frischer/pactverify/internal/config"
	"github.com/ariel-frischer/pactverify/internal/contract"
	"github.com/ariel-frischer/pactverify/internal/git"
	"github.com/ariel-frischer/pactverify/internal/pact"
	"github.com/ariel-frischer/pactverify/internal/replay"
	"github.com/ariel-frischer/pactverify/internal/verifier"
)

// Check names.
const (
	CheckConfiguration   = "Configuration"
	CheckVerifier        = "Verifier settings"
	CheckProvider        = "Provider"
	CheckProviderStates  = "Provider states"
	CheckContractSource  = "Contract source"
	CheckProviderVersion = "Provider version"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
	// Info marks checks that never fail the report.
	Info bool
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks []CheckResult
	Passed bool
}

func (r *HealthReport) add(c CheckResult) {
	r.Checks = append(r.Checks, c)
	if !c.Passed && !c.Info {
		r.Passed = false
	}
}

// Options tunes RunHealthChecks.
type Options struct {
	// Client is used for every HTTP probe (default: contract.DefaultTimeout client).
	Client *http.Client
	// RepoPath is where the provider's git repository is looked up (default: cwd).
	RepoPath string
}

// RunHealthChecks runs all health checks and returns a report. cfgErr is the
// error from loading cfg; later checks are skipped when an earlier one they
// depend on fails.
func RunHealthChecks(ctx context.Context, cfg *config.Configuration, cfgErr error, opts Options) *HealthReport {
	report := &HealthReport{Passed: true}

	if cfgErr != nil {
		report.add(CheckResult{Name: CheckConfiguration, Message: cfgErr.Error()})
		return report
	}
	report.add(CheckResult{Name: CheckConfiguration, Passed: true, Message: "loaded"})

	stage, err := cfg.Stage(nil)
	if err != nil {
		report.add(CheckResult{Name: CheckVerifier, Message: err.Error()})
		return report
	}
	req := stage.Request()
	report.add(CheckResult{
		Name:    CheckVerifier,
		Passed:  true,
		Message: fmt.Sprintf("%s honours %s", req.ProviderName, req.ConsumerName),
	})

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: contract.DefaultTimeout}
	}

	report.add(checkEndpoint(ctx, client, CheckProvider, req.ProviderBaseURL))
	if req.ProviderStateURL != nil {
		report.add(checkEndpoint(ctx, client, CheckProviderStates, req.ProviderStateURL))
	}
	report.add(CheckContracts(ctx, contract.NewResolver(client), req))
	report.add(CheckVersion(opts.RepoPath))

	return report
}

func checkEndpoint(ctx context.Context, client *http.Client, name string, target *url.URL) CheckResult {
	if err := replay.CheckProvider(ctx, client, target); err != nil {
		return CheckResult{Name: name, Message: err.Error()}
	}
	return CheckResult{Name: name, Passed: true, Message: target.Redacted() + " is reachable"}
}

// ContractResolver resolves a contract source. *contract.Resolver satisfies it.
type ContractResolver interface {
	Resolve(ctx context.Context, source verifier.ContractSource, provider, consumer string) ([]*pact.Contract, error)
}

// CheckContracts resolves the configured source and counts its interactions.
func CheckContracts(ctx context.Context, r ContractResolver, req verifier.Request) CheckResult {
	contracts, err := r.Resolve(ctx, req.Source, req.ProviderName, req.ConsumerName)
	if err != nil {
		return CheckResult{Name: CheckContractSource, Message: err.Error()}
	}
	interactions := 0
	for _, c := range contracts {
		interactions += len(c.Interactions)
	}
	return CheckResult{
		Name:    CheckContractSource,
		Passed:  true,
		Message: fmt.Sprintf("%s: %d contract(s), %d interaction(s)", req.Source.Describe(), len(contracts), interactions),
	}
}

// CheckVersion reports the provider revision history entries will record.
// It is informational and never fails the report.
func CheckVersion(repoPath string) CheckResult {
	v, err := git.DetectVersion(repoPath)
	if err != nil {
		return CheckResult{Name: CheckProviderVersion, Info: true, Message: err.Error()}
	}
	msg := v.Short()
	if v.Branch != "" {
		msg += " on " + v.Branch
	}
	return CheckResult{Name: CheckProviderVersion, Passed: true, Info: true, Message: msg}
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	var sb strings.Builder
	for _, check := range report.Checks {
		var mark string
		switch {
		case check.Passed:
			mark = green("✓")
		case check.Info:
			mark = yellow("-")
		default:
			mark = red("✗")
		}
		fmt.Fprintf(&sb, "%s %s: %s\n", mark, check.Name, check.Message)
	}
	return sb.String()
}
