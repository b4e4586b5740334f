package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ariel-frischer/pactverify/internal/config"
	cliErrors "github.com/ariel-frischer/pactverify/internal/errors"
	"github.com/ariel-frischer/pactverify/internal/git"
	"github.com/ariel-frischer/pactverify/internal/history"
	"github.com/ariel-frischer/pactverify/internal/logging"
	"github.com/ariel-frischer/pactverify/internal/output"
	"github.com/ariel-frischer/pactverify/internal/progress"
	"github.com/ariel-frischer/pactverify/internal/replay"
	"github.com/ariel-frischer/pactverify/internal/verifier"
	"github.com/ariel-frischer/pactverify/internal/watch"
)

// Source and auth flags. The rest map one to one onto config keys.
const (
	flagFile     = "file"
	flagURI      = "uri"
	flagBroker   = "broker"
	flagTag      = "broker-tag"
	flagToken    = "token"
	flagUser     = "user"
	flagPassword = "password"
	flagWatch    = "watch"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay a consumer contract against the provider",
		Long: `Replay every interaction of a consumer contract against a running provider
and compare the responses.

Flags override configuration. Exactly one of --file, --uri or --broker selects
the contract source. Exit codes: 0 all interactions matched, 1 verification
failed, 3 invalid configuration, 4 contract not found or unavailable,
5 provider unreachable, 6 timeout.`,
		Example: `  pactverify verify --provider "Event API" --provider-url http://localhost:8080 \
    --consumer "Event UI" --file pacts/event_ui-event_api.json

  # Wait up to 30s for the provider, then verify and print JSON
  pactverify verify --wait 30s --output json

  # Re-verify whenever the contract file changes
  pactverify verify --file pacts/event_ui-event_api.json --watch`,
		Args: cobra.NoArgs,
		RunE: runVerify,
	}
	cmd.GroupID = GroupVerification

	f := cmd.Flags()
	f.String("provider", "", "Provider name")
	f.String("provider-url", "", "Provider base URL")
	f.String("consumer", "", "Consumer name")
	f.String(flagFile, "", "Contract file")
	f.String(flagURI, "", "Contract URI")
	f.String(flagBroker, "", "Contract broker base URL")
	f.StringSlice(flagTag, nil, "Consumer version tag to verify (repeatable)")
	f.String(flagToken, "", "Bearer token for --uri or --broker")
	f.String(flagUser, "", "Basic auth user for --uri or --broker")
	f.String(flagPassword, "", "Basic auth password for --uri or --broker")
	f.String("provider-state-url", "", "Endpoint that sets up provider states")
	f.String("filter-description", "", "Only replay interactions whose description matches this regex")
	f.String("filter-state", "", "Only replay interactions whose provider state matches this regex")
	f.String("log-level", "", "Engine log level: trace, debug, info, warn, error, none")
	f.StringP("output", "o", "", "Report format: text or json")
	f.Duration("wait", 0, "Wait up to this long for the provider to come up")
	f.Duration("timeout", 0, "Timeout for the whole run (0 = no timeout)")
	f.Bool(flagWatch, false, "Re-verify whenever the contract file changes")

	return cmd
}

func runVerify(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyVerifyFlags(cmd, cfg); err != nil {
		return err
	}

	watching, _ := cmd.Flags().GetBool(flagWatch)
	if watching && cfg.Source.File == "" {
		return cliErrors.InvalidFlagCombination("--watch", "--watch needs a file source (--file or source.file)")
	}

	engine := replay.NewEngine(replay.WithLogger(newLogger(cmd)))
	stage, err := cfg.Stage(engine)
	if err != nil {
		if cfg.Source.File == "" && cfg.Source.URI == "" && cfg.Broker.URL == "" {
			return cliErrors.MissingContractSource()
		}
		return err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		stage = stage.WithLogLevel(verifier.LogDebug)
	}

	run := &verifyRun{
		cfg:   cfg,
		stage: stage,
		out:   cmd.OutOrStdout(),
		errw:  cmd.ErrOrStderr(),
	}
	if cfg.StateDir != "" {
		run.history = history.NewWriter(cfg.StateDir, cfg.MaxHistoryEntries)
		run.history.Warn = run.errw
	}

	if !watching {
		return run.once(cmd.Context())
	}

	w, err := watch.New(cfg.Source.File, watch.DefaultDebounce)
	if err != nil {
		return err
	}
	w.OnError = func(err error) {
		cliErrors.FprintError(run.errw, cliErrors.FromVerify(err))
	}
	fmt.Fprintf(run.errw, "Watching %s for changes (Ctrl+C to stop)\n", cfg.Source.File)
	return w.Run(cmd.Context(), run.once)
}

// applyVerifyFlags overlays explicitly set flags on cfg and re-validates it.
func applyVerifyFlags(cmd *cobra.Command, cfg *config.Configuration) error {
	f := cmd.Flags()
	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}

	str("provider", &cfg.Provider.Name)
	str("provider-url", &cfg.Provider.BaseURL)
	str("consumer", &cfg.Consumer.Name)
	str("provider-state-url", &cfg.ProviderStateURL)
	str("filter-description", &cfg.Filter.Description)
	str("filter-state", &cfg.Filter.ProviderState)
	str("log-level", &cfg.LogLevel)
	str("output", &cfg.Output)
	if f.Changed("wait") {
		cfg.Wait, _ = f.GetDuration("wait")
	}
	if f.Changed("timeout") {
		cfg.Timeout, _ = f.GetDuration("timeout")
	}

	var sourceFlags []string
	for _, name := range []string{flagFile, flagURI, flagBroker} {
		if f.Changed(name) {
			sourceFlags = append(sourceFlags, "--"+name)
		}
	}
	switch {
	case len(sourceFlags) > 1:
		return cliErrors.InvalidFlagCombination(strings.Join(sourceFlags, " "), "Pass only one of --file, --uri or --broker")
	case len(sourceFlags) == 1:
		// A source flag replaces whatever source the config selected.
		cfg.Source.File, cfg.Source.URI, cfg.Broker.URL = "", "", ""
		str(flagFile, &cfg.Source.File)
		str(flagURI, &cfg.Source.URI)
		str(flagBroker, &cfg.Broker.URL)
	}

	if f.Changed(flagTag) {
		cfg.Broker.Tags, _ = f.GetStringSlice(flagTag)
	}
	if f.Changed(flagToken) || f.Changed(flagUser) || f.Changed(flagPassword) {
		token, _ := f.GetString(flagToken)
		user, _ := f.GetString(flagUser)
		password, _ := f.GetString(flagPassword)
		if cfg.Broker.URL != "" {
			cfg.Broker.Token, cfg.Broker.Username, cfg.Broker.Password = token, user, password
		} else {
			cfg.Source.Token, cfg.Source.Username, cfg.Source.Password = token, user, password
		}
	}

	if err := config.ValidateConfigValues(cfg, "flags"); err != nil {
		return cliErrors.Wrap(err, cliErrors.Configuration,
			"Check the flag values: pactverify verify --help")
	}
	return nil
}

// verifyRun is one configured verification, run once or on every change.
type verifyRun struct {
	cfg   *config.Configuration
	stage verifier.SourceDefined
	out   io.Writer
	errw  io.Writer

	history *history.Writer // nil when StateDir is unset
}

func (r *verifyRun) once(ctx context.Context) error {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	req := r.stage.Request()
	runID := uuid.NewString()
	jsonOut := r.cfg.Output == "json"

	caps := progress.DetectTerminalCapabilities(r.errw)
	spin := progress.NewSpinner(r.errw, caps, !jsonOut && quietLevel(req.LogLevel))

	if r.cfg.Wait > 0 {
		spin.Start("waiting for " + req.ProviderBaseURL.Redacted())
		if err := waitForProvider(ctx, req.ProviderBaseURL, r.cfg.Wait); err != nil {
			spin.Fail("provider did not come up within " + r.cfg.Wait.String())
			return r.finish(runID, req, nil, err, time.Time{})
		}
		spin.Succeed("provider is up")
	}

	if !jsonOut {
		output.PrintVerifyHeader(r.out, req)
	}

	start := time.Now()
	spin.Start("verifying " + req.Source.Describe())
	outcome, err := r.stage.Verify(ctx)
	spin.Stop()

	return r.finish(runID, req, outcome, err, start)
}

// finish renders the result, records history and returns the error that
// decides the exit code.
func (r *verifyRun) finish(runID string, req verifier.Request, outcome *verifier.Outcome, err error, start time.Time) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = cliErrors.TimeoutError(r.cfg.Timeout.String(), err)
	}

	if r.cfg.Output == "json" {
		if werr := output.WriteJSON(r.out, output.NewReport(runID, req, outcome, err)); werr != nil {
			return werr
		}
	} else if outcome != nil {
		output.PrintOutcome(r.out, outcome)
	}

	r.record(runID, req, outcome, err, start)
	return err
}

func (r *verifyRun) record(runID string, req verifier.Request, outcome *verifier.Outcome, err error, start time.Time) {
	if r.history == nil {
		return
	}
	entry := history.HistoryEntry{
		ID:        runID,
		Timestamp: time.Now(),
		Provider:  req.ProviderName,
		Consumer:  req.ConsumerName,
		Source:    req.Source.Describe(),
		Status:    history.StatusPassed,
		ExitCode:  ExitCodeFor(err),
	}
	if !start.IsZero() {
		entry.Duration = time.Since(start).Round(time.Millisecond).String()
	}
	if outcome != nil {
		entry.Interactions = len(outcome.Results)
		entry.Mismatches = len(outcome.Mismatches)
	}
	switch {
	case errors.Is(err, verifier.ErrVerificationFailed):
		entry.Status = history.StatusFailed
	case err != nil:
		entry.Status = history.StatusError
		entry.Error = err.Error()
	}
	if v, verr := git.DetectVersion(""); verr == nil {
		entry.ProviderVersion = v.Short()
		entry.ProviderBranch = v.Branch
	}

	r.history.LogEntry(entry)
}

// quietLevel reports whether engine logging is quiet enough for a spinner.
func quietLevel(level verifier.LogLevel) bool {
	lvl, ok := logging.ZapLevel(level)
	return !ok || lvl > zap.InfoLevel
}

// waitForProvider polls base with exponential backoff until anything answers
// or budget runs out.
func waitForProvider(ctx context.Context, base *url.URL, budget time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = budget

	return backoff.Retry(func() error {
		err := replay.CheckProvider(ctx, client, base)
		if err != nil && !errors.Is(err, verifier.ErrProviderUnreachable) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx))
}
