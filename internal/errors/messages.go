package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/ariel-frischer/pactverify/internal/verifier"
)

// Common error messages for the pactverify CLI.
// These templates ensure consistent, actionable error messages.

// FromVerify maps an error returned by a verifier stage or Verify to a
// CLIError with remediation. Errors that already are CLIErrors pass through.
func FromVerify(err error) *CLIError {
	if err == nil {
		return nil
	}
	if cliErr := AsCLIError(err); cliErr != nil {
		return cliErr
	}

	var failed *verifier.VerificationFailedError
	switch {
	case stderrors.As(err, &failed):
		return &CLIError{
			Category: Verification,
			Message:  err.Error(),
			Remediation: []string{
				"Review the mismatches above and fix the provider, or agree a new contract with the consumer",
				"Narrow the run with --filter-description or --filter-state while debugging",
			},
			Cause: err,
		}
	case stderrors.Is(err, verifier.ErrInvalidConfiguration):
		return WrapWithMessage(err, Configuration, "invalid verifier configuration",
			"Check the provider, consumer and source settings: pactverify config show",
			"URIs must be absolute, e.g. http://localhost:8080",
		)
	case stderrors.Is(err, verifier.ErrFileNotFound):
		return WrapWithMessage(err, Prerequisite, "contract not found",
			"Check the contract path or URI",
			"Generate the contract by running the consumer's tests first",
		)
	case stderrors.Is(err, verifier.ErrBrokerUnavailable):
		return WrapWithMessage(err, Prerequisite, "contract broker unavailable",
			"Check the broker URL and credentials",
			"Check that a contract exists for this provider, consumer and tag",
		)
	case stderrors.Is(err, verifier.ErrContractUnavailable):
		return WrapWithMessage(err, Prerequisite, "contract could not be fetched",
			"Check the contract URI and credentials",
		)
	case stderrors.Is(err, verifier.ErrProviderUnreachable):
		return WrapWithMessage(err, Runtime, "provider unreachable",
			"Start the provider before verifying",
			"Use --wait 30s to wait for the provider to come up",
			"Run 'pactverify doctor' to diagnose",
		)
	default:
		return Wrap(err, Runtime)
	}
}

// ConfigFileNotFound creates an error for missing config file.
func ConfigFileNotFound(path string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("config file not found: %s", path),
		"Run 'pactverify config init' to create a starter configuration",
		"Or pass an existing file with --config",
	)
}

// ConfigParseError creates an error for an invalid config file.
func ConfigParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("failed to load config: %s", path),
		"Check the file for YAML or JSON syntax errors",
		"List valid keys with: pactverify config keys",
	)
}

// MissingContractSource creates an error when no contract source is configured.
func MissingContractSource() *CLIError {
	return NewArgumentErrorWithUsage(
		"no contract source configured",
		"pactverify verify --file <path> | --uri <url> | --broker <url>",
		"Pass one of --file, --uri or --broker",
		"Or set source.file, source.uri or broker.url in .pactverify/config.yml",
	)
}

// InvalidFlagCombination creates an error for incompatible flag combinations.
func InvalidFlagCombination(flags string, reason string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid flag combination: %s", flags),
		reason,
		"Use 'pactverify <command> --help' to see valid options",
	)
}

// TimeoutError creates an error when a verification run times out.
func TimeoutError(duration string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("verification timed out after %s", duration),
		"Increase the timeout: --timeout 10m or PACTVERIFY_TIMEOUT=10m",
		"Set timeout to 0 to disable it",
	)
}

// FileNotWritable creates an error when a file cannot be written.
func FileNotWritable(path string) *CLIError {
	return NewRuntimeError(
		fmt.Sprintf("cannot write to file: %s", path),
		"Check file permissions: ls -la "+path,
		"Ensure parent directory exists and is writable",
	)
}
