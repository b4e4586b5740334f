package cli

import (
	"context"
	"errors"

	cliErrors "github.com/ariel-frischer/pactverify/internal/errors"
	"github.com/ariel-frischer/pactverify/internal/verifier"
)

// Exit codes for the pactverify CLI
// These codes support programmatic composition and CI/CD integration
const (
	// ExitSuccess indicates every interaction matched
	ExitSuccess = 0

	// ExitVerificationFailed indicates at least one interaction did not match
	ExitVerificationFailed = 1

	// ExitRuntimeError indicates any other failure
	ExitRuntimeError = 2

	// ExitInvalidConfiguration indicates invalid flags or configuration
	ExitInvalidConfiguration = 3

	// ExitContractUnavailable indicates the contract could not be found or fetched
	ExitContractUnavailable = 4

	// ExitProviderUnreachable indicates the provider did not answer
	ExitProviderUnreachable = 5

	// ExitTimeout indicates the run exceeded its timeout
	ExitTimeout = 6
)

// ExitCodeFor maps an error returned by Execute to a process exit code.
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, verifier.ErrVerificationFailed):
		return ExitVerificationFailed
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	case errors.Is(err, verifier.ErrInvalidConfiguration):
		return ExitInvalidConfiguration
	case errors.Is(err, verifier.ErrFileNotFound),
		errors.Is(err, verifier.ErrContractUnavailable),
		errors.Is(err, verifier.ErrBrokerUnavailable):
		return ExitContractUnavailable
	case errors.Is(err, verifier.ErrProviderUnreachable):
		return ExitProviderUnreachable
	}

	if cliErr := cliErrors.AsCLIError(err); cliErr != nil {
		switch cliErr.Category {
		case cliErrors.Argument, cliErrors.Configuration:
			return ExitInvalidConfiguration
		case cliErrors.Prerequisite:
			return ExitContractUnavailable
		case cliErrors.Verification:
			return ExitVerificationFailed
		}
	}
	return ExitRuntimeError
}
