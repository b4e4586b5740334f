package verifier

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration reports an empty name or malformed URI handed to a
	// stage transition. It is returned by the transition itself.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrFileNotFound reports a contract file that does not exist when Verify runs.
	ErrFileNotFound = errors.New("contract file not found")

	// ErrContractUnavailable reports a remote contract URI that could not be fetched.
	ErrContractUnavailable = errors.New("contract unavailable")

	// ErrBrokerUnavailable reports a broker that could not serve the contract.
	ErrBrokerUnavailable = errors.New("broker unavailable")

	// ErrProviderUnreachable reports a provider endpoint that could not be contacted.
	ErrProviderUnreachable = errors.New("provider unreachable")

	// ErrVerificationFailed matches any *VerificationFailedError via errors.Is.
	ErrVerificationFailed = errors.New("verification failed")
)

// VerificationFailedError is returned by Verify when the provider's responses do
// not satisfy one or more interactions. It is an expected outcome, not a fault.
type VerificationFailedError struct {
	Mismatches []Mismatch
}

func (e *VerificationFailedError) Error() string {
	if len(e.Mismatches) == 1 {
		return fmt.Sprintf("verification failed: interaction %q did not match", e.Mismatches[0].Interaction)
	}
	return fmt.Sprintf("verification failed: %d interactions did not match", len(e.Mismatches))
}

// Is makes errors.Is(err, ErrVerificationFailed) true.
func (e *VerificationFailedError) Is(target error) bool {
	return target == ErrVerificationFailed
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
