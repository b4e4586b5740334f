package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	cliErrors "github.com/ariel-frischer/pactverify/internal/errors"
	"github.com/ariel-frischer/pactverify/internal/verifier"
)

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want int
	}{
		"nil": {want: ExitSuccess},
		"verification failed": {
			err:  cliErrors.FromVerify(&verifier.VerificationFailedError{}),
			want: ExitVerificationFailed,
		},
		"invalid configuration": {
			err:  fmt.Errorf("%w: bad uri", verifier.ErrInvalidConfiguration),
			want: ExitInvalidConfiguration,
		},
		"argument error": {
			err:  cliErrors.MissingContractSource(),
			want: ExitInvalidConfiguration,
		},
		"file not found": {
			err:  cliErrors.FromVerify(verifier.ErrFileNotFound),
			want: ExitContractUnavailable,
		},
		"broker unavailable": {
			err:  verifier.ErrBrokerUnavailable,
			want: ExitContractUnavailable,
		},
		"contract unavailable": {
			err:  verifier.ErrContractUnavailable,
			want: ExitContractUnavailable,
		},
		"provider unreachable": {
			err:  verifier.ErrProviderUnreachable,
			want: ExitProviderUnreachable,
		},
		"timeout": {
			err:  cliErrors.TimeoutError("1s", context.DeadlineExceeded),
			want: ExitTimeout,
		},
		"other": {
			err:  errors.New("boom"),
			want: ExitRuntimeError,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCodeFor(tt.err))
		})
	}
}
