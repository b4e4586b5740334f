// Package verifier assembles a provider verification request through a fixed
// sequence of typed stages and hands the finished request to an Engine.
//
// Each stage is its own interface and exposes only the operations that are
// legal at that point:
//
//	Initial          -> ServiceProvider
//	ProviderDefined  -> HonoursPactWith
//	ConsumerDefined  -> FromContractFile | FromContractURI | FromContractBroker
//	SourceDefined    -> WithProviderStateURL* | WithFilter* | WithLogLevel* | Verify
//
// Because ConsumerDefined is the only stage with source operations and every
// source operation returns SourceDefined, a chain can never carry two contract
// sources: calling FromContractFile followed by FromContractBroker does not
// compile. The same holds for calling Verify before a source is chosen.
//
// Stage values are immutable. A transition copies the configuration into a new
// stage value, so holding on to an intermediate stage and calling its exit
// operation twice yields two independent configurations.
//
// Validation is split in two. Syntactic checks (non-empty names, absolute URIs)
// run eagerly in the transition that introduces the value and fail with
// ErrInvalidConfiguration. Existence and reachability checks (contract file on
// disk, broker, provider) run lazily inside Verify, because a pipeline may
// produce the contract file between assembling the chain and verifying it.
//
// The refinements on SourceDefined are last-write-wins: calling WithLogLevel
// three times keeps only the third level.
//
// Nothing in this package prints, logs or retries. Verify returns a structured
// Outcome and error to the caller.
package verifier
