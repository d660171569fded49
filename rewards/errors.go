package rewards

import (
	"errors"
	"fmt"
)

// Sentinel errors recognized via errors.Is; the parameterized variants
// below wrap one of these so callers can branch on kind without parsing
// strings.
var (
	ErrHeightNotInEraRange        = errors.New("rewards: height not in era range")
	ErrEraIDNotInEraRange         = errors.New("rewards: era id not in era range")
	ErrValidatorKeyNotInEra       = errors.New("rewards: validator key not in era")
	ErrMissingSwitchBlock         = errors.New("rewards: missing switch block for era")
	ErrFailedToFetchBlockWithHeight  = errors.New("rewards: failed to fetch block with height")
	ErrFailedToFetchEraValidators    = errors.New("rewards: failed to fetch era validators")
	ErrFailedToFetchTotalSupply      = errors.New("rewards: failed to fetch total supply")
	ErrFailedToFetchSeigniorageRate  = errors.New("rewards: failed to fetch seigniorage rate")
)

// HeightNotInEraRangeError reports a height falling outside the block
// range RewardsInfo assembled for the era under computation.
type HeightNotInEraRangeError struct {
	Height int64
}

func (e *HeightNotInEraRangeError) Error() string {
	return fmt.Sprintf("%v: %d", ErrHeightNotInEraRange, e.Height)
}
func (e *HeightNotInEraRangeError) Unwrap() error { return ErrHeightNotInEraRange }

// EraIDNotInEraRangeError reports an era referenced by a cited block that
// RewardsInfo never loaded EraInfo for.
type EraIDNotInEraRangeError struct {
	EraID uint64
}

func (e *EraIDNotInEraRangeError) Error() string {
	return fmt.Sprintf("%v: %d", ErrEraIDNotInEraRange, e.EraID)
}
func (e *EraIDNotInEraRangeError) Unwrap() error { return ErrEraIDNotInEraRange }

// ValidatorKeyNotInEraError reports a rewarded signer absent from the
// era's validator weight map.
type ValidatorKeyNotInEraError struct {
	EraID     uint64
	PublicKey string
}

func (e *ValidatorKeyNotInEraError) Error() string {
	return fmt.Sprintf("%v: key %s not in era %d", ErrValidatorKeyNotInEra, e.PublicKey, e.EraID)
}
func (e *ValidatorKeyNotInEraError) Unwrap() error { return ErrValidatorKeyNotInEra }

// MissingSwitchBlockError reports an era whose switch block could not be
// located while assembling RewardsInfo.
type MissingSwitchBlockError struct {
	EraID uint64
}

func (e *MissingSwitchBlockError) Error() string {
	return fmt.Sprintf("%v: %d", ErrMissingSwitchBlock, e.EraID)
}
func (e *MissingSwitchBlockError) Unwrap() error { return ErrMissingSwitchBlock }

// FailedToFetchBlockWithHeightError wraps a storage failure at a specific height.
type FailedToFetchBlockWithHeightError struct {
	Height int64
	Cause  error
}

func (e *FailedToFetchBlockWithHeightError) Error() string {
	return fmt.Sprintf("%v %d: %v", ErrFailedToFetchBlockWithHeight, e.Height, e.Cause)
}
func (e *FailedToFetchBlockWithHeightError) Unwrap() error { return ErrFailedToFetchBlockWithHeight }

// FailedToFetchEraValidatorsError wraps a contract-runtime query failure
// keyed by state root hash.
type FailedToFetchEraValidatorsError struct {
	StateRoot string
	Cause     error
}

func (e *FailedToFetchEraValidatorsError) Error() string {
	return fmt.Sprintf("%v (state_root=%s): %v", ErrFailedToFetchEraValidators, e.StateRoot, e.Cause)
}
func (e *FailedToFetchEraValidatorsError) Unwrap() error { return ErrFailedToFetchEraValidators }
