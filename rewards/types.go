package rewards

import (
	"math/big"

	"github.com/novabft/novachain/core"
)

// EraInfo holds everything RewardsForEra needs about a single era:
// validator weights, their cached sum, and the per-round reward pool.
type EraInfo struct {
	Weights map[string]*big.Int
	// TotalWeight caches the sum of Weights so weight_ratio never
	// re-sums on every lookup.
	TotalWeight *big.Int
	// RewardPerRound is seigniorage_rate * total_supply, computed once
	// when the era was loaded. Overflowed is set instead of silently
	// truncating when that product poisoned (see ratmath.go).
	RewardPerRound *big.Rat
	Overflowed     bool
}

// NewEraInfo derives TotalWeight and RewardPerRound from the raw inputs
// queried from the contract runtime.
func NewEraInfo(weights map[string]*big.Int, totalSupply *big.Int, seigniorageRate Rational) *EraInfo {
	total := new(big.Int)
	for _, w := range weights {
		total.Add(total, w)
	}
	rate := seigniorageRate.toCheckedRat()
	supply := ratFromBigInt(totalSupply)
	perRound := rate.mul(supply)
	if perRound.poisoned {
		return &EraInfo{Weights: weights, TotalWeight: total, Overflowed: true}
	}
	return &EraInfo{Weights: weights, TotalWeight: total, RewardPerRound: perRound.v}
}

// RewardsInfo is the pre-collected snapshot RewardsForEra computes over:
// the ordered cited blocks in the lookback window, and the EraInfo for
// every era any of those blocks (or their rewarded signatures) reference.
type RewardsInfo struct {
	Blocks []core.CitedBlock
	Eras   map[uint64]*EraInfo
}

// EraInfoFor looks up era, returning a typed error if RewardsInfo never
// loaded it — the data-model invariant is "every era referenced by any
// cited block is present in the map", so a miss here is always an error,
// never a zero-value default.
func (ri *RewardsInfo) EraInfoFor(eraID uint64) (*EraInfo, error) {
	info, ok := ri.Eras[eraID]
	if !ok {
		return nil, &EraIDNotInEraRangeError{EraID: eraID}
	}
	return info, nil
}
