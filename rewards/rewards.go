package rewards

import (
	"fmt"
	"math/big"

	"github.com/novabft/novachain/core"
)

// Config carries the chainspec rational parameters RewardsForEra and
// NewRewardsInfo need. These are the same values config.Config loads from
// the node's JSON configuration file.
type Config struct {
	SignatureRewardsMaxDelay int64
	FindersFee               Rational
	FinalitySignatureProportion Rational
}

// batchSize bounds a single storage query to 100 blocks at a time, so one
// era's lookback can't demand an unbounded single read from the block
// store.
const batchSize = 100

// NewRewardsInfo assembles the block range
// [previousSwitchHeight - cfg.SignatureRewardsMaxDelay, currentHeight)
// from storage, and loads the EraInfo for every era touched by a switch
// block or the oldest block in that range.
func NewRewardsInfo(storage Storage, runtime ContractRuntime, previousSwitchHeight, currentHeight int64, cfg Config) (*RewardsInfo, error) {
	minHeight := previousSwitchHeight - cfg.SignatureRewardsMaxDelay
	if minHeight < 0 {
		minHeight = 0
	}

	ri := &RewardsInfo{Eras: make(map[uint64]*EraInfo)}

	for h := minHeight; h < currentHeight; h += batchSize {
		end := h + batchSize
		if end > currentHeight {
			end = currentHeight
		}
		for height := h; height < end; height++ {
			block, ok, err := storage.ReadBlockAtHeight(height)
			if err != nil {
				return nil, &FailedToFetchBlockWithHeightError{Height: height, Cause: err}
			}
			if !ok {
				return nil, &HeightNotInEraRangeError{Height: height}
			}
			ri.Blocks = append(ri.Blocks, *block)
			if block.IsSwitch || height == minHeight {
				if err := loadEra(ri, runtime, block.StateRootHash); err != nil {
					return nil, err
				}
			}
		}
	}

	if len(ri.Blocks) > 0 && ri.Blocks[0].IsGenesis {
		era1, ok := ri.Eras[1]
		if !ok {
			return nil, &MissingSwitchBlockError{EraID: 1}
		}
		ri.Eras[0] = era1
	}

	return ri, nil
}

// loadEra queries the contract runtime at stateRoot and merges every era
// it reports into ri.Eras, skipping eras already loaded (a later, more
// recent query at an overlapping era would not change already-finalized
// weights).
func loadEra(ri *RewardsInfo, runtime ContractRuntime, stateRoot string) error {
	weightsByEra, err := runtime.GetEraValidators(stateRoot)
	if err != nil {
		return &FailedToFetchEraValidatorsError{StateRoot: stateRoot, Cause: err}
	}
	totalSupply, err := runtime.GetTotalSupply(stateRoot)
	if err != nil {
		return fmt.Errorf("%w (state_root=%s): %v", ErrFailedToFetchTotalSupply, stateRoot, err)
	}
	seigniorageRate, err := runtime.GetRoundSeigniorageRate(stateRoot)
	if err != nil {
		return fmt.Errorf("%w (state_root=%s): %v", ErrFailedToFetchSeigniorageRate, stateRoot, err)
	}
	for eraID, weights := range weightsByEra {
		if _, exists := ri.Eras[eraID]; exists {
			continue
		}
		ri.Eras[eraID] = NewEraInfo(weights, totalSupply, seigniorageRate)
	}
	return nil
}

// weightRatio computes weights[era][v] / total_weights[era] as a
// checkedRat, the term shared by the contribution and collection reward
// components.
func weightRatio(info *EraInfo, validator string, eraID uint64) (*checkedRat, error) {
	w, ok := info.Weights[validator]
	if !ok {
		return nil, &ValidatorKeyNotInEraError{EraID: eraID, PublicKey: validator}
	}
	return ratFromBigIntFraction(w, info.TotalWeight), nil
}

// blocksByHeight indexes ri.Blocks for the signed-block lookups
// RewardsForEra needs when walking a block's rewarded-signatures vector.
func blocksByHeight(ri *RewardsInfo) map[int64]*core.CitedBlock {
	idx := make(map[int64]*core.CitedBlock, len(ri.Blocks))
	for i := range ri.Blocks {
		idx[ri.Blocks[i].Height] = &ri.Blocks[i]
	}
	return idx
}

// RewardsForEra computes the per-validator token reward for
// currentEraID's closing era from the pre-collected ri, honoring
// overflow-checked rational arithmetic throughout.
func RewardsForEra(ri *RewardsInfo, currentEraID uint64, cfg Config) (map[string]*big.Int, error) {
	currentEraInfo, err := ri.EraInfoFor(currentEraID)
	if err != nil {
		return nil, err
	}

	if currentEraID == 0 {
		out := make(map[string]*big.Int, len(currentEraInfo.Weights))
		for v := range currentEraInfo.Weights {
			out[v] = new(big.Int)
		}
		return out, nil
	}
	if currentEraInfo.Overflowed {
		return nil, ErrArithmeticOverflow
	}

	finalitySigProp := cfg.FinalitySignatureProportion
	productionProp := finalitySigProp.complement()
	collectionProp := cfg.FindersFee.toCheckedRat().mul(finalitySigProp.toCheckedRat())
	contributionProp := cfg.FindersFee.complement().mul(finalitySigProp.toCheckedRat())

	accum := make(map[string]*checkedRat, len(currentEraInfo.Weights))
	for v := range currentEraInfo.Weights {
		accum[v] = zeroRat()
	}
	add := func(validator string, amount *checkedRat) {
		cur, ok := accum[validator]
		if !ok {
			cur = zeroRat()
		}
		accum[validator] = cur.add(amount)
	}

	byHeight := blocksByHeight(ri)
	currentEraReward := newCheckedRat(currentEraInfo.RewardPerRound)

	for i := range ri.Blocks {
		block := ri.Blocks[i]
		if block.EraID != currentEraID {
			continue
		}

		add(block.Proposer, productionProp.mul(currentEraReward))

		for offset, signers := range block.RewardedSignatures {
			signedHeight := block.Height - 1 - int64(offset)
			if signedHeight < 0 || block.Height-signedHeight > cfg.SignatureRewardsMaxDelay {
				continue
			}
			signed, ok := byHeight[signedHeight]
			if !ok {
				return nil, &HeightNotInEraRangeError{Height: signedHeight}
			}
			signedEraInfo, err := ri.EraInfoFor(signed.EraID)
			if err != nil {
				return nil, err
			}
			if signedEraInfo.Overflowed {
				return nil, ErrArithmeticOverflow
			}
			signedEraReward := newCheckedRat(signedEraInfo.RewardPerRound)

			for _, signer := range signers {
				ratio, err := weightRatio(signedEraInfo, signer, signed.EraID)
				if err != nil {
					return nil, err
				}
				add(signer, contributionProp.mul(ratio).mul(signedEraReward))
				add(block.Proposer, collectionProp.mul(ratio).mul(signedEraReward))
			}
		}
	}

	out := make(map[string]*big.Int, len(accum))
	for v, r := range accum {
		n, err := r.toInteger()
		if err != nil {
			return nil, fmt.Errorf("validator %s: %w", v, err)
		}
		out[v] = n
	}
	return out, nil
}
