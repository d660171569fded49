package rewards

import (
	"errors"
	"math/big"
	"testing"

	"github.com/novabft/novachain/core"
)

func equalWeightEra(reward int64) *EraInfo {
	return &EraInfo{
		Weights:        map[string]*big.Int{"validator-a": big.NewInt(1), "validator-b": big.NewInt(1)},
		TotalWeight:    big.NewInt(2),
		RewardPerRound: big.NewRat(reward, 1),
	}
}

func s6Config() Config {
	return Config{
		SignatureRewardsMaxDelay: 5,
		FindersFee:               Rational{Num: 1, Den: 2},
		FinalitySignatureProportion: Rational{Num: 1, Den: 2},
	}
}

// S5: rewards_for_era(era=0, ...) maps every chainspec-configured
// validator to zero.
func TestRewardsForEraGenesisMapsEveryValidatorToZero(t *testing.T) {
	ri := &RewardsInfo{Eras: map[uint64]*EraInfo{0: equalWeightEra(1000)}}
	out, err := RewardsForEra(ri, 0, s6Config())
	if err != nil {
		t.Fatalf("RewardsForEra: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 validators, got %d", len(out))
	}
	for v, r := range out {
		if r.Sign() != 0 {
			t.Fatalf("validator %s: expected zero reward at genesis, got %s", v, r.String())
		}
	}
}

// S6: two equal-stake validators, one block production credit each, and
// validator-a's signature cited in validator-b's block, finders_fee=1/2,
// finality_signature_proportion=1/2: validator-a earns production plus
// contribution, validator-b production plus the finder's fee, and each
// total works out to 5/8 of the round reward, given reward_per_round=8
// this truncates to exactly 5.
func TestRewardsForEraKnownComposition(t *testing.T) {
	era := equalWeightEra(8)
	ri := &RewardsInfo{
		Eras: map[uint64]*EraInfo{1: era},
		Blocks: []core.CitedBlock{
			{Height: 5, EraID: 1, Proposer: "validator-a"},
			{Height: 6, EraID: 1, Proposer: "validator-b", RewardedSignatures: [][]string{{"validator-a"}}},
		},
	}
	out, err := RewardsForEra(ri, 1, s6Config())
	if err != nil {
		t.Fatalf("RewardsForEra: %v", err)
	}
	want := big.NewInt(5)
	if out["validator-a"].Cmp(want) != 0 {
		t.Fatalf("validator-a: got %s want %s", out["validator-a"], want)
	}
	if out["validator-b"].Cmp(want) != 0 {
		t.Fatalf("validator-b: got %s want %s", out["validator-b"], want)
	}
}

// RewardsForEra is a pure function: identical inputs yield identical
// outputs.
func TestRewardsForEraDeterministic(t *testing.T) {
	era := equalWeightEra(8)
	ri := &RewardsInfo{
		Eras: map[uint64]*EraInfo{1: era},
		Blocks: []core.CitedBlock{
			{Height: 5, EraID: 1, Proposer: "validator-a"},
			{Height: 6, EraID: 1, Proposer: "validator-b", RewardedSignatures: [][]string{{"validator-a"}}},
		},
	}
	cfg := s6Config()
	out1, err1 := RewardsForEra(ri, 1, cfg)
	out2, err2 := RewardsForEra(ri, 1, cfg)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	for v := range out1 {
		if out1[v].Cmp(out2[v]) != 0 {
			t.Fatalf("non-deterministic result for %s: %s vs %s", v, out1[v], out2[v])
		}
	}
}

// An era whose RewardPerRound already overflowed during collection
// surfaces ArithmeticError rather than a truncated partial result.
func TestRewardsForEraOverflowedEraSurfacesError(t *testing.T) {
	era := equalWeightEra(8)
	era.Overflowed = true
	ri := &RewardsInfo{
		Eras: map[uint64]*EraInfo{1: era},
		Blocks: []core.CitedBlock{
			{Height: 5, EraID: 1, Proposer: "validator-a"},
		},
	}
	_, err := RewardsForEra(ri, 1, s6Config())
	if !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("got %v want ErrArithmeticOverflow", err)
	}
}

// A rewarded signature citing a validator absent from the signed era's
// weight map is a typed error, never silently ignored.
func TestRewardsForEraValidatorKeyNotInEra(t *testing.T) {
	era := equalWeightEra(8)
	ri := &RewardsInfo{
		Eras: map[uint64]*EraInfo{1: era},
		Blocks: []core.CitedBlock{
			{Height: 5, EraID: 1, Proposer: "validator-a"},
			{Height: 6, EraID: 1, Proposer: "validator-b", RewardedSignatures: [][]string{{"stranger"}}},
		},
	}
	_, err := RewardsForEra(ri, 1, s6Config())
	var target *ValidatorKeyNotInEraError
	if !errors.As(err, &target) {
		t.Fatalf("got %v want *ValidatorKeyNotInEraError", err)
	}
}

// A cited block referencing an era never loaded into RewardsInfo.Eras is
// a typed error.
func TestRewardsForEraMissingEraID(t *testing.T) {
	ri := &RewardsInfo{Eras: map[uint64]*EraInfo{}}
	_, err := RewardsForEra(ri, 7, s6Config())
	var target *EraIDNotInEraRangeError
	if !errors.As(err, &target) {
		t.Fatalf("got %v want *EraIDNotInEraRangeError", err)
	}
}
