package blockvalidator

import (
	"math/big"
	"testing"

	"github.com/novabft/novachain/core"
	"github.com/novabft/novachain/eraset"
	"github.com/novabft/novachain/internal/testutil"
)

func newValidatorWithMatrix(fetcher Fetcher, matrix *eraset.InMemoryMatrix) *Validator {
	storage := testutil.NewMemBlockStore()
	v := NewValidator(testConfig(), storage, fetcher, matrix, nil)
	go v.Run()
	return v
}

// A proposal whose rewarded-signature vector only cites signers actually
// bonded in the relevant era's validator set is accepted.
func TestValidateAcceptsConsistentRewardedSignatures(t *testing.T) {
	matrix := eraset.NewInMemoryMatrix()
	matrix.Put(1, eraset.EraValidators{"validator-a": big.NewInt(100)})

	fetcher := &fakeFetcher{}
	v := newValidatorWithMatrix(fetcher, matrix)
	defer v.Stop()

	blockTS, footprintTS := testTimes()
	h := hashAt(1, core.KindDeploy)
	height := int64(10)
	p := &core.ProposedBlock{
		Timestamp: blockTS,
		Deploys:   []core.TxHashApproval{{Hash: h, Approvals: core.Approvals{"x"}}},
		AncestorValues: []core.CitedBlock{
			{Height: height - 1, EraID: 1, Proposer: "validator-a"},
		},
		RewardedSignatures: [][]string{{"validator-a"}},
	}
	resp := v.Validate(p, 1, height, "peer-a")
	v.Events() <- Event{Kind: EvDeployFound, Hash: h, Footprint: core.DeployFootprint{GasCost: 1, Timestamp: footprintTS}}

	if !recvWithTimeout(t, resp) {
		t.Fatal("expected proposal with a consistent rewarded-signature set to validate true")
	}
}

// A rewarded signer that is not a member of the cited height's era
// validator set rejects the proposal, even though every transaction was
// found and admitted — this is the §9 open design point.
func TestValidateRejectsRewardedSignatureNotInEra(t *testing.T) {
	matrix := eraset.NewInMemoryMatrix()
	matrix.Put(1, eraset.EraValidators{"validator-a": big.NewInt(100)})

	fetcher := &fakeFetcher{}
	v := newValidatorWithMatrix(fetcher, matrix)
	defer v.Stop()

	blockTS, footprintTS := testTimes()
	h := hashAt(1, core.KindDeploy)
	height := int64(10)
	p := &core.ProposedBlock{
		Timestamp: blockTS,
		Deploys:   []core.TxHashApproval{{Hash: h, Approvals: core.Approvals{"x"}}},
		AncestorValues: []core.CitedBlock{
			{Height: height - 1, EraID: 1, Proposer: "validator-a"},
		},
		// "outsider" is not bonded in era 1.
		RewardedSignatures: [][]string{{"outsider"}},
	}
	resp := v.Validate(p, 1, height, "peer-a")

	// The deploy resolves immediately, before the lookback goroutine could
	// plausibly have finished; isTerminal must still wait for the
	// rewarded-signature check before responding.
	v.Events() <- Event{Kind: EvDeployFound, Hash: h, Footprint: core.DeployFootprint{GasCost: 1, Timestamp: footprintTS}}

	if recvWithTimeout(t, resp) {
		t.Fatal("expected proposal citing an out-of-era signer to be rejected")
	}
}

// A proposal citing a height neither in ancestor values nor in storage is
// a hard validation failure: the validator cannot decide and must abstain
// rather than guess.
func TestValidateRejectsWhenCitedHeightUnavailable(t *testing.T) {
	matrix := eraset.NewInMemoryMatrix()
	matrix.Put(1, eraset.EraValidators{"validator-a": big.NewInt(100)})

	fetcher := &fakeFetcher{}
	v := newValidatorWithMatrix(fetcher, matrix)
	defer v.Stop()

	blockTS, footprintTS := testTimes()
	h := hashAt(1, core.KindDeploy)
	height := int64(10)
	p := &core.ProposedBlock{
		Timestamp:          blockTS,
		Deploys:            []core.TxHashApproval{{Hash: h, Approvals: core.Approvals{"x"}}},
		RewardedSignatures: [][]string{{"validator-a"}},
		// No ancestor value supplied for height-1, and storage has
		// nothing at that height either.
	}
	resp := v.Validate(p, 1, height, "peer-a")
	v.Events() <- Event{Kind: EvDeployFound, Hash: h, Footprint: core.DeployFootprint{GasCost: 1, Timestamp: footprintTS}}

	if recvWithTimeout(t, resp) {
		t.Fatal("expected proposal citing an unavailable height to be rejected")
	}
}

// Ancestor values take precedence over storage for overlapping heights.
func TestValidatePrefersAncestorValuesOverStorage(t *testing.T) {
	matrix := eraset.NewInMemoryMatrix()
	matrix.Put(1, eraset.EraValidators{"validator-a": big.NewInt(100)})
	matrix.Put(2, eraset.EraValidators{"validator-b": big.NewInt(100)})

	storage := testutil.NewMemBlockStore()
	// Storage claims height 9 belongs to era 2 (where "validator-a" is
	// not bonded); the ancestor value for the same height says era 1.
	storage.CommitBlock(core.NewBlock(9, 2, false, "", "validator-b", nil, nil))

	fetcher := &fakeFetcher{}
	v := NewValidator(testConfig(), storage, fetcher, matrix, nil)
	go v.Run()
	defer v.Stop()

	blockTS, footprintTS := testTimes()
	h := hashAt(1, core.KindDeploy)
	height := int64(10)
	p := &core.ProposedBlock{
		Timestamp: blockTS,
		Deploys:   []core.TxHashApproval{{Hash: h, Approvals: core.Approvals{"x"}}},
		AncestorValues: []core.CitedBlock{
			{Height: 9, EraID: 1, Proposer: "validator-a"},
		},
		RewardedSignatures: [][]string{{"validator-a"}},
	}
	resp := v.Validate(p, 1, height, "peer-a")
	v.Events() <- Event{Kind: EvDeployFound, Hash: h, Footprint: core.DeployFootprint{GasCost: 1, Timestamp: footprintTS}}

	if !recvWithTimeout(t, resp) {
		t.Fatal("expected the ancestor value's era (1) to take precedence over storage's (2)")
	}
}
