package runtime

import (
	"math/big"
	"testing"

	"github.com/novabft/novachain/rewards"
)

func TestInMemoryRuntimeUncommittedRootErrors(t *testing.T) {
	r := NewInMemoryRuntime()
	if _, err := r.GetEraValidators("unknown"); err == nil {
		t.Fatal("expected uncommitted state root to error")
	}
	if _, err := r.GetTotalSupply("unknown"); err == nil {
		t.Fatal("expected uncommitted state root to error")
	}
	if _, err := r.GetRoundSeigniorageRate("unknown"); err == nil {
		t.Fatal("expected uncommitted state root to error")
	}
}

func TestInMemoryRuntimeCommitAndLookup(t *testing.T) {
	r := NewInMemoryRuntime()
	eras := map[uint64]map[string]*big.Int{
		1: {"validator-a": big.NewInt(10)},
	}
	rate := rewards.Rational{Num: 1, Den: 100}
	r.Commit("root1", eras, big.NewInt(1_000_000), rate)

	gotEras, err := r.GetEraValidators("root1")
	if err != nil {
		t.Fatalf("GetEraValidators: %v", err)
	}
	if gotEras[1]["validator-a"].Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("got %v want 10", gotEras[1]["validator-a"])
	}

	supply, err := r.GetTotalSupply("root1")
	if err != nil {
		t.Fatalf("GetTotalSupply: %v", err)
	}
	if supply.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("got %v want 1000000", supply)
	}

	gotRate, err := r.GetRoundSeigniorageRate("root1")
	if err != nil {
		t.Fatalf("GetRoundSeigniorageRate: %v", err)
	}
	if gotRate != rate {
		t.Fatalf("got %+v want %+v", gotRate, rate)
	}
}

func TestInMemoryRuntimeDistinctRootsAreIndependent(t *testing.T) {
	r := NewInMemoryRuntime()
	r.Commit("root1", nil, big.NewInt(1), rewards.Rational{Num: 1, Den: 2})
	r.Commit("root2", nil, big.NewInt(2), rewards.Rational{Num: 1, Den: 2})

	s1, err := r.GetTotalSupply("root1")
	if err != nil {
		t.Fatalf("GetTotalSupply root1: %v", err)
	}
	s2, err := r.GetTotalSupply("root2")
	if err != nil {
		t.Fatalf("GetTotalSupply root2: %v", err)
	}
	if s1.Cmp(s2) == 0 {
		t.Fatal("expected distinct state roots to carry independent snapshots")
	}
}
