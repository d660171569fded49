// Package runtime is the contract-runtime external collaborator: it
// answers era-validator-weight and inflation-parameter queries keyed by
// state root hash from a plain in-memory map of committed snapshots, and
// performs no transaction dispatch: a real node would back this with a Wasm host
// executing against the persisted world state, which is out of scope
// here.
package runtime

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/novabft/novachain/rewards"
)

// eraSnapshot is the data a single state root commits to: every era's
// validator weights as of that point, plus the chain's total supply and
// round seigniorage rate at that moment.
type eraSnapshot struct {
	eras            map[uint64]map[string]*big.Int
	totalSupply     *big.Int
	seigniorageRate rewards.Rational
}

// InMemoryRuntime is a map-backed ContractRuntime double: state roots are
// committed explicitly through Commit rather than derived from real
// contract execution.
type InMemoryRuntime struct {
	mu        sync.RWMutex
	snapshots map[string]eraSnapshot
}

// NewInMemoryRuntime creates an empty runtime.
func NewInMemoryRuntime() *InMemoryRuntime {
	return &InMemoryRuntime{snapshots: make(map[string]eraSnapshot)}
}

// Commit records the era-validator weights, total supply, and
// seigniorage rate visible at stateRoot. eras maps era id to that era's
// validator weight map; callers typically pass just the newly-bonded era
// at a switch block, but may pass more.
func (r *InMemoryRuntime) Commit(stateRoot string, eras map[uint64]map[string]*big.Int, totalSupply *big.Int, seigniorageRate rewards.Rational) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[stateRoot] = eraSnapshot{eras: eras, totalSupply: totalSupply, seigniorageRate: seigniorageRate}
}

func (r *InMemoryRuntime) GetEraValidators(stateRoot string) (map[uint64]map[string]*big.Int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.snapshots[stateRoot]
	if !ok {
		return nil, fmt.Errorf("runtime: no snapshot committed at state root %s", stateRoot)
	}
	return snap.eras, nil
}

func (r *InMemoryRuntime) GetTotalSupply(stateRoot string) (*big.Int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.snapshots[stateRoot]
	if !ok {
		return nil, fmt.Errorf("runtime: no snapshot committed at state root %s", stateRoot)
	}
	return snap.totalSupply, nil
}

func (r *InMemoryRuntime) GetRoundSeigniorageRate(stateRoot string) (rewards.Rational, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.snapshots[stateRoot]
	if !ok {
		return rewards.Rational{}, fmt.Errorf("runtime: no snapshot committed at state root %s", stateRoot)
	}
	return snap.seigniorageRate, nil
}
