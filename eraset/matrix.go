// Package eraset is the Validator Matrix external collaborator: a
// read-only (from the core's point of view) lookup from era identifier to
// the ordered set of validator public keys and their weights active in
// that era. The core never computes era membership itself; it only
// consults this collaborator when checking a proposal's rewarded-signature
// vector against the validator sets its signers must belong to.
package eraset

import "math/big"

// EraValidators maps a validator's pubkey hex to its bonded weight for a
// single era.
type EraValidators map[string]*big.Int

// Matrix is the read/purge contract the block validator consumes.
// Implementations are populated out-of-band (by
// whatever watches switch blocks and contract-runtime era-validator
// queries) and are never written to by the core itself.
type Matrix interface {
	// ValidatorWeights returns the validator set bonded for eraID, and
	// whether it is known. A not-ok result means the era has not yet been
	// observed (too far in the future) or has already been purged.
	ValidatorWeights(eraID uint64) (EraValidators, bool)
	// PurgeEraValidators discards the cached validator set for eraID,
	// typically called once an era falls outside the signature-rewards
	// lookback window and can no longer be cited by a live proposal.
	PurgeEraValidators(eraID uint64)
}

// Contains reports whether pubkey is a member of ev with positive weight.
func (ev EraValidators) Contains(pubkey string) bool {
	w, ok := ev[pubkey]
	return ok && w != nil && w.Sign() > 0
}

// InMemoryMatrix is a simple map-backed Matrix, the production
// implementation used by cmd/node: era validator sets are small enough
// (one switch block's worth) that no persistence layer is warranted, and
// purge is exactly a map delete.
type InMemoryMatrix struct {
	eras map[uint64]EraValidators
}

// NewInMemoryMatrix creates an empty matrix.
func NewInMemoryMatrix() *InMemoryMatrix {
	return &InMemoryMatrix{eras: make(map[uint64]EraValidators)}
}

// Put records (or replaces) the validator set for eraID.
func (m *InMemoryMatrix) Put(eraID uint64, validators EraValidators) {
	m.eras[eraID] = validators
}

func (m *InMemoryMatrix) ValidatorWeights(eraID uint64) (EraValidators, bool) {
	ev, ok := m.eras[eraID]
	return ev, ok
}

func (m *InMemoryMatrix) PurgeEraValidators(eraID uint64) {
	delete(m.eras, eraID)
}
