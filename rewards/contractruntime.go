package rewards

import (
	"math/big"

	"github.com/novabft/novachain/core"
)

// ContractRuntime is the external collaborator the reward calculator
// queries for era-validator weights and inflation parameters, keyed by
// state root hash. Implemented in production by runtime.InMemoryRuntime.
type ContractRuntime interface {
	// GetEraValidators returns the validator weight map for every era
	// known as of stateRoot, keyed by era id.
	GetEraValidators(stateRoot string) (map[uint64]map[string]*big.Int, error)
	GetTotalSupply(stateRoot string) (*big.Int, error)
	GetRoundSeigniorageRate(stateRoot string) (Rational, error)
}

// Storage is the subset of persistent chain storage RewardsForEra needs
// to assemble a RewardsInfo. Implemented in production by
// storage.LevelBlockStore.
type Storage interface {
	// ReadBlockAtHeight returns the CitedBlock view of the block at
	// height, and whether it exists.
	ReadBlockAtHeight(height int64) (*core.CitedBlock, bool, error)
	// ReadSwitchBlockHeaderByEra returns the switch block (last block) of
	// eraID, and whether it has been recorded.
	ReadSwitchBlockHeaderByEra(eraID uint64) (*core.CitedBlock, bool, error)
}
