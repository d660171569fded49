// Package blockvalidator implements the Proposed-Block Validator: it
// admits or rejects a block proposed by a peer by verifying structural
// limits, fetching every referenced transaction, and de-duplicating
// concurrent validations of the same proposal.
package blockvalidator

import (
	"time"

	"github.com/novabft/novachain/core"
	"github.com/novabft/novachain/eraset"
)

// Storage is the subset of persistent chain storage the validator needs.
// Implemented in production by storage.LevelBlockStore.
type Storage interface {
	// CollectPastBlocks returns a CitedBlock for every height in
	// [fromHeight, toHeight) that storage has available; a nil entry at
	// the corresponding index means that height is not yet locally known
	// (the caller is expected to fill such gaps from ancestor values).
	CollectPastBlocks(fromHeight, toHeight int64) ([]*core.CitedBlock, error)
}

// FetchSource records where a fetched transaction came from: already held
// locally, or retrieved from a peer (and if so, which one).
type FetchSource struct {
	FromPeer bool
	Sender   string
}

// Fetcher asynchronously retrieves a transaction body. Implementations
// must deliver exactly one of DeployFound, DeployMissing, or
// CannotConvertDeploy onto events for the given hash. Implemented in
// production by network.Syncer; in tests by an in-package fake.
type Fetcher interface {
	FetchDeploy(hash core.TransactionHash, preferredPeer string, events chan<- Event)
}

// ValidatorMatrix narrows eraset.Matrix to what the validator consults:
// the expected signer set for the era containing a given past height.
type ValidatorMatrix interface {
	ValidatorWeights(eraID uint64) (eraset.EraValidators, bool)
}

// Config bounds admission and lookback behavior. Fields mirror
// config.Config's reward/validation parameters (see config/config.go);
// cmd/node constructs this from the loaded Config.
type Config struct {
	Limits                   core.BlockLimits
	SignatureRewardsMaxDelay int64
}

// newAppendableBlock is a convenience for constructing an AppendableBlock
// with this validator's configured limits and a proposal's own timestamp.
func (c Config) newAppendableBlock(blockTime time.Time) *core.AppendableBlock {
	return core.NewAppendableBlock(blockTime, c.Limits)
}
