package core

// CitedBlock is the minimal view of an already-finalized block that the
// era reward calculator needs: enough to attribute block-production
// credit to its proposer and signature-contribution credit to its
// signers, without pulling in the block's transactions.
type CitedBlock struct {
	Height   int64
	EraID    uint64
	Proposer string // pubkey hex of whoever produced this block
	// RewardedSignatures[i] lists the signer pubkeys this block cites as
	// having finalized the block at height-1-i, the same shape as
	// ProposedBlock.RewardedSignatures.
	RewardedSignatures [][]string
	StateRootHash       string
	IsSwitch            bool
	IsGenesis           bool
}
