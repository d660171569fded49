package core

// Approvals is the set of signer public keys (hex-encoded) that co-signed a
// transaction for inclusion. AppendableBlock does not inspect approvals: a
// transaction with an empty set is admitted like any other.
type Approvals []string

// DeployFootprint is the resource profile of a fetched transaction,
// computed once and used by AppendableBlock to decide admissibility. It is
// deliberately a value type: it is discarded after being applied to every
// interested ValidationState.
type DeployFootprint struct {
	GasCost      uint64
	Size         uint64
	BodyHash     string
	SessionKind  string
	Dependencies []TransactionHash
	// Timestamp is the transaction's own declared timestamp (UnixNano),
	// carried through from the transaction body so AppendableBlock can
	// enforce the block's timestamp window without re-fetching the body.
	Timestamp int64
}
