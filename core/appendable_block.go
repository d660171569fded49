package core

import (
	"errors"
	"time"
)

var (
	ErrDeployCountLimit    = errors.New("appendable block: deploy count limit reached")
	ErrTransferCountLimit  = errors.New("appendable block: transfer count limit reached")
	ErrGasBudgetExceeded   = errors.New("appendable block: gas budget exceeded")
	ErrTimestampOutOfRange = errors.New("appendable block: transaction timestamp outside block timestamp window")
	ErrDuplicateInBlock    = errors.New("appendable block: transaction already present")
)

// BlockLimits bounds what an AppendableBlock may admit. These mirror the
// per-block resource ceilings a proposer and every validator enforce
// identically, so admission is deterministic across the network.
type BlockLimits struct {
	MaxDeployCount   int
	MaxTransferCount int
	GasBudget        uint64
	// TimestampWindow bounds how far before the block's own timestamp a
	// transaction's own timestamp may lag; transactions stamped after the
	// block are always rejected.
	TimestampWindow time.Duration
}

// AppendableBlock accumulates transactions for a single proposed block
// under BlockLimits, rejecting additions that would violate any limit. Admission
// is all-or-nothing per transaction: Add either fully admits a transaction
// or leaves the block unchanged.
type AppendableBlock struct {
	limits     BlockLimits
	blockTime  time.Time
	deploys    []TransactionHash
	transfers  []TransactionHash
	approvals  map[TransactionHash]Approvals
	present    map[TransactionHash]bool
	gasUsed    uint64
}

// NewAppendableBlock starts an empty block to be proposed or validated with
// timestamp blockTime, subject to limits.
func NewAppendableBlock(blockTime time.Time, limits BlockLimits) *AppendableBlock {
	return &AppendableBlock{
		limits:    limits,
		blockTime: blockTime,
		approvals: make(map[TransactionHash]Approvals),
		present:   make(map[TransactionHash]bool),
	}
}

// Add admits a transaction identified by hash with the given footprint and
// co-signer approvals, atomically checking every limit before mutating any
// internal state. A transaction already present is rejected as a duplicate
// rather than silently merging approvals — callers that want to add an
// approval to an already-admitted transaction should do so explicitly.
func (b *AppendableBlock) Add(hash TransactionHash, footprint DeployFootprint, approvals Approvals) error {
	if b.present[hash] {
		return ErrDuplicateInBlock
	}
	txTime := time.Unix(0, footprint.Timestamp)
	if txTime.After(b.blockTime) || b.blockTime.Sub(txTime) > b.limits.TimestampWindow {
		return ErrTimestampOutOfRange
	}
	if b.gasUsed+footprint.GasCost > b.limits.GasBudget {
		return ErrGasBudgetExceeded
	}
	switch hash.Kind {
	case KindDeploy:
		if len(b.deploys) >= b.limits.MaxDeployCount {
			return ErrDeployCountLimit
		}
	case KindTransfer:
		if len(b.transfers) >= b.limits.MaxTransferCount {
			return ErrTransferCountLimit
		}
	}

	b.gasUsed += footprint.GasCost
	b.present[hash] = true
	b.approvals[hash] = approvals
	switch hash.Kind {
	case KindDeploy:
		b.deploys = append(b.deploys, hash)
	case KindTransfer:
		b.transfers = append(b.transfers, hash)
	}
	return nil
}

// Contains reports whether hash has already been admitted.
func (b *AppendableBlock) Contains(hash TransactionHash) bool {
	return b.present[hash]
}

// Deploys returns the admitted deploy hashes in admission order.
func (b *AppendableBlock) Deploys() []TransactionHash {
	out := make([]TransactionHash, len(b.deploys))
	copy(out, b.deploys)
	return out
}

// Transfers returns the admitted transfer hashes in admission order.
func (b *AppendableBlock) Transfers() []TransactionHash {
	out := make([]TransactionHash, len(b.transfers))
	copy(out, b.transfers)
	return out
}

// Approvals returns the co-signer set recorded for hash, or nil if absent.
func (b *AppendableBlock) Approvals(hash TransactionHash) Approvals {
	return b.approvals[hash]
}

// GasUsed returns the gas committed by all admitted transactions so far.
func (b *AppendableBlock) GasUsed() uint64 {
	return b.gasUsed
}
