package core

// TxHashApproval pairs a referenced transaction hash with the co-signer
// approvals the proposer attached to it. ProposedBlock keeps these as
// ordered slices, rather than maps, precisely so that a duplicate hash in
// the proposer's declaration is observable instead of silently collapsed.
type TxHashApproval struct {
	Hash      TransactionHash
	Approvals Approvals
}

// ProposedBlock is the wire-shape of a block proposal awaiting validation.
// It is immutable once received: the validator never mutates it, only
// reads from it while building an AppendableBlock.
type ProposedBlock struct {
	Timestamp int64
	Proposer  string
	// AncestorValues carries the cited past blocks the proposer has
	// already resolved, most-recent first, so a validator with those
	// heights cached locally need not re-fetch them from storage.
	AncestorValues []CitedBlock
	Deploys        []TxHashApproval
	Transfers      []TxHashApproval
	// RewardedSignatures[i] lists the signer pubkeys the proposer claims
	// finalized the block at height-1-i, for i in [0, len).
	RewardedSignatures [][]string
}

// CollectUnique folds entries into a hash -> approvals map. The returned map has strictly fewer entries than len(entries) whenever
// any hash repeats.
func CollectUnique(entries []TxHashApproval) map[TransactionHash]Approvals {
	out := make(map[TransactionHash]Approvals, len(entries))
	for _, e := range entries {
		out[e.Hash] = e.Approvals
	}
	return out
}

// DuplicateCounts returns, for every hash appearing more than once in
// entries, how many times it appeared. An empty result means entries
// contained no duplicates.
func DuplicateCounts(entries []TxHashApproval) map[TransactionHash]int {
	counts := make(map[TransactionHash]int)
	for _, e := range entries {
		counts[e.Hash]++
	}
	for h, n := range counts {
		if n <= 1 {
			delete(counts, h)
		}
	}
	return counts
}

// TotalDeclaredCount is the declared entry count across deploys and
// transfers, duplicates included.
func (p *ProposedBlock) TotalDeclaredCount() int {
	return len(p.Deploys) + len(p.Transfers)
}
