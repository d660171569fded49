package blockvalidator

import (
	"encoding/binary"

	"github.com/novabft/novachain/core"
	"github.com/novabft/novachain/crypto"
)

// proposalKey identifies a proposed block for the purposes of coalescing
// concurrent validate calls: two proposals with the same timestamp,
// proposer, and declared transaction sets are the same proposal.
type proposalKey [32]byte

func keyOf(p *core.ProposedBlock) proposalKey {
	var buf []byte
	var lenBuf [8]byte

	appendU64 := func(v int64) {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(v))
		buf = append(buf, lenBuf[:]...)
	}
	appendStr := func(s string) {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(s)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, s...)
	}
	appendEntries := func(entries []core.TxHashApproval) {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(entries)))
		buf = append(buf, lenBuf[:]...)
		for _, e := range entries {
			buf = append(buf, e.Hash.Hash[:]...)
			buf = append(buf, byte(e.Hash.Kind))
		}
	}

	appendU64(p.Timestamp)
	appendStr(p.Proposer)
	appendEntries(p.Deploys)
	appendEntries(p.Transfers)

	digest := crypto.HashBytes(buf)
	var key proposalKey
	copy(key[:], digest)
	return key
}
