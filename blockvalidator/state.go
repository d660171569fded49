package blockvalidator

import (
	"fmt"

	"github.com/novabft/novachain/core"
)

// validationState tracks one proposed block's in-progress validation. It
// is exclusively owned by the Validator's reactor goroutine — nothing else
// ever reads or writes it, so no locking is needed here.
type validationState struct {
	proposed *core.ProposedBlock
	eraID    uint64
	height   int64
	sender   string

	appendable *core.AppendableBlock
	missing    map[core.TransactionHash]core.Approvals
	responders []chan<- bool

	// pastBlocksChecked is set once GotPastBlockWithMetadata has been
	// processed for this state. A state with an empty missing set is NOT
	// yet terminal until this is also true: otherwise a proposal whose
	// transactions resolve quickly could respond true before the
	// rewarded-signature subset check has had a chance to run.
	pastBlocksChecked bool

	invalid bool
	done    bool // guards against sweeping (and responding) twice
}

// newValidationState creates a state for proposed with every (hash,
// approvals) pair from its deploys and transfers recorded as missing.
func newValidationState(proposed *core.ProposedBlock, eraID uint64, height int64, sender string, cfg Config) *validationState {
	st := &validationState{
		proposed:   proposed,
		eraID:      eraID,
		height:     height,
		sender:     sender,
		appendable: cfg.newAppendableBlock(unixNanoTime(proposed.Timestamp)),
		missing:    make(map[core.TransactionHash]core.Approvals, len(proposed.Deploys)+len(proposed.Transfers)),
	}
	for _, e := range proposed.Deploys {
		st.missing[e.Hash] = e.Approvals
	}
	for _, e := range proposed.Transfers {
		st.missing[e.Hash] = e.Approvals
	}
	return st
}

// addResponder appends resp to the state's responder list. resp fires
// exactly once, when the state reaches a terminal verdict.
func (st *validationState) addResponder(resp chan<- bool) {
	st.responders = append(st.responders, resp)
}

// isTerminal reports whether this state has reached a final verdict:
// either marked invalid, or both its missing set has been fully resolved
// and the rewarded-signature subset check has completed.
func (st *validationState) isTerminal() bool {
	return st.invalid || (len(st.missing) == 0 && st.pastBlocksChecked)
}

// respond delivers verdict to every pending responder exactly once. A
// second call panics: the reactor's single-goroutine execution guarantees
// this should never happen, and silently tolerating it would hide a
// responder-discipline bug.
func (st *validationState) respond(verdict bool) {
	if st.done {
		panic(fmt.Sprintf("validationState: responded twice for proposal from %s", st.sender))
	}
	st.done = true
	for _, r := range st.responders {
		r <- verdict
		close(r)
	}
	st.responders = nil
}
