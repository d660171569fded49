package blockvalidator

import (
	"log"
	"time"

	"github.com/novabft/novachain/core"
)

// EventKind tags what an internal reactor Event carries.
type EventKind int

const (
	evValidateRequest EventKind = iota
	// EvDeployFound reports a successfully fetched and converted deploy
	// or transfer body. Exported so Fetcher implementations can post it.
	EvDeployFound
	// EvDeployMissing reports that every available source failed to
	// produce hash.
	EvDeployMissing
	// EvCannotConvertDeploy reports that hash was returned but could not
	// be interpreted (wrong kind, malformed footprint).
	EvCannotConvertDeploy
	evGotPastBlocks
)

// Event is the single message type the reactor consumes. Fetcher
// implementations construct EvDeployFound / EvDeployMissing /
// EvCannotConvertDeploy events and send them on the channel passed to
// FetchDeploy; everything else is internal to this package.
type Event struct {
	Kind EventKind

	Hash      core.TransactionHash
	Footprint core.DeployFootprint
	Source    FetchSource

	request *validateRequest
	key     proposalKey
	blocks  []*core.CitedBlock
}

type validateRequest struct {
	proposed *core.ProposedBlock
	eraID    uint64
	height   int64
	sender   string
	resp     chan bool
}

func unixNanoTime(ns int64) time.Time {
	return time.Unix(0, ns)
}

// Validator owns the table of in-progress proposal validations and the
// KeyedCounter that deduplicates concurrent fetches across them. All
// mutation happens on a single goroutine (Run), a single-threaded
// cooperative reactor: nothing here is ever touched from another
// goroutine, so no lock is needed.
type Validator struct {
	cfg     Config
	storage Storage
	fetcher Fetcher
	matrix  ValidatorMatrix
	logger  *log.Logger

	events  chan Event
	stop    chan struct{}
	counter *core.KeyedCounter
	states  map[proposalKey]*validationState
	// byHash indexes, for each still-missing hash, every state waiting on
	// it — O(1) fan-out on DeployFound/DeployMissing/CannotConvertDeploy
	// instead of scanning the whole table.
	byHash map[core.TransactionHash]map[proposalKey]struct{}
}

// NewValidator constructs a Validator. Call Run in its own goroutine
// before issuing any Validate calls.
func NewValidator(cfg Config, storage Storage, fetcher Fetcher, matrix ValidatorMatrix, logger *log.Logger) *Validator {
	if logger == nil {
		logger = log.Default()
	}
	return &Validator{
		cfg:     cfg,
		storage: storage,
		fetcher: fetcher,
		matrix:  matrix,
		logger:  logger,
		events:  make(chan Event, 64),
		stop:    make(chan struct{}),
		counter: core.NewKeyedCounter(true),
		states:  make(map[proposalKey]*validationState),
		byHash:  make(map[core.TransactionHash]map[proposalKey]struct{}),
	}
}

// Events returns the channel Fetcher implementations should post
// DeployFound/DeployMissing/CannotConvertDeploy events to.
func (v *Validator) Events() chan<- Event {
	return v.events
}

// Run drives the reactor loop until Stop is called. It must run in its
// own goroutine; every other method is safe to call concurrently because
// they only ever enqueue onto v.events.
func (v *Validator) Run() {
	for {
		select {
		case ev := <-v.events:
			v.handle(ev)
		case <-v.stop:
			return
		}
	}
}

// Stop terminates Run.
func (v *Validator) Stop() {
	close(v.stop)
}

// Validate is the public contract: validate(proposed_block, era_id,
// height, sender) -> future<bool>. The returned channel receives exactly
// one value.
func (v *Validator) Validate(proposed *core.ProposedBlock, eraID uint64, height int64, sender string) <-chan bool {
	resp := make(chan bool, 1)
	v.events <- Event{
		Kind: evValidateRequest,
		request: &validateRequest{
			proposed: proposed,
			eraID:    eraID,
			height:   height,
			sender:   sender,
			resp:     resp,
		},
	}
	return resp
}

func (v *Validator) handle(ev Event) {
	switch ev.Kind {
	case evValidateRequest:
		v.handleValidateRequest(ev.request)
	case EvDeployFound:
		v.handleDeployFound(ev.Hash, ev.Footprint)
	case EvDeployMissing:
		v.handleDeployMissing(ev.Hash)
	case EvCannotConvertDeploy:
		v.handleCannotConvert(ev.Hash)
	case evGotPastBlocks:
		v.handleGotPastBlocks(ev.key, ev.blocks)
	}
}

// handleValidateRequest runs the structural pre-checks synchronously, then
// admits the proposal into the state table and fans out fetches for any
// newly-missing hash.
func (v *Validator) handleValidateRequest(req *validateRequest) {
	p := req.proposed

	if len(p.Deploys) > v.cfg.Limits.MaxDeployCount {
		v.logger.Printf("[blockvalidator] sender=%s rejected: deploy count %d exceeds limit %d", req.sender, len(p.Deploys), v.cfg.Limits.MaxDeployCount)
		req.resp <- false
		return
	}
	if len(p.Transfers) > v.cfg.Limits.MaxTransferCount {
		v.logger.Printf("[blockvalidator] sender=%s rejected: transfer count %d exceeds limit %d", req.sender, len(p.Transfers), v.cfg.Limits.MaxTransferCount)
		req.resp <- false
		return
	}
	if len(p.Deploys) == 0 && len(p.Transfers) == 0 {
		req.resp <- true
		return
	}
	combined := make([]core.TxHashApproval, 0, len(p.Deploys)+len(p.Transfers))
	combined = append(combined, p.Deploys...)
	combined = append(combined, p.Transfers...)
	if dups := core.DuplicateCounts(combined); len(dups) > 0 {
		for h, n := range dups {
			v.logger.Printf("[blockvalidator] sender=%s rejected: duplicated deploys %d * %s", req.sender, n, h)
		}
		req.resp <- false
		return
	}

	key := keyOf(p)
	if st, ok := v.states[key]; ok {
		if st.isTerminal() {
			req.resp <- !st.invalid
			return
		}
		st.addResponder(req.resp)
		return
	}

	st := newValidationState(p, req.eraID, req.height, req.sender, v.cfg)
	v.states[key] = st
	st.addResponder(req.resp)

	for hash := range st.missing {
		if v.byHash[hash] == nil {
			v.byHash[hash] = make(map[proposalKey]struct{})
		}
		v.byHash[hash][key] = struct{}{}
		if v.counter.Inc(hash) == 1 {
			v.fetcher.FetchDeploy(hash, req.sender, v.events)
		}
	}

	v.requestPastBlocks(key, req.height)
}

func (v *Validator) requestPastBlocks(key proposalKey, height int64) {
	minHeight := height - v.cfg.SignatureRewardsMaxDelay
	if minHeight < 0 {
		minHeight = 0
	}
	go func() {
		blocks, err := v.storage.CollectPastBlocks(minHeight, height)
		if err != nil {
			v.logger.Printf("[blockvalidator] collect past blocks [%d,%d) failed: %v", minHeight, height, err)
			blocks = nil
		}
		v.events <- Event{Kind: evGotPastBlocks, key: key, blocks: blocks}
	}()
}

// handleDeployFound updates every state waiting on hash: the hash is
// removed from that state's missing set and admitted into its
// AppendableBlock. Admission failure marks the state invalid, and the
// sweep below reports it once, deterministically.
func (v *Validator) handleDeployFound(hash core.TransactionHash, footprint core.DeployFootprint) {
	v.counter.Dec(hash)
	waiters := v.byHash[hash]
	delete(v.byHash, hash)
	for key := range waiters {
		st, ok := v.states[key]
		if !ok || st.invalid {
			continue
		}
		approvals, stillMissing := st.missing[hash]
		if !stillMissing {
			continue
		}
		delete(st.missing, hash)
		if err := st.appendable.Add(hash, footprint, approvals); err != nil {
			v.logger.Printf("[blockvalidator] sender=%s admission failed for %s: %v", st.sender, hash, err)
			st.invalid = true
		}
	}
	v.sweep()
}

// handleDeployMissing fails every state still waiting on hash. The fetch
// fan-out in handleValidateRequest only ever schedules one in-flight
// fetch per hash across every proposal (gated on the KeyedCounter), so
// this single failure already speaks for every interested validation —
// there is no second fetch still running whose success could save one of
// them.
func (v *Validator) handleDeployMissing(hash core.TransactionHash) {
	v.counter.Dec(hash)
	waiters := v.byHash[hash]
	delete(v.byHash, hash)
	for key := range waiters {
		st, ok := v.states[key]
		if !ok {
			continue
		}
		if _, stillMissing := st.missing[hash]; stillMissing {
			v.logger.Printf("[blockvalidator] sender=%s fetch exhausted for %s", st.sender, hash)
			st.invalid = true
		}
	}
	v.sweep()
}

// handleCannotConvert terminally fails every interested state regardless
// of remaining fetch count: no retry could ever succeed.
func (v *Validator) handleCannotConvert(hash core.TransactionHash) {
	v.counter.Dec(hash)
	waiters := v.byHash[hash]
	delete(v.byHash, hash)
	for key := range waiters {
		st, ok := v.states[key]
		if !ok {
			continue
		}
		if _, stillMissing := st.missing[hash]; stillMissing {
			v.logger.Printf("[blockvalidator] sender=%s cannot convert %s", st.sender, hash)
			st.invalid = true
		}
	}
	v.sweep()
}

// handleGotPastBlocks builds the per-relative-height expected validator
// set from the ancestor-values prefix plus the fetched suffix, then checks
// that every cited signer for that offset is a subset of the expected set;
// any signer outside it rejects the proposal.
func (v *Validator) handleGotPastBlocks(key proposalKey, fetched []*core.CitedBlock) {
	st, ok := v.states[key]
	if !ok || st.invalid {
		return
	}
	p := st.proposed

	byHeight := make(map[int64]*core.CitedBlock, len(fetched)+len(p.AncestorValues))
	for _, b := range fetched {
		if b != nil {
			byHeight[b.Height] = b
		}
	}
	// Ancestor values take precedence for overlapping heights: they carry
	// headers not yet persisted to storage.
	for i := range p.AncestorValues {
		b := &p.AncestorValues[i]
		byHeight[b.Height] = b
	}

	for i, signers := range p.RewardedSignatures {
		signedHeight := st.height - 1 - int64(i)
		if signedHeight < 0 {
			continue
		}
		cited, ok := byHeight[signedHeight]
		if !ok {
			v.logger.Printf("[blockvalidator] sender=%s height %d not available for rewarded-signature check at offset %d", st.sender, signedHeight, i)
			st.invalid = true
			break
		}
		expected, ok := v.matrix.ValidatorWeights(cited.EraID)
		if !ok {
			v.logger.Printf("[blockvalidator] sender=%s era %d unknown for rewarded-signature check at offset %d", st.sender, cited.EraID, i)
			st.invalid = true
			break
		}
		for _, signer := range signers {
			if !expected.Contains(signer) {
				v.logger.Printf("[blockvalidator] sender=%s signer %s not in era %d validator set at offset %d", st.sender, signer, cited.EraID, i)
				st.invalid = true
				break
			}
		}
		if st.invalid {
			break
		}
	}
	st.pastBlocksChecked = true
	v.sweep()
}

// sweep responds to every newly-terminal state. A rejected proposal is
// removed immediately — it carries no value to keep around and holds a
// reference to its (possibly large) AppendableBlock. A validated proposal
// is left in the table: a later Validate call for the same proposal
// identity hits the cached verdict in handleValidateRequest instead of
// re-admitting and re-fetching everything. st.done guards against
// revisiting an already-answered state on a later sweep.
func (v *Validator) sweep() {
	for key, st := range v.states {
		if st.done || !st.isTerminal() {
			continue
		}
		if st.invalid {
			delete(v.states, key)
			for hash := range st.missing {
				if waiters := v.byHash[hash]; waiters != nil {
					delete(waiters, key)
					if len(waiters) == 0 {
						delete(v.byHash, hash)
					}
				}
			}
		}
		st.respond(!st.invalid)
	}
}
