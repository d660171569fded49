package network

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/novabft/novachain/blockvalidator"
	"github.com/novabft/novachain/core"
)

// GetBlocksRequest asks a peer for blocks starting at FromHeight.
type GetBlocksRequest struct {
	FromHeight int64 `json:"from_height"`
	Limit      int   `json:"limit"`
}

// BlocksResponse carries a batch of blocks.
type BlocksResponse struct {
	Blocks []*core.Block `json:"blocks"`
}

// GetDeployRequest asks a peer for the full body of a single deploy or
// transfer, cited by a proposed block but not yet known locally.
type GetDeployRequest struct {
	Hash core.TransactionHash `json:"hash"`
}

// DeployResponse carries one transaction body, or none if the responding
// peer also does not have it.
type DeployResponse struct {
	Hash  core.TransactionHash `json:"hash"`
	Found bool                 `json:"found"`
	Tx    *core.Transaction    `json:"tx,omitempty"`
}

// BlockValidator validates a block before it is accepted into the chain.
type BlockValidator interface {
	ValidateBlock(block *core.Block) error
}

// BlockExecutor applies all transactions in a block against the state.
// Left in place for a future host-execution layer; ExecuteBlock is
// explicitly out of scope here, so production wiring always passes nil.
type BlockExecutor interface {
	ExecuteBlock(block *core.Block) error
}

// Syncer handles block synchronisation and deploy fetching between nodes.
// It implements blockvalidator.Fetcher so a Validator can ask it to
// retrieve a transaction body cited by a proposal but missing locally.
type Syncer struct {
	node      *Node
	bc        *core.Blockchain
	mempool   *core.Mempool
	validator BlockValidator
	exec      BlockExecutor // may be nil; if set, state is also required
	state     core.State    // may be nil; used with exec to commit after each block

	// proposalValidator, when set, runs the proposed-block admission check
	// (deploy/transfer resolution, duplicate detection, rewarded-signature
	// subset check) on every synced block before it reaches validator.
	// Optional: a Syncer built without one skips straight to ValidateBlock.
	proposalValidator *blockvalidator.Validator
	proposalTimeout   time.Duration

	deployTimeout time.Duration
	fetchMu       sync.Mutex
	fetchWaiters  map[core.TransactionHash][]chan<- blockvalidator.Event
}

// SetProposalValidator wires v into the Syncer so every synced block is run
// through proposed-block admission before the full engine validator sees
// it. v must already be running (Run called in its own goroutine). A zero
// timeout falls back to 10 seconds.
func (s *Syncer) SetProposalValidator(v *blockvalidator.Validator, timeout time.Duration) {
	s.proposalValidator = v
	s.proposalTimeout = timeout
}

// NewSyncer creates a Syncer that requests missing blocks and deploys from
// peers. Pass non-nil exec and state so that synced blocks are fully
// applied to the local state; without them the node only tracks headers
// and transaction bodies.
func NewSyncer(node *Node, bc *core.Blockchain, mempool *core.Mempool, validator BlockValidator, exec BlockExecutor, state core.State) *Syncer {
	s := &Syncer{
		node: node, bc: bc, mempool: mempool, validator: validator, exec: exec, state: state,
		deployTimeout: 10 * time.Second,
	}
	node.Handle(MsgGetBlocks, s.handleGetBlocks)
	node.Handle(MsgBlocks, s.handleBlocks)
	node.Handle(MsgGetDeploy, s.handleGetDeploy)
	node.Handle(MsgDeploy, s.handleDeploy)
	return s
}

// RequestBlocks asks peer for blocks starting at fromHeight.
func (s *Syncer) RequestBlocks(peer *Peer, fromHeight int64) error {
	req, err := json.Marshal(GetBlocksRequest{FromHeight: fromHeight, Limit: 50})
	if err != nil {
		return err
	}
	return peer.Send(Message{Type: MsgGetBlocks, Payload: req})
}

func (s *Syncer) handleGetBlocks(peer *Peer, msg Message) {
	var req GetBlocksRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return
	}
	if req.Limit <= 0 || req.Limit > 200 {
		req.Limit = 50
	}
	blocks := make([]*core.Block, 0, req.Limit)
	for h := req.FromHeight; h < req.FromHeight+int64(req.Limit); h++ {
		b, err := s.bc.GetBlockByHeight(h)
		if err != nil {
			break
		}
		blocks = append(blocks, b)
	}
	data, err := json.Marshal(BlocksResponse{Blocks: blocks})
	if err != nil {
		return
	}
	_ = peer.Send(Message{Type: MsgBlocks, Payload: data})
}

func (s *Syncer) handleBlocks(_ *Peer, msg Message) {
	var resp BlocksResponse
	if err := json.Unmarshal(msg.Payload, &resp); err != nil {
		return
	}
	for _, b := range resp.Blocks {
		if s.proposalValidator != nil {
			timeout := s.proposalTimeout
			if timeout <= 0 {
				timeout = 10 * time.Second
			}
			proposed := b.ToProposedBlock(nil)
			select {
			case ok := <-s.proposalValidator.Validate(proposed, b.Header.EraID, b.Header.Height, b.Header.Proposer):
				if !ok {
					log.Printf("[sync] block %d rejected by proposal validator", b.Header.Height)
					continue
				}
			case <-time.After(timeout):
				log.Printf("[sync] block %d proposal validation timed out", b.Header.Height)
				continue
			}
		}

		if s.validator != nil {
			if err := s.validator.ValidateBlock(b); err != nil {
				log.Printf("[sync] block %d validation failed: %v", b.Header.Height, err)
				continue // skip this block, try the rest
			}
		}

		// Take a snapshot so we can revert if AddBlock fails.
		var snapID int
		if s.exec != nil && s.state != nil {
			var err error
			snapID, err = s.state.Snapshot()
			if err != nil {
				log.Printf("[sync] block %d snapshot failed: %v", b.Header.Height, err)
				continue
			}
			if err := s.exec.ExecuteBlock(b); err != nil {
				_ = s.state.RevertToSnapshot(snapID)
				log.Printf("[sync] block %d execution failed: %v", b.Header.Height, err)
				continue
			}
		}

		if err := s.bc.AddBlock(b); err != nil {
			if s.exec != nil && s.state != nil {
				_ = s.state.RevertToSnapshot(snapID)
			}
			log.Printf("[sync] block %d add failed: %v", b.Header.Height, err)
			continue
		}

		if s.exec != nil && s.state != nil {
			if err := s.state.Commit(); err != nil {
				log.Fatalf("[sync] FATAL: block %d state commit failed: %v", b.Header.Height, err)
			}
		}
	}
}

// ---- deploy fetching (blockvalidator.Fetcher) ----

func (s *Syncer) handleGetDeploy(peer *Peer, msg Message) {
	var req GetDeployRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return
	}
	resp := DeployResponse{Hash: req.Hash}
	if tx, ok := s.mempool.Get(req.Hash); ok {
		resp.Found = true
		resp.Tx = tx
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	_ = peer.Send(Message{Type: MsgDeploy, Payload: data})
}

func (s *Syncer) handleDeploy(_ *Peer, msg Message) {
	var resp DeployResponse
	if err := json.Unmarshal(msg.Payload, &resp); err != nil {
		return
	}
	s.deliver(resp)
}

func (s *Syncer) deliver(resp DeployResponse) {
	s.fetchMu.Lock()
	waiters := s.fetchWaiters[resp.Hash]
	delete(s.fetchWaiters, resp.Hash)
	s.fetchMu.Unlock()

	for _, events := range waiters {
		if !resp.Found || resp.Tx == nil {
			events <- blockvalidator.Event{Kind: blockvalidator.EvDeployMissing, Hash: resp.Hash}
			continue
		}
		footprint := resp.Tx.Footprint(1)
		events <- blockvalidator.Event{
			Kind:      blockvalidator.EvDeployFound,
			Hash:      resp.Hash,
			Footprint: footprint,
			Source:    blockvalidator.FetchSource{FromPeer: true},
		}
	}
}

// FetchDeploy implements blockvalidator.Fetcher. It checks the local
// mempool first; on a miss it asks preferredPeer (falling back to a
// broadcast query to every connected peer) and arranges for the reply to
// post an event back onto events. If no peer answers within
// s.deployTimeout, EvDeployMissing is posted.
func (s *Syncer) FetchDeploy(hash core.TransactionHash, preferredPeer string, events chan<- blockvalidator.Event) {
	if tx, ok := s.mempool.Get(hash); ok {
		footprint := tx.Footprint(1)
		events <- blockvalidator.Event{
			Kind:      blockvalidator.EvDeployFound,
			Hash:      hash,
			Footprint: footprint,
			Source:    blockvalidator.FetchSource{FromPeer: false},
		}
		return
	}

	s.fetchMu.Lock()
	if s.fetchWaiters == nil {
		s.fetchWaiters = make(map[core.TransactionHash][]chan<- blockvalidator.Event)
	}
	s.fetchWaiters[hash] = append(s.fetchWaiters[hash], events)
	s.fetchMu.Unlock()

	req, err := json.Marshal(GetDeployRequest{Hash: hash})
	if err != nil {
		events <- blockvalidator.Event{Kind: blockvalidator.EvCannotConvertDeploy, Hash: hash}
		return
	}
	sent := false
	if preferredPeer != "" {
		if p := s.node.Peer(preferredPeer); p != nil {
			sent = p.Send(Message{Type: MsgGetDeploy, Payload: req}) == nil
		}
	}
	if !sent {
		s.node.Broadcast(Message{Type: MsgGetDeploy, Payload: req})
	}

	time.AfterFunc(s.deployTimeout, func() {
		s.fetchMu.Lock()
		waiters, ok := s.fetchWaiters[hash]
		if ok {
			delete(s.fetchWaiters, hash)
		}
		s.fetchMu.Unlock()
		if !ok {
			return
		}
		for _, ev := range waiters {
			ev <- blockvalidator.Event{Kind: blockvalidator.EvDeployMissing, Hash: hash}
		}
	})
}
