// Package consensus implements Proof-of-Authority block production around
// the era reward calculator: validators propose blocks in round-robin
// order, incoming blocks get a proposer, signature and linkage check, and
// crossing an era's switch block triggers an era reward computation.
// Proposed-block admission through blockvalidator.Validator is wired in
// network.Syncer, not in this package.
package consensus

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/novabft/novachain/config"
	"github.com/novabft/novachain/core"
	"github.com/novabft/novachain/crypto"
	"github.com/novabft/novachain/eraset"
	"github.com/novabft/novachain/events"
	"github.com/novabft/novachain/rewards"
	"github.com/novabft/novachain/runtime"
)

// maxBlockTimeDrift is the maximum allowed clock drift for incoming blocks.
const maxBlockTimeDrift = int64(15 * time.Second)

// PoA is the Proof-of-Authority consensus engine. It produces blocks when
// this node is the round-robin proposer, checks peer blocks' proposer,
// signature and linkage (ValidateBlock), and computes era rewards whenever
// a switch block is crossed.
type PoA struct {
	cfg     *config.Config
	bc      *core.Blockchain
	state   core.State
	mempool *core.Mempool
	matrix  *eraset.InMemoryMatrix
	runtime *runtime.InMemoryRuntime
	emitter *events.Emitter
	privKey crypto.PrivateKey
	pubKey  crypto.PublicKey

	rewardsCfg        rewards.Config
	previousSwitchHeight int64
}

// New creates a PoA engine for the local validator identified by privKey.
func New(
	cfg *config.Config,
	bc *core.Blockchain,
	state core.State,
	mempool *core.Mempool,
	matrix *eraset.InMemoryMatrix,
	rt *runtime.InMemoryRuntime,
	emitter *events.Emitter,
	privKey crypto.PrivateKey,
) *PoA {
	return &PoA{
		cfg:     cfg,
		bc:      bc,
		state:   state,
		mempool: mempool,
		matrix:  matrix,
		runtime: rt,
		emitter: emitter,
		privKey: privKey,
		pubKey:  privKey.Public(),
		rewardsCfg: rewards.Config{
			SignatureRewardsMaxDelay: cfg.Era.SignatureRewardsMaxDelay,
			FindersFee:               toRational(cfg.Era.FindersFee),
			FinalitySignatureProportion: toRational(cfg.Era.FinalitySignatureProportion),
		},
	}
}

func toRational(f config.Fraction) rewards.Rational {
	return rewards.Rational{Num: f.Num, Den: f.Den}
}

// IsProposer reports whether this node should propose the next block.
func (p *PoA) IsProposer() bool {
	if len(p.cfg.Validators) == 0 {
		return false
	}
	nextHeight := p.bc.Height() + 1
	idx := int(nextHeight % int64(len(p.cfg.Validators)))
	return p.cfg.Validators[idx] == p.pubKey.Hex()
}

// blockLimits translates config.BlockLimitsConfig into core.BlockLimits.
func (p *PoA) blockLimits() core.BlockLimits {
	return BlockLimitsFromConfig(p.cfg)
}

// BlockLimitsFromConfig translates config.BlockLimitsConfig into
// core.BlockLimits. Exported so callers outside this package (cmd/node,
// wiring a blockvalidator.Validator alongside a PoA engine) admit under
// exactly the limits the proposer itself built against.
func BlockLimitsFromConfig(cfg *config.Config) core.BlockLimits {
	bl := cfg.BlockLimits
	return core.BlockLimits{
		MaxDeployCount:   bl.MaxDeployCount,
		MaxTransferCount: bl.MaxTransferCount,
		GasBudget:        bl.GasBudget,
		TimestampWindow:  time.Duration(bl.TimestampWindowMillis) * time.Millisecond,
	}
}

// isSwitchHeight reports whether nextHeight should close the current era,
// once it has run for at least the configured minimum era height.
func (p *PoA) isSwitchHeight(nextHeight int64) bool {
	return nextHeight-p.previousSwitchHeight >= int64(p.cfg.Era.MinimumEraHeight)
}

// ProduceBlock builds, signs, and commits the next block from pending
// mempool transactions, admitting them through an AppendableBlock under
// this node's own configured limits exactly as a peer validator would.
func (p *PoA) ProduceBlock() (*core.Block, error) {
	if !p.IsProposer() {
		return nil, errors.New("not the proposer for this round")
	}

	limit := p.cfg.MaxBlockTxs
	if limit <= 0 {
		limit = 500
	}
	pending := p.mempool.Pending(limit)

	tip := p.bc.Tip()
	var prevHash string
	var nextHeight int64
	var eraID uint64
	if tip == nil {
		prevHash = config.GenesisHash
		nextHeight = 1
		eraID = 1
	} else {
		prevHash = tip.Hash
		nextHeight = tip.Header.Height + 1
		eraID = tip.Header.EraID
		if tip.Header.IsSwitch {
			eraID++
		}
	}

	blockTime := time.Now()
	ab := core.NewAppendableBlock(blockTime, p.blockLimits())
	admitted := make([]*core.Transaction, 0, len(pending))
	for _, tx := range pending {
		footprint := tx.Footprint(1)
		if err := ab.Add(tx.Hash, footprint, nil); err != nil {
			continue // over budget or otherwise inadmissible; leave in mempool
		}
		admitted = append(admitted, tx)
	}

	isSwitch := p.isSwitchHeight(nextHeight)
	block := core.NewBlock(nextHeight, eraID, isSwitch, prevHash, p.pubKey.Hex(), admitted, nil)

	// Compute root from the write buffer BEFORE flushing so that if AddBlock
	// fails the state has not yet been persisted and the node stays consistent.
	block.Header.StateRoot = p.state.ComputeRoot()
	block.Sign(p.privKey)

	if err := p.bc.AddBlock(block); err != nil {
		return nil, fmt.Errorf("add block: %w", err)
	}

	// Flush state only after the block is safely stored.
	if err := p.state.Commit(); err != nil {
		log.Fatalf("[consensus] FATAL: block %d stored but state commit failed: %v",
			block.Header.Height, err)
	}

	p.emitter.Emit(events.Event{
		Type:        events.EventBlockCommit,
		BlockHeight: block.Header.Height,
		Data:        map[string]any{"hash": block.Hash, "txs": len(block.Transactions)},
	})

	hashes := make([]core.TransactionHash, len(admitted))
	for i, tx := range admitted {
		hashes[i] = tx.Hash
	}
	p.mempool.Remove(hashes)

	if isSwitch {
		p.onSwitchBlock(block)
	}

	return block, nil
}

// onSwitchBlock computes and emits the closing era's per-validator reward
// once a switch block has been committed. It does not itself disburse the
// reward into account balances; that is a state-transition concern outside
// the validator/reward-calculator core this package wires together.
func (p *PoA) onSwitchBlock(block *core.Block) {
	storage, ok := p.bc.Store().(rewards.Storage)
	if !ok {
		log.Printf("[consensus] block store does not implement rewards.Storage, skipping reward computation")
		p.previousSwitchHeight = block.Header.Height
		return
	}
	ri, err := rewards.NewRewardsInfo(storage, p.runtime, p.previousSwitchHeight, block.Header.Height+1, p.rewardsCfg)
	if err != nil {
		log.Printf("[consensus] era %d rewards info failed: %v", block.Header.EraID, err)
		p.previousSwitchHeight = block.Header.Height
		return
	}
	payouts, err := rewards.RewardsForEra(ri, block.Header.EraID, p.rewardsCfg)
	if err != nil {
		log.Printf("[consensus] era %d reward computation failed: %v", block.Header.EraID, err)
		p.previousSwitchHeight = block.Header.Height
		return
	}
	p.emitter.Emit(events.Event{
		Type:        events.EventEraRewardsComputed,
		BlockHeight: block.Header.Height,
		Data:        map[string]any{"era_id": block.Header.EraID, "payouts": payouts},
	})
	p.previousSwitchHeight = block.Header.Height
}

// ValidateBlock checks that block was proposed by the expected validator,
// structurally sound, and correctly linked to the local tip.
func (p *PoA) ValidateBlock(block *core.Block) error {
	if len(p.cfg.Validators) == 0 {
		return errors.New("no validators configured")
	}

	idx := int(block.Header.Height % int64(len(p.cfg.Validators)))
	expected := p.cfg.Validators[idx]
	if block.Header.Proposer != expected {
		return fmt.Errorf("wrong proposer: got %s want %s", block.Header.Proposer, expected)
	}

	pub, err := crypto.PubKeyFromHex(block.Header.Proposer)
	if err != nil {
		return fmt.Errorf("invalid proposer pubkey: %w", err)
	}
	// Verify() re-computes the header hash and checks the signature,
	// preventing acceptance of blocks with a tampered header.
	if err := block.Verify(pub); err != nil {
		return fmt.Errorf("block signature invalid: %w", err)
	}
	if err := block.VerifyIntegrity(); err != nil {
		return fmt.Errorf("block integrity check failed: %w", err)
	}

	now := time.Now().UnixNano()
	if block.Header.Timestamp > now+maxBlockTimeDrift {
		return fmt.Errorf("block timestamp too far in future: %d (now %d)", block.Header.Timestamp, now)
	}

	tip := p.bc.Tip()
	if tip == nil {
		if !config.IsGenesisHash(block.Header.PrevHash) {
			return errors.New("first block must reference genesis prev-hash")
		}
	} else {
		if block.Header.PrevHash != tip.Hash {
			return fmt.Errorf("prev_hash mismatch: got %s want %s", block.Header.PrevHash, tip.Hash)
		}
		if block.Header.Height != tip.Header.Height+1 {
			return fmt.Errorf("height mismatch: got %d want %d", block.Header.Height, tip.Header.Height+1)
		}
		if block.Header.Timestamp < tip.Header.Timestamp {
			return fmt.Errorf("block timestamp %d < previous block %d", block.Header.Timestamp, tip.Header.Timestamp)
		}
	}
	return nil
}

// Run starts the block-production loop with the given interval. It blocks
// until done is closed.
func (p *PoA) Run(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if p.IsProposer() {
				if _, err := p.ProduceBlock(); err != nil {
					log.Printf("[consensus] produce block error: %v", err)
				}
			}
		}
	}
}
