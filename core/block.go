package core

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/novabft/novachain/crypto"
)

// BlockHeader contains the block metadata that is hashed and signed.
type BlockHeader struct {
	Height    int64  `json:"height"`
	EraID     uint64 `json:"era_id"`
	IsSwitch  bool   `json:"is_switch"` // true for the last block of an era
	PrevHash  string `json:"prev_hash"`
	StateRoot string `json:"state_root"` // hash of state after executing this block
	TxRoot    string `json:"tx_root"`    // hash of all transaction hashes
	Timestamp int64  `json:"timestamp"`
	Proposer  string `json:"proposer"` // proposer's pubkey hex
	// RewardedSignatures[i] lists the signer pubkeys this block cites as
	// having finalized the block at height-1-i. Consensus-relevant: a
	// finality signature only earns reward once some block cites it.
	RewardedSignatures [][]string `json:"rewarded_signatures,omitempty"`
}

// Block is a collection of transactions with a signed header.
type Block struct {
	Header       BlockHeader    `json:"header"`
	Transactions []*Transaction `json:"transactions"`
	Hash         string         `json:"hash"`
	Signature    string         `json:"signature"`
}

// DeployHashes returns the hashes of every deploy-kind transaction in the
// block, in inclusion order.
func (b *Block) DeployHashes() []TransactionHash {
	var out []TransactionHash
	for _, tx := range b.Transactions {
		if tx.Hash.Kind == KindDeploy {
			out = append(out, tx.Hash)
		}
	}
	return out
}

// TransferHashes returns the hashes of every transfer-kind transaction in
// the block, in inclusion order.
func (b *Block) TransferHashes() []TransactionHash {
	var out []TransactionHash
	for _, tx := range b.Transactions {
		if tx.Hash.Kind == KindTransfer {
			out = append(out, tx.Hash)
		}
	}
	return out
}

// ComputeHash returns the SHA-256 hash of the serialised header.
// Returns an empty string if marshalling fails (which cannot happen in practice).
func (b *Block) ComputeHash() string {
	data, err := json.Marshal(b.Header)
	if err != nil {
		return ""
	}
	return crypto.Hash(data)
}

// Sign sets Hash and signs the block with the proposer's private key.
func (b *Block) Sign(priv crypto.PrivateKey) {
	b.Hash = b.ComputeHash()
	b.Signature = crypto.Sign(priv, []byte(b.Hash))
}

// Verify checks that b.Hash matches the recomputed header hash and that the
// signature is valid. This prevents accepting blocks whose header was tampered
// with after signing.
func (b *Block) Verify(pub crypto.PublicKey) error {
	if computed := b.ComputeHash(); b.Hash != computed {
		return fmt.Errorf("block hash mismatch: stored %s computed %s", b.Hash, computed)
	}
	return crypto.Verify(pub, []byte(b.Hash), b.Signature)
}

// VerifyIntegrity checks the structural integrity of a block independently of
// the proposer signature: hash consistency and TxRoot correctness.
func (b *Block) VerifyIntegrity() error {
	if computed := b.ComputeHash(); b.Hash != computed {
		return fmt.Errorf("block hash mismatch: stored %s computed %s", b.Hash, computed)
	}
	if txRoot := ComputeTxRoot(b.Transactions); b.Header.TxRoot != txRoot {
		return errors.New("tx_root mismatch")
	}
	return nil
}

// ComputeTxRoot builds a deterministic root hash from all transaction
// hashes. Each hash is tagged with its kind and length-prefixed to prevent
// boundary ambiguity where different hash sets could otherwise produce the
// same byte sequence.
func ComputeTxRoot(txs []*Transaction) string {
	if len(txs) == 0 {
		return crypto.Hash([]byte("empty"))
	}
	var buf bytes.Buffer
	var lenBuf [4]byte
	for _, tx := range txs {
		raw := tx.Hash.Hex()
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(raw)))
		buf.Write(lenBuf[:])
		buf.WriteString(raw)
		buf.WriteByte(byte(tx.Hash.Kind))
	}
	return crypto.Hash(buf.Bytes())
}

// NewBlock creates an unsigned block with the given parameters.
func NewBlock(height int64, eraID uint64, isSwitch bool, prevHash, proposer string, txs []*Transaction, rewardedSignatures [][]string) *Block {
	return &Block{
		Header: BlockHeader{
			Height:             height,
			EraID:              eraID,
			IsSwitch:           isSwitch,
			PrevHash:           prevHash,
			TxRoot:             ComputeTxRoot(txs),
			Timestamp:          time.Now().UnixNano(),
			Proposer:           proposer,
			RewardedSignatures: rewardedSignatures,
		},
		Transactions: txs,
	}
}

// ToProposedBlock projects a fully assembled block down to the proposal
// shape the block validator checks before a peer's block is admitted into
// the chain. Approvals are left empty: by the time a block has been built
// and signed, co-signer approval bookkeeping already happened upstream in
// the proposer's mempool admission, not at this structural-review step.
func (b *Block) ToProposedBlock(ancestorValues []CitedBlock) *ProposedBlock {
	deployHashes := b.DeployHashes()
	deploys := make([]TxHashApproval, len(deployHashes))
	for i, h := range deployHashes {
		deploys[i] = TxHashApproval{Hash: h}
	}
	transferHashes := b.TransferHashes()
	transfers := make([]TxHashApproval, len(transferHashes))
	for i, h := range transferHashes {
		transfers[i] = TxHashApproval{Hash: h}
	}
	return &ProposedBlock{
		Timestamp:          b.Header.Timestamp,
		Proposer:           b.Header.Proposer,
		AncestorValues:     ancestorValues,
		Deploys:            deploys,
		Transfers:          transfers,
		RewardedSignatures: b.Header.RewardedSignatures,
	}
}

// ToCitedBlock projects the block down to the minimal view the era reward
// calculator needs. isGenesis is passed in rather than derived, since
// genesis is a chain-configuration fact (height 0 with no predecessor),
// not a property the header itself encodes.
func (b *Block) ToCitedBlock(isGenesis bool) *CitedBlock {
	return &CitedBlock{
		Height:             b.Header.Height,
		EraID:              b.Header.EraID,
		Proposer:           b.Header.Proposer,
		RewardedSignatures: b.Header.RewardedSignatures,
		StateRootHash:      b.Header.StateRoot,
		IsSwitch:           b.Header.IsSwitch,
		IsGenesis:          isGenesis,
	}
}
