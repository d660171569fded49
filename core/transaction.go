package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/novabft/novachain/crypto"
)

// Transaction is the full body of a deploy or transfer, as fetched from
// local storage or from a peer. Hash.Kind distinguishes the two: a deploy
// carries a session (execution) payload and dependency set; a transfer
// carries a recipient and amount and never depends on other transactions.
//
// From holds the sender's full hex-encoded ed25519 public key. Signature
// covers every field below except Hash and Signature itself.
type Transaction struct {
	Hash         TransactionHash
	From         string
	Nonce        uint64
	GasPrice     uint64
	Timestamp    int64
	Dependencies []TransactionHash // deploys only; empty for transfers
	SessionKind  string            // deploys only: "wasm", "stored-contract", ...
	To           string            // transfers only: recipient pubkey hex
	Amount       uint64            // transfers only
	Body         []byte            // opaque session payload (deploys) or empty (transfers)
	Signature    string
}

// signingBytes deterministically serialises the fields covered by the
// signature, length-prefixing every variable-length field so that no two
// distinct field sets can collide on the same byte stream.
func (tx *Transaction) signingBytes() []byte {
	var buf []byte
	var lenBuf [4]byte

	appendStr := func(s string) {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, s...)
	}
	appendU64 := func(v uint64) {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v)
		buf = append(buf, b[:]...)
	}

	buf = append(buf, byte(tx.Hash.Kind))
	appendStr(tx.From)
	appendU64(tx.Nonce)
	appendU64(tx.GasPrice)
	appendU64(uint64(tx.Timestamp))
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(tx.Dependencies)))
	buf = append(buf, lenBuf[:]...)
	for _, d := range tx.Dependencies {
		buf = append(buf, d.Hash[:]...)
		buf = append(buf, byte(d.Kind))
	}
	appendStr(tx.SessionKind)
	appendStr(tx.To)
	appendU64(tx.Amount)
	appendStr(string(tx.Body))
	return buf
}

// ComputeHash derives the content hash of the transaction (sans Hash and
// Signature) and tags it with the transaction's own kind.
func (tx *Transaction) ComputeHash() TransactionHash {
	digest := crypto.HashBytes(tx.signingBytes())
	return NewTransactionHash(digest, tx.Hash.Kind)
}

// Sign computes the digest, sets Hash, and signs with the sender's key.
func (tx *Transaction) Sign(priv crypto.PrivateKey) {
	tx.Hash = tx.ComputeHash()
	tx.Signature = crypto.Sign(priv, tx.Hash.Hash[:])
}

// Verify checks the signature and that the stored Hash matches the
// recomputed digest, rejecting transactions tampered with after signing.
func (tx *Transaction) Verify() error {
	if tx.From == "" {
		return errors.New("missing from field")
	}
	pub, err := crypto.PubKeyFromHex(tx.From)
	if err != nil {
		return fmt.Errorf("invalid from (must be ed25519 pubkey hex): %w", err)
	}
	if computed := tx.ComputeHash(); computed != tx.Hash {
		return fmt.Errorf("transaction hash mismatch: stored %s computed %s", tx.Hash, computed)
	}
	return crypto.Verify(pub, tx.Hash.Hash[:], tx.Signature)
}

// Footprint computes the deterministic resource profile used by
// AppendableBlock admission. gasPerUnit scales a deploy's body size into a
// gas cost estimate; transfers always cost a flat unit of gas.
func (tx *Transaction) Footprint(gasPerUnit uint64) DeployFootprint {
	size := uint64(len(tx.Body))
	gas := tx.GasPrice
	if tx.Hash.Kind == KindDeploy {
		gas += size * gasPerUnit
	} else {
		gas = 1
		size = 0
	}
	return DeployFootprint{
		GasCost:      gas,
		Size:         size,
		BodyHash:     crypto.Hash(tx.Body),
		SessionKind:  tx.SessionKind,
		Dependencies: tx.Dependencies,
		Timestamp:    tx.Timestamp,
	}
}

// NewDeploy creates an unsigned deploy stamped with the current time.
func NewDeploy(from, sessionKind string, body []byte, deps []TransactionHash, nonce, gasPrice uint64) *Transaction {
	return &Transaction{
		Hash:         TransactionHash{Kind: KindDeploy},
		From:         from,
		Nonce:        nonce,
		GasPrice:     gasPrice,
		Timestamp:    time.Now().UnixNano(),
		Dependencies: deps,
		SessionKind:  sessionKind,
		Body:         body,
	}
}

// NewTransfer creates an unsigned token transfer stamped with the current time.
func NewTransfer(from, to string, amount, nonce, gasPrice uint64) *Transaction {
	return &Transaction{
		Hash:      TransactionHash{Kind: KindTransfer},
		From:      from,
		To:        to,
		Amount:    amount,
		Nonce:     nonce,
		GasPrice:  gasPrice,
		Timestamp: time.Now().UnixNano(),
	}
}
