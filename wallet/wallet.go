package wallet

import (
	"github.com/novabft/novachain/core"
	"github.com/novabft/novachain/crypto"
)

// Wallet holds a key pair and provides transaction-building helpers.
type Wallet struct {
	priv crypto.PrivateKey
	pub  crypto.PublicKey
}

// New creates a Wallet from an existing private key.
func New(priv crypto.PrivateKey) *Wallet {
	return &Wallet{priv: priv, pub: priv.Public()}
}

// Generate creates a Wallet with a freshly generated key pair.
func Generate() (*Wallet, error) {
	priv, _, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return New(priv), nil
}

// PrivKey returns the raw private key (handle with care).
func (w *Wallet) PrivKey() crypto.PrivateKey {
	return w.priv
}

// PubKey returns the hex-encoded ed25519 public key (used as "from" address).
func (w *Wallet) PubKey() string {
	return w.pub.Hex()
}

// Address returns the short human-readable address (first 20 bytes of SHA-256(pubkey)).
func (w *Wallet) Address() string {
	return w.pub.Address()
}

// Deploy builds and signs a deploy transaction carrying an opaque session
// payload and its declared dependencies.
func (w *Wallet) Deploy(sessionKind string, body []byte, deps []core.TransactionHash, nonce, gasPrice uint64) *core.Transaction {
	tx := core.NewDeploy(w.pub.Hex(), sessionKind, body, deps, nonce, gasPrice)
	tx.Sign(w.priv)
	return tx
}

// Transfer builds and signs a token transfer transaction.
func (w *Wallet) Transfer(to string, amount, nonce, gasPrice uint64) *core.Transaction {
	tx := core.NewTransfer(w.pub.Hex(), to, amount, nonce, gasPrice)
	tx.Sign(w.priv)
	return tx
}
