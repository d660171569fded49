package core

import "encoding/hex"

// TxKind tags what a TransactionHash refers to. The kind is carried
// alongside the hash itself rather than derived from the hash bytes, since
// two otherwise-identical 32-byte digests must never collide across kinds.
type TxKind uint8

const (
	KindDeploy TxKind = iota
	KindTransfer
)

func (k TxKind) String() string {
	switch k {
	case KindDeploy:
		return "deploy"
	case KindTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// TransactionHash opaquely identifies a transaction body along with the
// kind it was proposed as. Two hashes with the same bytes but different
// kinds are distinct identifiers.
type TransactionHash struct {
	Hash [32]byte
	Kind TxKind
}

// NewTransactionHash wraps raw digest bytes with a kind tag. digest must be
// exactly 32 bytes.
func NewTransactionHash(digest []byte, kind TxKind) TransactionHash {
	var h TransactionHash
	h.Kind = kind
	copy(h.Hash[:], digest)
	return h
}

// Hex returns the lowercase hex encoding of the raw hash bytes.
func (h TransactionHash) Hex() string {
	return hex.EncodeToString(h.Hash[:])
}

// String renders the hash with its kind, useful in logs.
func (h TransactionHash) String() string {
	return h.Kind.String() + ":" + h.Hex()
}
