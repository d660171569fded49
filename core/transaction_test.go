package core

import (
	"testing"

	"github.com/novabft/novachain/crypto"
)

func TestTransactionSignVerifyRoundTrip(t *testing.T) {
	priv, pub, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	tx := NewTransfer(pub.Hex(), "recipient-pubkey-hex", 100, 0, 1)
	tx.Sign(priv)

	if err := tx.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestTransactionVerifyRejectsTamperedAmount(t *testing.T) {
	priv, pub, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	tx := NewTransfer(pub.Hex(), "recipient-pubkey-hex", 100, 0, 1)
	tx.Sign(priv)

	tx.Amount = 1_000_000
	if err := tx.Verify(); err == nil {
		t.Fatal("expected tampered amount to fail verification")
	}
}

func TestTransactionFootprintTransferIsFlatCost(t *testing.T) {
	tx := NewTransfer("from", "to", 50, 0, 7)
	fp := tx.Footprint(10)
	if fp.GasCost != 1 {
		t.Fatalf("transfer gas cost: got %d want 1", fp.GasCost)
	}
	if fp.Size != 0 {
		t.Fatalf("transfer size: got %d want 0", fp.Size)
	}
}

func TestTransactionFootprintDeployScalesWithBodySize(t *testing.T) {
	body := make([]byte, 100)
	tx := NewDeploy("from", "wasm", body, nil, 0, 5)
	fp := tx.Footprint(2)
	if want := uint64(5) + uint64(100)*2; fp.GasCost != want {
		t.Fatalf("deploy gas cost: got %d want %d", fp.GasCost, want)
	}
	if fp.Size != 100 {
		t.Fatalf("deploy size: got %d want 100", fp.Size)
	}
}

func TestComputeTxRootEmptyIsStable(t *testing.T) {
	if ComputeTxRoot(nil) != ComputeTxRoot(nil) {
		t.Fatal("empty tx root must be deterministic")
	}
}

func TestComputeTxRootOrderSensitive(t *testing.T) {
	a := NewTransfer("a", "b", 1, 0, 1)
	a.Hash = a.ComputeHash()
	b := NewTransfer("c", "d", 2, 0, 1)
	b.Hash = b.ComputeHash()

	root1 := ComputeTxRoot([]*Transaction{a, b})
	root2 := ComputeTxRoot([]*Transaction{b, a})
	if root1 == root2 {
		t.Fatal("tx root should depend on transaction order")
	}
}
