package core

import "testing"

func TestTransactionHashKindNotDerivedFromBytes(t *testing.T) {
	digest := make([]byte, 32)
	digest[0] = 0xAB
	deploy := NewTransactionHash(digest, KindDeploy)
	transfer := NewTransactionHash(digest, KindTransfer)
	if deploy == transfer {
		t.Fatal("two hashes with identical bytes but different kinds must not be equal")
	}
	if deploy.Hex() != transfer.Hex() {
		t.Fatal("Hex should ignore kind and reflect only the raw digest")
	}
}

func TestTxKindString(t *testing.T) {
	if KindDeploy.String() != "deploy" {
		t.Fatalf("got %q want %q", KindDeploy.String(), "deploy")
	}
	if KindTransfer.String() != "transfer" {
		t.Fatalf("got %q want %q", KindTransfer.String(), "transfer")
	}
}
