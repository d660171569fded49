package wallet

import (
	"path/filepath"
	"testing"
)

func TestGenerateProducesUsableWallet(t *testing.T) {
	w, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(w.PubKey()) != 64 {
		t.Fatalf("pubkey hex length: got %d want 64", len(w.PubKey()))
	}
	if len(w.Address()) != 40 {
		t.Fatalf("address length: got %d want 40", len(w.Address()))
	}
}

func TestDeployBuildsSignedTransaction(t *testing.T) {
	w, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	tx := w.Deploy("wasm", []byte("body"), nil, 0, 1)
	if err := tx.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if tx.From != w.PubKey() {
		t.Fatalf("From: got %q want %q", tx.From, w.PubKey())
	}
}

func TestTransferBuildsSignedTransaction(t *testing.T) {
	w, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	tx := w.Transfer("recipient", 50, 0, 1)
	if err := tx.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if tx.Amount != 50 {
		t.Fatalf("Amount: got %d want 50", tx.Amount)
	}
}

func TestSaveKeyLoadKeyRoundTrip(t *testing.T) {
	w, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	path := filepath.Join(t.TempDir(), "keystore.json")

	if err := SaveKey(path, "correct horse battery staple", w.PrivKey()); err != nil {
		t.Fatalf("SaveKey: %v", err)
	}
	loaded, err := LoadKey(path, "correct horse battery staple")
	if err != nil {
		t.Fatalf("LoadKey: %v", err)
	}
	if loaded.Public().Hex() != w.PubKey() {
		t.Fatal("loaded key does not match original")
	}
}

func TestLoadKeyRejectsWrongPassword(t *testing.T) {
	w, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	path := filepath.Join(t.TempDir(), "keystore.json")
	if err := SaveKey(path, "password1", w.PrivKey()); err != nil {
		t.Fatalf("SaveKey: %v", err)
	}
	if _, err := LoadKey(path, "password2"); err == nil {
		t.Fatal("expected wrong password to fail")
	}
}
