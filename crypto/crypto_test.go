package crypto

import "testing"

func TestGenerateKeyPairAndAddress(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	if len(pub.Hex()) != 64 {
		t.Fatalf("pubkey hex length: got %d want 64", len(pub.Hex()))
	}
	if len(pub.Address()) != 40 {
		t.Fatalf("address length: got %d want 40", len(pub.Address()))
	}
	if derived := priv.Public(); derived.Hex() != pub.Hex() {
		t.Fatal("derived public key does not match generated public key")
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	data := []byte("novachain block validation")
	sig := Sign(priv, data)
	if err := Verify(pub, data, sig); err != nil {
		t.Fatalf("valid signature failed to verify: %v", err)
	}
	if err := Verify(pub, []byte("tampered"), sig); err == nil {
		t.Fatal("expected verification of tampered data to fail")
	}
}

func TestVerifyRejectsMalformedSignatureHex(t *testing.T) {
	_, pub, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	if err := Verify(pub, []byte("data"), "not-hex!!"); err == nil {
		t.Fatal("expected malformed signature hex to fail verification")
	}
}

func TestPubKeyFromHexRoundTrip(t *testing.T) {
	_, pub, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	decoded, err := PubKeyFromHex(pub.Hex())
	if err != nil {
		t.Fatalf("PubKeyFromHex: %v", err)
	}
	if decoded.Hex() != pub.Hex() {
		t.Fatal("decoded public key does not match original")
	}
}

func TestPubKeyFromHexRejectsWrongLength(t *testing.T) {
	if _, err := PubKeyFromHex("abcd"); err == nil {
		t.Fatal("expected short hex string to be rejected")
	}
}

func TestHashIsDeterministic(t *testing.T) {
	data := []byte("same input")
	if Hash(data) != Hash(data) {
		t.Fatal("Hash must be deterministic for identical input")
	}
	if Hash(data) == Hash([]byte("different input")) {
		t.Fatal("Hash collided for different inputs (extremely unlikely, check implementation)")
	}
}
