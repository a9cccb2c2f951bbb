package crypto

import (
	"strings"
	"testing"
)

const (
	testKey      = "0123456789012345678901234567890123456789012345678901234567890123"
	testExchange = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner(testKey, 137, testExchange)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return s
}

func TestNewSignerRejectsBadKey(t *testing.T) {
	for _, key := range []string{"", "zz", "0x1234"} {
		if _, err := NewSigner(key, 137, testExchange); err == nil {
			t.Errorf("NewSigner(%q) accepted invalid key", key)
		}
	}
}

func TestNewSignerAcceptsHexPrefix(t *testing.T) {
	a, err := NewSigner(testKey, 137, testExchange)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSigner("0x"+testKey, 137, testExchange)
	if err != nil {
		t.Fatal(err)
	}
	if a.Address() != b.Address() {
		t.Errorf("prefix changed derived address: %s vs %s", a.Address(), b.Address())
	}
}

func TestSignAuthMessageDeterministic(t *testing.T) {
	s := newTestSigner(t)

	sig1, err := s.SignAuthMessage(1700000000, 0)
	if err != nil {
		t.Fatalf("SignAuthMessage: %v", err)
	}
	sig2, err := s.SignAuthMessage(1700000000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if sig1 != sig2 {
		t.Error("same inputs produced different signatures")
	}

	// 65 bytes hex with 0x prefix.
	if !strings.HasPrefix(sig1, "0x") || len(sig1) != 132 {
		t.Errorf("signature shape wrong: len=%d %q", len(sig1), sig1)
	}
	// Recovery byte normalized to 27/28.
	v := sig1[len(sig1)-2:]
	if v != "1b" && v != "1c" {
		t.Errorf("recovery byte %q, want 1b or 1c", v)
	}

	sig3, err := s.SignAuthMessage(1700000001, 0)
	if err != nil {
		t.Fatal(err)
	}
	if sig3 == sig1 {
		t.Error("different timestamp produced identical signature")
	}
}

func TestSignOrder(t *testing.T) {
	s := newTestSigner(t)

	payload := OrderPayload{
		Salt:          "12345",
		Maker:         s.Address().Hex(),
		Signer:        s.Address().Hex(),
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenID:       "7123456789",
		MakerAmount:   "5000000",
		TakerAmount:   "10000000",
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          0,
		SignatureType: 0,
	}

	sig1, err := s.SignOrder(payload)
	if err != nil {
		t.Fatalf("SignOrder: %v", err)
	}
	if !strings.HasPrefix(sig1, "0x") || len(sig1) != 132 {
		t.Errorf("signature shape wrong: len=%d", len(sig1))
	}

	// The order signature is domain-separated from the auth signature even
	// when bytes overlap.
	authSig, err := s.SignAuthMessage(1700000000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if sig1 == authSig {
		t.Error("order and auth signatures identical")
	}

	changed := payload
	changed.MakerAmount = "5000001"
	sig2, err := s.SignOrder(changed)
	if err != nil {
		t.Fatal(err)
	}
	if sig2 == sig1 {
		t.Error("changed amount produced identical signature")
	}
}

func TestSignOrderRejectsBadNumbers(t *testing.T) {
	s := newTestSigner(t)

	payload := OrderPayload{
		Salt:        "not-a-number",
		Maker:       s.Address().Hex(),
		Signer:      s.Address().Hex(),
		Taker:       "0x0000000000000000000000000000000000000000",
		TokenID:     "1",
		MakerAmount: "1",
		TakerAmount: "1",
		Expiration:  "0",
		Nonce:       "0",
		FeeRateBps:  "0",
	}
	if _, err := s.SignOrder(payload); err == nil {
		t.Error("SignOrder accepted non-numeric salt")
	}
}
