package crypto

import (
	"strings"
	"testing"
)

const (
	testAddress = "0x0000000000000000000000000000000000000001"
	// base64("0123456789abcdef0123456789abcdef")
	testSecret = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="
)

func TestL2HeadersKnownVectors(t *testing.T) {
	creds := &APICreds{
		Key:        "key-1",
		Secret:     testSecret,
		Passphrase: "pass-1",
	}

	cases := []struct {
		method, path, body string
		wantSig            string
	}{
		{"GET", "/orders", "", "d/8rYNiskB9DSmPVGBEqPIK9veia9oWolAp/uuLjkXA="},
		{"POST", "/order", `{"x":1}`, "2t4TPZwjv6fDsCqe3ug1x5NQWmGEc82naGXsZQIdsWE="},
	}

	for _, c := range cases {
		headers := creds.L2HeadersAt(testAddress, c.method, c.path, c.body, 1700000000)
		if got := headers["POLY_SIGNATURE"]; got != c.wantSig {
			t.Errorf("%s %s: signature %q, want %q", c.method, c.path, got, c.wantSig)
		}
		if headers["POLY_TIMESTAMP"] != "1700000000" {
			t.Errorf("timestamp header = %q", headers["POLY_TIMESTAMP"])
		}
		if headers["POLY_ADDRESS"] != testAddress || headers["POLY_API_KEY"] != "key-1" || headers["POLY_PASSPHRASE"] != "pass-1" {
			t.Errorf("identity headers wrong: %v", headers)
		}
	}
}

func TestL2HeadersBindMethodPathBody(t *testing.T) {
	creds := &APICreds{Key: "k", Secret: testSecret, Passphrase: "p"}

	base := creds.L2HeadersAt(testAddress, "GET", "/orders", "", 1700000000)
	variants := []map[string]string{
		creds.L2HeadersAt(testAddress, "DELETE", "/orders", "", 1700000000),
		creds.L2HeadersAt(testAddress, "GET", "/order", "", 1700000000),
		creds.L2HeadersAt(testAddress, "GET", "/orders", "{}", 1700000000),
		creds.L2HeadersAt(testAddress, "GET", "/orders", "", 1700000001),
	}
	for i, v := range variants {
		if v["POLY_SIGNATURE"] == base["POLY_SIGNATURE"] {
			t.Errorf("variant %d produced the same signature; message not bound", i)
		}
	}
}

func TestRedactedString(t *testing.T) {
	creds := &APICreds{Key: "key-12345", Secret: "supersecret", Passphrase: "p"}
	s := creds.String()
	if len(s) == 0 {
		t.Fatal("empty String()")
	}
	for _, leak := range []string{"key-12345", "supersecret"} {
		if strings.Contains(s, leak) {
			t.Errorf("String() leaks credential: %s", s)
		}
	}
}
