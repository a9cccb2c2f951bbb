// Package wallet resolves named trading identities to EIP-712 signers. Key
// generation and encryption-at-rest live outside this process; keys arrive
// through configuration or environment.
package wallet

import (
	"fmt"
	"os"
	"strings"

	"wxarb/internal/crypto"
	"wxarb/internal/domain"
)

// Provider resolves a wallet name to a signing identity.
type Provider interface {
	// Signer returns the signer for the named wallet, or
	// domain.ErrNotFound if the name is unknown.
	Signer(name string) (*crypto.Signer, error)
}

// EnvProvider resolves wallets from configured keys, falling back to
// WXARB_WALLET_<NAME>_KEY environment variables. All signers share the same
// chain and exchange parameters.
type EnvProvider struct {
	keys         map[string]string // wallet name -> hex private key
	chainID      int
	exchangeAddr string
}

// NewEnvProvider creates a provider over the given name->key map. A nil map
// is allowed; lookups then consult the environment only.
func NewEnvProvider(keys map[string]string, chainID int, exchangeAddr string) *EnvProvider {
	if keys == nil {
		keys = make(map[string]string)
	}
	return &EnvProvider{
		keys:         keys,
		chainID:      chainID,
		exchangeAddr: exchangeAddr,
	}
}

// Signer implements Provider.
func (p *EnvProvider) Signer(name string) (*crypto.Signer, error) {
	key, ok := p.keys[name]
	if !ok {
		envName := "WXARB_WALLET_" + strings.ToUpper(name) + "_KEY"
		key = os.Getenv(envName)
	}
	if key == "" {
		return nil, fmt.Errorf("wallet: %w: %q", domain.ErrNotFound, name)
	}

	signer, err := crypto.NewSigner(key, p.chainID, p.exchangeAddr)
	if err != nil {
		return nil, fmt.Errorf("wallet: %q: %w", name, err)
	}
	return signer, nil
}
