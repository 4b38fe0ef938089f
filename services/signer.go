package services

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignerService holds the private key the on-chain reward contracts
// trust as authorizer. The key may be absent (no SIGNER_PRIVATE_KEY in
// the environment); every caller must treat signing as best-effort and
// degrade instead of failing the request.
type SignerService struct {
	key *ecdsa.PrivateKey
}

// NewSignerService parses a hex-encoded secp256k1 key. An empty string
// yields a keyless signer rather than an error.
func NewSignerService(privKeyHex string) (*SignerService, error) {
	pkHex := strings.TrimPrefix(strings.TrimSpace(privKeyHex), "0x")
	if pkHex == "" {
		return &SignerService{}, nil
	}
	key, err := crypto.HexToECDSA(pkHex)
	if err != nil {
		return nil, fmt.Errorf("load signer key: %w", err)
	}
	return &SignerService{key: key}, nil
}

func (s *SignerService) HasKey() bool {
	return s.key != nil
}

// Address returns the ledger account the contracts expect signatures
// from. Zero address when no key is loaded.
func (s *SignerService) Address() common.Address {
	if s.key == nil {
		return common.Address{}
	}
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

// SignPersonal signs digest under the EIP-191 personal-message
// convention (prefix + keccak), which is what the claim contracts
// recover on-chain. V is normalized to 27/28 for ecrecover.
func (s *SignerService) SignPersonal(digest []byte) ([]byte, error) {
	if s.key == nil {
		return nil, ErrNoSigningKey
	}
	sig, err := crypto.Sign(accounts.TextHash(digest), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign digest: %w", err)
	}
	sig[64] += 27
	return sig, nil
}
