// Package payer loads the custodial wallet that funds reward transfers.
//
// The secret is a base58-encoded 64-byte Solana keypair (32-byte Ed25519 seed
// followed by the 32-byte public key), the same format produced by
// `solana-keygen` and wallet exports.
package payer

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"strings"

	solana "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// KeypairLen is the decoded length of a Solana keypair secret.
const KeypairLen = ed25519.PrivateKeySize

// Identity is the signing keypair of the payer wallet. It is created once at
// startup and never mutated, so concurrent readers need no locking.
type Identity struct {
	key     solana.PrivateKey
	address solana.PublicKey
}

// FromBase58 decodes and validates the payer secret.
func FromBase58(secret string) (*Identity, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("payer: secret is empty")
	}
	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("payer: decode base58: %w", err)
	}
	if len(raw) != KeypairLen {
		return nil, fmt.Errorf("payer: secret must decode to %d bytes (got %d)", KeypairLen, len(raw))
	}

	// The trailing public key must match the seed, otherwise every signature
	// would be rejected by the network.
	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], raw[ed25519.SeedSize:]) {
		return nil, fmt.Errorf("payer: public key does not match seed")
	}

	key := solana.PrivateKey(raw)
	return &Identity{key: key, address: key.PublicKey()}, nil
}

// Address returns the payer's public wallet address.
func (id *Identity) Address() solana.PublicKey { return id.address }

// PrivateKey returns the signing key (for transaction signing).
func (id *Identity) PrivateKey() solana.PrivateKey { return id.key }

// String renders the public address only; the secret is never printed.
func (id *Identity) String() string { return id.address.String() }
