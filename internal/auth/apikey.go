package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	apiKeyScheme      = "sd"
	apiKeyPrefixBytes = 4
	apiKeySecretBytes = 32
)

// ErrMalformedAPIKey is returned when a key does not follow sd_<prefix>_<secret>.
var ErrMalformedAPIKey = errors.New("auth: malformed api key")

// APIKey is a freshly generated key. Plaintext is shown to the owner once.
type APIKey struct {
	Plaintext string
	Prefix    string
	Hash      string
}

// KeyGenerator creates and verifies API keys.
type KeyGenerator struct {
	cost int
}

// NewKeyGenerator returns a generator hashing with the given bcrypt cost.
func NewKeyGenerator(cost int) *KeyGenerator {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &KeyGenerator{cost: cost}
}

// Generate returns a new random key with its lookup prefix and bcrypt hash.
func (g *KeyGenerator) Generate() (APIKey, error) {
	prefixRaw := make([]byte, apiKeyPrefixBytes)
	if _, err := rand.Read(prefixRaw); err != nil {
		return APIKey{}, fmt.Errorf("generate key prefix: %w", err)
	}
	secretRaw := make([]byte, apiKeySecretBytes)
	if _, err := rand.Read(secretRaw); err != nil {
		return APIKey{}, fmt.Errorf("generate key secret: %w", err)
	}

	prefix := hex.EncodeToString(prefixRaw)
	secret := base64.RawURLEncoding.EncodeToString(secretRaw)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), g.cost)
	if err != nil {
		return APIKey{}, fmt.Errorf("hash key: %w", err)
	}

	return APIKey{
		Plaintext: apiKeyScheme + "_" + prefix + "_" + secret,
		Prefix:    prefix,
		Hash:      string(hash),
	}, nil
}

// ParseAPIKey splits a presented key into its prefix and secret.
func ParseAPIKey(raw string) (prefix, secret string, err error) {
	parts := strings.SplitN(strings.TrimSpace(raw), "_", 3)
	if len(parts) != 3 || parts[0] != apiKeyScheme || parts[1] == "" || parts[2] == "" {
		return "", "", ErrMalformedAPIKey
	}
	return parts[1], parts[2], nil
}

// VerifySecret reports whether secret matches the stored bcrypt hash.
func VerifySecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
