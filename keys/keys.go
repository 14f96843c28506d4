package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	jose "gopkg.in/square/go-jose.v2"
)

const (
	// rsaKeyBits is the modulus size for generated signing keys
	rsaKeyBits = 2048

	// keyFileMode restricts the persisted key to the owning user
	keyFileMode = 0600

	// pemBlockType is the PEM block type for PKCS#1 private keys
	pemBlockType = "RSA PRIVATE KEY"
)

// Manager owns the server's RSA signing key. The key is loaded from a PEM
// file when one exists and generated (and persisted) otherwise, so tokens
// stay verifiable across restarts. The key ID is regenerated per process;
// verifiers are expected to fetch the JWKS rather than pin a kid.
type Manager struct {
	privateKey *rsa.PrivateKey
	keyID      string
	logger     *slog.Logger
}

// NewManager loads the signing key from keyPath, generating a fresh 2048-bit
// RSA key and writing it to keyPath when the file does not exist. An empty
// keyPath keeps the generated key in memory only.
//
// A key file that exists but cannot be parsed is a hard error: silently
// generating a replacement would invalidate every outstanding token.
func NewManager(keyPath string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		keyID:  uuid.NewString(),
		logger: logger,
	}

	if keyPath != "" {
		key, err := loadKey(keyPath)
		if err == nil {
			m.privateKey = key
			logger.Info("Loaded signing key", "path", keyPath, "kid", m.keyID)
			return m, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load signing key: %w", err)
		}
	}

	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}
	m.privateKey = key

	if keyPath != "" {
		if err := saveKey(keyPath, key); err != nil {
			return nil, fmt.Errorf("failed to persist signing key: %w", err)
		}
		logger.Info("Generated signing key", "path", keyPath, "kid", m.keyID)
	} else {
		logger.Info("Generated ephemeral signing key", "kid", m.keyID)
	}

	return m, nil
}

// KeyID returns the key identifier published in the JWKS and stamped into
// each token's header.
func (m *Manager) KeyID() string {
	return m.keyID
}

// Public returns the public half of the signing key.
func (m *Manager) Public() *rsa.PublicKey {
	return &m.privateKey.PublicKey
}

// Signer returns a jose signer that produces RS256 compact JWTs carrying the
// manager's kid and a "typ: JWT" header.
func (m *Manager) Signer() (jose.Signer, error) {
	signingKey := jose.SigningKey{
		Algorithm: jose.RS256,
		Key: jose.JSONWebKey{
			Key:   m.privateKey,
			KeyID: m.keyID,
		},
	}

	signer, err := jose.NewSigner(signingKey, (&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	return signer, nil
}

// JWKS returns the public key set served at the JWKS endpoint.
func (m *Manager) JWKS() *jose.JSONWebKeySet {
	return &jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{
			{
				Key:       &m.privateKey.PublicKey,
				KeyID:     m.keyID,
				Algorithm: string(jose.RS256),
				Use:       "sig",
			},
		},
	}
}

func loadKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemBlockType {
		return nil, fmt.Errorf("no %s PEM block in %s", pemBlockType, path)
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key from %s: %w", path, err)
	}

	return key, nil
}

func saveKey(path string, key *rsa.PrivateKey) error {
	block := &pem.Block{
		Type:  pemBlockType,
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}

	return os.WriteFile(path, pem.EncodeToMemory(block), keyFileMode)
}
