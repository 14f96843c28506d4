package keys

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	jose "gopkg.in/square/go-jose.v2"
)

func TestNewManager_GeneratesAndPersists(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "signing_key.pem")

	m, err := NewManager(keyPath, slog.Default())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatalf("key file not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("key file mode = %v, want 0600", info.Mode().Perm())
	}

	if m.KeyID() == "" {
		t.Error("KeyID() should not be empty")
	}
}

func TestNewManager_LoadsExistingKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "signing_key.pem")

	first, err := NewManager(keyPath, slog.Default())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	second, err := NewManager(keyPath, slog.Default())
	if err != nil {
		t.Fatalf("NewManager() reload error = %v", err)
	}

	// Same key material across restarts
	if first.Public().N.Cmp(second.Public().N) != 0 {
		t.Error("reloaded key differs from generated key")
	}

	// kid is per-process, not persisted
	if first.KeyID() == second.KeyID() {
		t.Error("KeyID() should be regenerated per process")
	}
}

func TestNewManager_CorruptKeyIsFatal(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "signing_key.pem")
	if err := os.WriteFile(keyPath, []byte("not a pem file"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := NewManager(keyPath, slog.Default()); err == nil {
		t.Error("NewManager() with corrupt key file should return error")
	}
}

func TestNewManager_EphemeralKey(t *testing.T) {
	m, err := NewManager("", slog.Default())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if m.Public() == nil {
		t.Fatal("Public() returned nil")
	}
}

func TestManager_JWKS(t *testing.T) {
	m, err := NewManager("", slog.Default())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	jwks := m.JWKS()
	if len(jwks.Keys) != 1 {
		t.Fatalf("len(jwks.Keys) = %d, want 1", len(jwks.Keys))
	}

	key := jwks.Keys[0]
	if key.KeyID != m.KeyID() {
		t.Errorf("KeyID = %q, want %q", key.KeyID, m.KeyID())
	}
	if key.Algorithm != string(jose.RS256) {
		t.Errorf("Algorithm = %q, want RS256", key.Algorithm)
	}
	if key.Use != "sig" {
		t.Errorf("Use = %q, want sig", key.Use)
	}
	if !key.Valid() {
		t.Error("JWKS key is not valid")
	}
}

func TestManager_Signer(t *testing.T) {
	m, err := NewManager("", slog.Default())
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	signer, err := m.Signer()
	if err != nil {
		t.Fatalf("Signer() error = %v", err)
	}

	jws, err := signer.Sign([]byte(`{"sub":"demo"}`))
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	serialized, err := jws.CompactSerialize()
	if err != nil {
		t.Fatalf("CompactSerialize() error = %v", err)
	}

	parsed, err := jose.ParseSigned(serialized)
	if err != nil {
		t.Fatalf("ParseSigned() error = %v", err)
	}

	payload, err := parsed.Verify(m.Public())
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if string(payload) != `{"sub":"demo"}` {
		t.Errorf("payload = %q", payload)
	}

	header := parsed.Signatures[0].Header
	if header.KeyID != m.KeyID() {
		t.Errorf("header kid = %q, want %q", header.KeyID, m.KeyID())
	}
	if header.Algorithm != string(jose.RS256) {
		t.Errorf("header alg = %q, want RS256", header.Algorithm)
	}
}
