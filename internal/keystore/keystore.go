// Package keystore is the secure credential store: the persisted access
// token, refresh token and user record, sealed with AES-256-GCM under a key
// derived from a per-device secret. It stands in for the platform keychain
// on installs that lack one.
package keystore

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/CrazyNoDota/nomadway-sub000/internal/crypto"
	"github.com/CrazyNoDota/nomadway-sub000/internal/models"
)

const (
	secretFile = "device.secret"
	saltFile   = "vault.salt"
	vaultFile  = "vault.bin"
)

// Credentials is the persisted authentication state.
type Credentials struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user,omitempty"`
}

// Keystore seals credentials to disk under a device-derived key.
type Keystore struct {
	dir string
	key []byte
}

// Open prepares the keystore in dir, generating the device secret and salt
// on first use. The derived sealing key is held for the process lifetime.
func Open(dir string) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}

	secret, err := loadOrCreateHex(filepath.Join(dir, secretFile), crypto.NewDeviceSecret)
	if err != nil {
		return nil, fmt.Errorf("device secret: %w", err)
	}
	salt, err := loadOrCreateHex(filepath.Join(dir, saltFile), crypto.NewSalt)
	if err != nil {
		return nil, fmt.Errorf("vault salt: %w", err)
	}

	key, err := crypto.DeriveKey(secret, salt)
	if err != nil {
		return nil, fmt.Errorf("derive vault key: %w", err)
	}

	return &Keystore{dir: dir, key: key}, nil
}

// Load reads the persisted credentials. Returns (nil, nil) when no
// credentials have been saved.
func (k *Keystore) Load() (*Credentials, error) {
	sealed, err := os.ReadFile(filepath.Join(k.dir, vaultFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read vault: %w", err)
	}

	plaintext, err := crypto.Decrypt(k.key, sealed)
	if err != nil {
		return nil, fmt.Errorf("unseal vault: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, fmt.Errorf("decode vault: %w", err)
	}
	return &creds, nil
}

// Save seals and persists the credentials atomically (temp file + rename).
func (k *Keystore) Save(creds *Credentials) error {
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode vault: %w", err)
	}

	sealed, err := crypto.Encrypt(k.key, plaintext)
	if err != nil {
		return fmt.Errorf("seal vault: %w", err)
	}

	return writeAtomic(filepath.Join(k.dir, vaultFile), sealed)
}

// Clear removes the persisted credentials. Missing vault is not an error.
func (k *Keystore) Clear() error {
	err := os.Remove(filepath.Join(k.dir, vaultFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear vault: %w", err)
	}
	return nil
}

// loadOrCreateHex reads a hex-encoded secret from path, generating and
// persisting one with gen when the file does not exist.
func loadOrCreateHex(path string, gen func() ([]byte, error)) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		raw, decErr := hex.DecodeString(strings.TrimSpace(string(data)))
		if decErr != nil {
			return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), decErr)
		}
		return raw, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	raw, err := gen()
	if err != nil {
		return nil, err
	}
	if err := writeAtomic(path, []byte(hex.EncodeToString(raw))); err != nil {
		return nil, err
	}
	return raw, nil
}

// writeAtomic writes data to path via a temp file in the same directory,
// with 0600 permissions.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, path)
}
