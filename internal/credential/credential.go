// Package credential keeps secrets such as the sync token either next to the
// records in the preference store or in the OS keyring.
package credential

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"

	"github.com/Tiliavir/daybook/internal/config"
	"github.com/Tiliavir/daybook/internal/prefs"
)

const serviceName = "daybook"

// Vault stores string secrets by key.
type Vault interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Open returns the vault selected by conf.Backend.
func Open(conf config.AuthConfig, store prefs.Store) (Vault, error) {
	switch conf.Backend {
	case "keyring":
		ring, err := openKeyring()
		if err != nil {
			return nil, err
		}
		return NewKeyringVault(ring), nil
	case "prefs", "":
		return NewPrefsVault(store), nil
	default:
		return nil, fmt.Errorf("unknown auth backend %q", conf.Backend)
	}
}

// openKeyring returns the system keyring, falling back to an encrypted file
// under the data directory.
func openKeyring() (keyring.Keyring, error) {
	base, err := config.BaseDir()
	if err != nil {
		return nil, err
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(base, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("daybook-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// PrefsVault stores secrets as plain preference values.
type PrefsVault struct {
	store prefs.Store
}

func NewPrefsVault(store prefs.Store) *PrefsVault {
	return &PrefsVault{store: store}
}

func (v *PrefsVault) Get(ctx context.Context, key string) (string, bool, error) {
	return v.store.GetString(ctx, key)
}

func (v *PrefsVault) Set(ctx context.Context, key, value string) error {
	return v.store.PutString(ctx, key, value)
}

func (v *PrefsVault) Delete(ctx context.Context, key string) error {
	return v.store.Delete(ctx, key)
}

// KeyringVault stores secrets in a keyring.
type KeyringVault struct {
	ring keyring.Keyring
}

func NewKeyringVault(ring keyring.Keyring) *KeyringVault {
	return &KeyringVault{ring: ring}
}

func (v *KeyringVault) Get(_ context.Context, key string) (string, bool, error) {
	item, err := v.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), true, nil
}

func (v *KeyringVault) Set(_ context.Context, key, value string) error {
	err := v.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: serviceName + " " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

func (v *KeyringVault) Delete(_ context.Context, key string) error {
	err := v.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}
