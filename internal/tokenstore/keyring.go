package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "planifika-cli"

// KeyringBackend stores values in the OS keychain/credential manager. Entries
// are scoped so sessions against different backends do not collide.
type KeyringBackend struct {
	scope string
}

// NewKeyringBackend creates a keyring backend for the given scope (usually
// the API base URL)
func NewKeyringBackend(scope string) *KeyringBackend {
	return &KeyringBackend{scope: scope}
}

func (k *KeyringBackend) account(key string) string {
	return fmt.Sprintf("%s-%s", key, k.scope)
}

func (k *KeyringBackend) Get(_ context.Context, key string) (string, bool, error) {
	v, err := keyring.Get(keyringService, k.account(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load %s from keyring: %w", key, err)
	}
	return v, true, nil
}

func (k *KeyringBackend) Set(_ context.Context, values map[string]string) error {
	for key, v := range values {
		if err := keyring.Set(keyringService, k.account(key), v); err != nil {
			return fmt.Errorf("failed to save %s to keyring: %w", key, err)
		}
	}
	return nil
}

func (k *KeyringBackend) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		if err := keyring.Delete(keyringService, k.account(key)); err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				continue // Already deleted
			}
			return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
		}
	}
	return nil
}

// SplitBackend routes secret keys to one backend and everything else to
// another. The CLI keeps the token in the keyring and the rest on disk.
type SplitBackend struct {
	secret     Backend
	plain      Backend
	secretKeys map[string]bool
}

// NewSplitBackend creates a backend sending secretKeys to secret
func NewSplitBackend(secret, plain Backend, secretKeys ...string) *SplitBackend {
	keys := make(map[string]bool, len(secretKeys))
	for _, k := range secretKeys {
		keys[k] = true
	}
	return &SplitBackend{secret: secret, plain: plain, secretKeys: keys}
}

// NewCLIBackend is the default CLI layout: token in the keyring, the rest in
// the session file
func NewCLIBackend(path, scope string) *SplitBackend {
	return NewSplitBackend(NewKeyringBackend(scope), NewFileBackend(path), KeyAuthToken)
}

func (s *SplitBackend) route(key string) Backend {
	if s.secretKeys[key] {
		return s.secret
	}
	return s.plain
}

func (s *SplitBackend) Get(ctx context.Context, key string) (string, bool, error) {
	return s.route(key).Get(ctx, key)
}

func (s *SplitBackend) Set(ctx context.Context, values map[string]string) error {
	secret, plain := s.partition(values)
	if len(plain) > 0 {
		if err := s.plain.Set(ctx, plain); err != nil {
			return err
		}
	}
	// Secrets last so a token never exists without its user record
	if len(secret) > 0 {
		if err := s.secret.Set(ctx, secret); err != nil {
			return err
		}
	}
	return nil
}

func (s *SplitBackend) Delete(ctx context.Context, keys ...string) error {
	var secret, plain []string
	for _, k := range keys {
		if s.secretKeys[k] {
			secret = append(secret, k)
		} else {
			plain = append(plain, k)
		}
	}
	// Token first so a half-finished delete leaves no usable session
	if len(secret) > 0 {
		if err := s.secret.Delete(ctx, secret...); err != nil {
			return err
		}
	}
	if len(plain) > 0 {
		if err := s.plain.Delete(ctx, plain...); err != nil {
			return err
		}
	}
	return nil
}

func (s *SplitBackend) partition(values map[string]string) (secret, plain map[string]string) {
	secret = map[string]string{}
	plain = map[string]string{}
	for k, v := range values {
		if s.secretKeys[k] {
			secret[k] = v
		} else {
			plain[k] = v
		}
	}
	return secret, plain
}
