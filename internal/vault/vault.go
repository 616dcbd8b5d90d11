// Package vault implements the credential vault: a master password guards a
// random data key that encrypts every stored credential password.
package vault

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aardel/launchpad/internal/crypto"
	"github.com/aardel/launchpad/internal/store"
	"github.com/aardel/launchpad/internal/validation"
)

const (
	metaVersion = 1
	verifyText  = "launchpad-verify-v1"
)

// State is the vault lifecycle state.
type State int

const (
	StateNotSetup State = iota
	StateLocked
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	}
	return "not set up"
}

// Vault guards credential encryption behind the master password.
// A new Vault always starts locked.
type Vault struct {
	store   store.Store
	params  crypto.KDFParams
	session *Session // nil when locked
	mu      sync.RWMutex
}

// Option configures a Vault.
type Option func(*Vault)

// WithKDFParams sets the Argon2id cost used by Setup and ChangePassword.
func WithKDFParams(p crypto.KDFParams) Option {
	return func(v *Vault) { v.params = p }
}

// New returns a locked vault backed by s.
func New(s store.Store, opts ...Option) *Vault {
	v := &Vault{
		store:  s,
		params: crypto.DefaultKDFParams(),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// State reports the current lifecycle state.
func (v *Vault) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.stateLocked()
}

// stateLocked computes the state. The caller must hold v.mu.
func (v *Vault) stateLocked() State {
	if v.session != nil {
		return StateUnlocked
	}
	if _, err := v.store.GetMeta(); err != nil {
		return StateNotSetup
	}
	return StateLocked
}

// IsSetup reports whether a master password has been created.
func (v *Vault) IsSetup() bool { return v.State() != StateNotSetup }

// IsUnlocked reports whether the decryption key is available.
func (v *Vault) IsUnlocked() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.session != nil
}

// Session returns the active session, or ErrLocked.
func (v *Vault) Session() (*Session, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.session == nil {
		return nil, ErrLocked
	}
	return v.session, nil
}

// Setup creates the master password and leaves the vault unlocked.
func (v *Vault) Setup(password string) error {
	if err := validation.MasterPassword(password); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, err := v.store.GetMeta(); err == nil {
		return ErrAlreadySetup
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("get meta: %w", err)
	}

	dek, err := crypto.GenerateKey()
	if err != nil {
		return fmt.Errorf("generate data key: %w", err)
	}

	now := time.Now().UTC()
	meta := &store.VaultMeta{
		Version:   metaVersion,
		CreatedAt: now,
		VaultID:   uuid.New().String(),
	}
	if err := v.wrap(meta, password, dek); err != nil {
		crypto.ZeroBytes(dek)
		return err
	}

	if err := v.store.SetMeta(meta); err != nil {
		crypto.ZeroBytes(dek)
		return fmt.Errorf("set meta: %w", err)
	}

	v.swap(newSession(dek))
	return nil
}

// Unlock verifies password and activates the data key. Unlocking an already
// unlocked vault with the right password leaves the current session in place.
func (v *Vault) Unlock(password string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	meta, err := v.getMeta()
	if err != nil {
		return err
	}

	dek, err := unwrap(meta, password)
	if err != nil {
		return err
	}

	if v.session != nil {
		crypto.ZeroBytes(dek)
		return nil
	}
	v.swap(newSession(dek))
	return nil
}

// Lock destroys the session. It always succeeds and is idempotent.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.swap(nil)
}

// ChangePassword re-wraps the data key under newPassword. The new key
// material is written in a single store transaction, so a failure leaves the
// old password in effect. Stored credentials are not touched.
func (v *Vault) ChangePassword(oldPassword, newPassword string) error {
	if err := validation.MasterPassword(newPassword); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	meta, err := v.getMeta()
	if err != nil {
		return err
	}

	dek, err := unwrap(meta, oldPassword)
	if err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return ErrInvalidOldPassword
		}
		return err
	}

	updated := *meta
	if err := v.wrap(&updated, newPassword, dek); err != nil {
		crypto.ZeroBytes(dek)
		return err
	}
	updated.UpdatedAt = time.Now().UTC()

	if err := v.store.SetMeta(&updated); err != nil {
		crypto.ZeroBytes(dek)
		return fmt.Errorf("update meta: %w", err)
	}

	v.swap(newSession(dek))
	return nil
}

// Encrypt seals plaintext with the active session. It never returns the
// plaintext on failure.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	s, err := v.Session()
	if err != nil {
		return "", err
	}
	return s.Encrypt(plaintext)
}

// Decrypt opens ciphertext with the active session.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	s, err := v.Session()
	if err != nil {
		return "", err
	}
	return s.Decrypt(ciphertext)
}

// ResetVault irreversibly deletes the master password and every stored
// credential password. Other item fields are kept. It returns the number of
// items whose password was removed.
func (v *Vault) ResetVault() (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	cleared, err := v.store.ResetVault()
	if err != nil {
		return 0, fmt.Errorf("reset vault: %w", err)
	}
	v.swap(nil)
	return cleared, nil
}

// swap replaces the session in one assignment. The caller must hold v.mu.
func (v *Vault) swap(s *Session) {
	old := v.session
	v.session = s
	if old != nil {
		old.destroy()
	}
}

func (v *Vault) getMeta() (*store.VaultMeta, error) {
	meta, err := v.store.GetMeta()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotSetup
		}
		return nil, fmt.Errorf("get meta: %w", err)
	}
	return meta, nil
}

// wrap derives a KEK for password under a fresh salt and stores the wrapped
// data key and verifier in meta.
func (v *Vault) wrap(meta *store.VaultMeta, password string, dek []byte) error {
	salt, err := crypto.GenerateSalt()
	if err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}

	kek, err := crypto.DeriveKey([]byte(password), salt, v.params)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	defer crypto.ZeroBytes(kek)

	verifier, err := crypto.Encrypt(kek, []byte(verifyText), crypto.PurposeVerifier)
	if err != nil {
		return fmt.Errorf("create verifier: %w", err)
	}
	wrapped, err := crypto.Encrypt(kek, dek, crypto.PurposeKeyWrap)
	if err != nil {
		return fmt.Errorf("wrap data key: %w", err)
	}

	meta.Salt = salt
	meta.KDF = v.params
	meta.Verifier = verifier
	meta.WrappedKey = wrapped
	return nil
}

// unwrap verifies password against meta and returns the data key.
// The caller owns the returned key.
func unwrap(meta *store.VaultMeta, password string) ([]byte, error) {
	kek, err := crypto.DeriveKey([]byte(password), meta.Salt, meta.KDF)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	defer crypto.ZeroBytes(kek)

	plaintext, err := crypto.Decrypt(kek, meta.Verifier, crypto.PurposeVerifier)
	if err != nil || !crypto.Equal(plaintext, []byte(verifyText)) {
		return nil, ErrInvalidPassword
	}

	dek, err := crypto.Decrypt(kek, meta.WrappedKey, crypto.PurposeKeyWrap)
	if err != nil {
		return nil, fmt.Errorf("unwrap data key: %w", err)
	}
	return dek, nil
}
