package vault

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aardel/launchpad/internal/crypto"
	"github.com/aardel/launchpad/internal/metrics"
)

// Session holds the data key for one unlocked period. It is created by
// Setup/Unlock/ChangePassword and destroyed by Lock; a destroyed session
// answers every call with ErrLocked.
type Session struct {
	mu        sync.RWMutex
	key       []byte
	id        string
	createdAt time.Time
}

func newSession(key []byte) *Session {
	return &Session{
		key:       key,
		id:        uuid.New().String(),
		createdAt: time.Now().UTC(),
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// CreatedAt is when the vault was unlocked.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Active reports whether the session still holds its key.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key != nil
}

// Encrypt seals plaintext and returns base64 ciphertext.
func (s *Session) Encrypt(plaintext string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return "", ErrLocked
	}
	ct, err := crypto.EncryptString(s.key, plaintext)
	if err != nil {
		return "", fmt.Errorf("encrypt credential: %w", err)
	}
	metrics.VaultOperations.WithLabelValues("encrypt").Inc()
	return ct, nil
}

// Decrypt opens ciphertext produced by Encrypt.
func (s *Session) Decrypt(ciphertext string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return "", ErrLocked
	}
	pt, err := crypto.DecryptString(s.key, ciphertext)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) || errors.Is(err, crypto.ErrInvalidCiphertext) {
			return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
		}
		return "", err
	}
	metrics.VaultOperations.WithLabelValues("decrypt").Inc()
	return pt, nil
}

// destroy zeros the key. Safe to call more than once.
func (s *Session) destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key != nil {
		crypto.ZeroBytes(s.key)
		s.key = nil
	}
}
