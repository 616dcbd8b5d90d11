package vault

import (
	"errors"
	"fmt"
)

var (
	// ErrLocked is returned when an operation requires an unlocked vault.
	ErrLocked = errors.New("vault is locked")

	// ErrInvalidPassword is returned when the master password does not match.
	ErrInvalidPassword = errors.New("invalid master password")

	// ErrInvalidOldPassword is returned by ChangePassword when the current
	// password is wrong. It matches ErrInvalidPassword under errors.Is.
	ErrInvalidOldPassword = fmt.Errorf("current password: %w", ErrInvalidPassword)

	// ErrAlreadySetup is returned by Setup when a master password exists.
	ErrAlreadySetup = errors.New("vault is already set up")

	// ErrNotSetup is returned when no master password has been created yet.
	ErrNotSetup = errors.New("vault is not set up")

	// ErrDecryptionFailed is returned when a stored credential cannot be
	// decrypted with the current key.
	ErrDecryptionFailed = errors.New("credential decryption failed")
)
