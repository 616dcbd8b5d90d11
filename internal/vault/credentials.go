package vault

import (
	"fmt"

	"github.com/aardel/launchpad/internal/store"
)

// SealCredentials builds a credential record with password encrypted.
// When the vault is locked it returns ErrLocked and no record; callers must
// not fall back to storing the plaintext.
func (v *Vault) SealCredentials(username, password, notes string) (*store.Credentials, error) {
	creds := &store.Credentials{Username: username, Notes: notes}
	if password == "" {
		return creds, nil
	}

	ct, err := v.Encrypt(password)
	if err != nil {
		return nil, fmt.Errorf("seal credentials: %w", err)
	}
	creds.Password = ct
	return creds, nil
}

// RevealPassword decrypts the password held by creds. It returns "" with no
// error when there is no stored password, and ErrLocked when there is one
// but the vault is locked.
func (v *Vault) RevealPassword(creds *store.Credentials) (string, error) {
	if !creds.HasPassword() {
		return "", nil
	}
	return v.Decrypt(creds.Password)
}
