package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aardel/launchpad/internal/crypto"
	"github.com/aardel/launchpad/internal/network"
)

// ErrUnknownItemType is returned when an item's kind tag does not match a
// known variant, or the matching variant body is missing.
var ErrUnknownItemType = errors.New("unknown item type")

// VaultMeta holds the credential vault's persisted key material.
type VaultMeta struct {
	Version    int              `json:"version"`
	Salt       []byte           `json:"salt"`
	KDF        crypto.KDFParams `json:"kdf"`
	Verifier   []byte           `json:"verifier"`
	WrappedKey []byte           `json:"wrapped_key"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	VaultID    string           `json:"vault_id"`
}

// Group is a named, ordered collection of items.
type Group struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	Position  int       `json:"position"`
	Expanded  bool      `json:"expanded"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemKind tags the variant an Item carries.
type ItemKind string

const (
	KindBookmark ItemKind = "bookmark"
	KindSSH      ItemKind = "ssh"
	KindApp      ItemKind = "app"
	KindPassword ItemKind = "password"
)

// Item is a launchable entry. Exactly one of the variant pointers is set,
// selected by Kind.
type Item struct {
	ID             uuid.UUID  `json:"id"`
	Kind           ItemKind   `json:"kind"`
	Name           string     `json:"name"`
	GroupID        uuid.UUID  `json:"group_id"`
	Tags           []string   `json:"tags,omitempty"`
	Position       int        `json:"position"`
	AccessCount    int        `json:"access_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
	SSH      *SSH      `json:"ssh,omitempty"`
	App      *App      `json:"app,omitempty"`
	Password *Password `json:"password,omitempty"`
}

// Variant is implemented by the four item bodies. The unexported method
// keeps the set closed to this package.
type Variant interface {
	Kind() ItemKind
	variant()
}

// Variant returns the body selected by Kind.
func (it *Item) Variant() (Variant, error) {
	var v Variant
	switch it.Kind {
	case KindBookmark:
		if it.Bookmark != nil {
			v = it.Bookmark
		}
	case KindSSH:
		if it.SSH != nil {
			v = it.SSH
		}
	case KindApp:
		if it.App != nil {
			v = it.App
		}
	case KindPassword:
		if it.Password != nil {
			v = it.Password
		}
	}
	if v == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownItemType, it.Kind)
	}
	return v, nil
}

// Credentials is a stored login. Password is always vault ciphertext.
type Credentials struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// HasPassword reports whether an encrypted password is stored.
func (c *Credentials) HasPassword() bool {
	return c != nil && c.Password != ""
}

// Bookmark opens a URL composed from the resolved address.
type Bookmark struct {
	Protocol     string            `json:"protocol"`
	CustomScheme string            `json:"custom_scheme,omitempty"`
	Port         int               `json:"port,omitempty"`
	Path         string            `json:"path,omitempty"`
	Addresses    network.Addresses `json:"addresses"`
	Credentials  *Credentials      `json:"credentials,omitempty"`
}

// SSH opens a terminal session to the resolved address.
type SSH struct {
	Username    string            `json:"username"`
	Port        int               `json:"port"`
	Addresses   network.Addresses `json:"addresses"`
	Credentials *Credentials      `json:"credentials,omitempty"`
	KeyPath     string            `json:"key_path,omitempty"`
}

// App starts a native executable or bundle.
type App struct {
	Path string   `json:"path"`
	Args []string `json:"args,omitempty"`
}

// Password is a credential record with an optional associated URL.
type Password struct {
	Service     string       `json:"service"`
	URL         string       `json:"url,omitempty"`
	Credentials *Credentials `json:"credentials,omitempty"`
}

func (*Bookmark) Kind() ItemKind { return KindBookmark }
func (*SSH) Kind() ItemKind      { return KindSSH }
func (*App) Kind() ItemKind      { return KindApp }
func (*Password) Kind() ItemKind { return KindPassword }

func (*Bookmark) variant() {}
func (*SSH) variant()      {}
func (*App) variant()      {}
func (*Password) variant() {}

// SSH defaults applied when fields are left empty.
const (
	DefaultSSHUser = "root"
	DefaultSSHPort = 22
)

// Credentials returns the item's credential record, if its variant has one.
func (it *Item) Credentials() *Credentials {
	switch it.Kind {
	case KindBookmark:
		if it.Bookmark != nil {
			return it.Bookmark.Credentials
		}
	case KindSSH:
		if it.SSH != nil {
			return it.SSH.Credentials
		}
	case KindPassword:
		if it.Password != nil {
			return it.Password.Credentials
		}
	}
	return nil
}

// SetCredentials replaces the item's credential record. It reports false for
// variants that cannot carry credentials.
func (it *Item) SetCredentials(c *Credentials) bool {
	switch {
	case it.Kind == KindBookmark && it.Bookmark != nil:
		it.Bookmark.Credentials = c
	case it.Kind == KindSSH && it.SSH != nil:
		it.SSH.Credentials = c
	case it.Kind == KindPassword && it.Password != nil:
		it.Password.Credentials = c
	default:
		return false
	}
	return true
}

// AccessEntry records one successful launch.
type AccessEntry struct {
	ItemID    uuid.UUID       `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Kind      ItemKind        `json:"kind"`
	Profile   network.Profile `json:"profile,omitempty"`
	Rerouted  bool            `json:"rerouted,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// RedactedPassword replaces stored ciphertext in redacted copies.
const RedactedPassword = "[redacted]"

// Redacted returns a deep copy of it with any stored password replaced by
// RedactedPassword. Use it for anything leaving the process. Every body
// present is redacted, whatever Kind says, so a malformed record cannot
// leak ciphertext through a second body.
func (it *Item) Redacted() *Item {
	cp := *it
	cp.Tags = append([]string(nil), it.Tags...)
	if it.LastAccessedAt != nil {
		at := *it.LastAccessedAt
		cp.LastAccessedAt = &at
	}
	if it.Bookmark != nil {
		b := *it.Bookmark
		b.Credentials = redactCredentials(b.Credentials)
		cp.Bookmark = &b
	}
	if it.SSH != nil {
		s := *it.SSH
		s.Credentials = redactCredentials(s.Credentials)
		cp.SSH = &s
	}
	if it.App != nil {
		a := *it.App
		a.Args = append([]string(nil), it.App.Args...)
		cp.App = &a
	}
	if it.Password != nil {
		p := *it.Password
		p.Credentials = redactCredentials(p.Credentials)
		cp.Password = &p
	}
	return &cp
}

func redactCredentials(c *Credentials) *Credentials {
	if c == nil {
		return nil
	}
	cp := *c
	if cp.Password != "" {
		cp.Password = RedactedPassword
	}
	return &cp
}
