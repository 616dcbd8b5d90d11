package store

import (
	"time"

	"github.com/google/uuid"
)

// Store defines the interface for LaunchPad persistence.
type Store interface {
	// Vault metadata
	GetMeta() (*VaultMeta, error)
	SetMeta(meta *VaultMeta) error
	// ResetVault deletes the vault metadata and strips every stored password
	// ciphertext in a single transaction. It returns the number of items
	// whose credentials were cleared.
	ResetVault() (int, error)

	// Groups
	CreateGroup(group *Group) error
	GetGroup(id uuid.UUID) (*Group, error)
	GetGroupByName(name string) (*Group, error)
	ListGroups() ([]*Group, error)
	UpdateGroup(group *Group) error
	DeleteGroup(id uuid.UUID) (int, error)

	// Items
	CreateItem(item *Item) error
	GetItem(id uuid.UUID) (*Item, error)
	ListItems(groupID uuid.UUID) ([]*Item, error)
	UpdateItem(item *Item) error
	DeleteItem(id uuid.UUID) error
	MoveItem(id uuid.UUID, position int) error

	// Access tracking
	RecordAccess(id uuid.UUID, entry *AccessEntry) error
	ListAccess(limit int) ([]*AccessEntry, error)

	// Lifecycle
	Close() error
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }
