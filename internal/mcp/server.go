// Package mcp exposes LaunchPad to AI assistants over the Model Context
// Protocol. No tool ever returns a stored password or its ciphertext.
package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aardel/launchpad/internal/health"
	"github.com/aardel/launchpad/internal/launcher"
	"github.com/aardel/launchpad/internal/network"
	"github.com/aardel/launchpad/internal/store"
	"github.com/aardel/launchpad/internal/vault"
)

// Catalog is the read side of the store.
type Catalog interface {
	ListGroups() ([]*store.Group, error)
	GetGroup(id uuid.UUID) (*store.Group, error)
	GetGroupByName(name string) (*store.Group, error)
	ListItems(groupID uuid.UUID) ([]*store.Item, error)
	GetItem(id uuid.UUID) (*store.Item, error)
}

// Launcher launches items.
type Launcher interface {
	Launch(ctx context.Context, item *store.Item, opts launcher.Options) (*launcher.Result, error)
}

// Prober reports per-profile reachability.
type Prober interface {
	Check(ctx context.Context, item *store.Item) ([]health.Status, error)
}

// VaultStater reports the vault lifecycle state.
type VaultStater interface {
	State() vault.State
}

// Deps are the server's collaborators. Prober may be nil.
type Deps struct {
	Catalog  Catalog
	Vault    VaultStater
	Launcher Launcher
	Prober   Prober
	Defaults launcher.Options
}

// LaunchPadMCPServer exposes the item catalog and launcher as an MCP server.
type LaunchPadMCPServer struct {
	server *sdkmcp.Server
	deps   Deps
	policy *AccessPolicy

	mu       sync.Mutex
	launches int
}

// NewLaunchPadMCPServer creates a new MCP server with the given policy.
func NewLaunchPadMCPServer(deps Deps, policy *AccessPolicy) *LaunchPadMCPServer {
	if policy == nil {
		policy = DefaultPolicy()
	}

	s := &LaunchPadMCPServer{
		deps:   deps,
		policy: policy,
	}

	s.server = sdkmcp.NewServer(
		&sdkmcp.Implementation{
			Name:    "launchpad",
			Version: "1.0.0",
		},
		&sdkmcp.ServerOptions{
			Instructions: "LaunchPad opens bookmarks, SSH sessions and apps on the user's machine. " +
				"Call launchpad_list_items first and refer to items by ID. " +
				"Stored passwords are never returned.",
		},
	)

	s.registerCatalogTools()
	s.registerLaunchTools()

	return s
}

// Run starts the MCP server on the stdio transport.
func (s *LaunchPadMCPServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &sdkmcp.StdioTransport{})
}

// allowed reports whether the policy lets the assistant see item.
func (s *LaunchPadMCPServer) allowed(item *store.Item, groupName string) bool {
	if !s.policy.CanAccessGroup(groupName) || !s.policy.CanAccessItem(item.Name) {
		return false
	}
	return item.Kind != store.KindPassword || s.policy.AllowPasswordItems
}

// findItem looks an item up by ID, or by exact name when the name is unique.
// Items hidden by policy are reported as not found.
func (s *LaunchPadMCPServer) findItem(ref string) (*store.Item, error) {
	var item *store.Item
	if id, err := uuid.Parse(ref); err == nil {
		it, err := s.deps.Catalog.GetItem(id)
		if err != nil {
			return nil, err
		}
		item = it
	} else {
		items, err := s.deps.Catalog.ListItems(uuid.Nil)
		if err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		for _, it := range items {
			if it.Name != ref {
				continue
			}
			if item != nil {
				return nil, fmt.Errorf("more than one item is named %q; use its ID", ref)
			}
			item = it
		}
		if item == nil {
			return nil, fmt.Errorf("%w: %s", store.ErrItemNotFound, ref)
		}
	}

	group, err := s.deps.Catalog.GetGroup(item.GroupID)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	if !s.allowed(item, group.Name) {
		return nil, fmt.Errorf("%w: %s", store.ErrItemNotFound, ref)
	}
	return item, nil
}

// takeLaunch reserves one launch from the session budget.
func (s *LaunchPadMCPServer) takeLaunch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit := s.policy.MaxLaunchesPerSession; limit > 0 && s.launches >= limit {
		return fmt.Errorf("launch limit of %d per session reached", limit)
	}
	s.launches++
	return nil
}

func addressesOf(item *store.Item) (network.Addresses, bool) {
	switch {
	case item.Bookmark != nil:
		return item.Bookmark.Addresses, true
	case item.SSH != nil:
		return item.SSH.Addresses, true
	}
	return network.Addresses{}, false
}
