package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aardel/launchpad/internal/health"
	"github.com/aardel/launchpad/internal/network"
	"github.com/aardel/launchpad/internal/store"
)

// --- launchpad_list_groups ---

type listGroupsInput struct{}

type groupInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ItemCount int    `json:"item_count"`
}

type listGroupsOutput struct {
	Groups []groupInfo `json:"groups"`
}

// --- launchpad_list_items ---

type listItemsInput struct {
	Group string `json:"group,omitempty" jsonschema:"Group name. If omitted lists items from every group."`
	Kind  string `json:"kind,omitempty" jsonschema:"Only list items of this kind: bookmark, ssh, app or password."`
}

type itemInfo struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Kind        store.ItemKind    `json:"kind"`
	Group       string            `json:"group"`
	Tags        []string          `json:"tags,omitempty"`
	Addresses   network.Addresses `json:"addresses,omitempty"`
	HasPassword bool              `json:"has_password"`
}

type listItemsOutput struct {
	Items []itemInfo `json:"items"`
}

// --- launchpad_resolve_address ---

type resolveAddressInput struct {
	Item    string `json:"item" jsonschema:"Item ID or unique item name."`
	Profile string `json:"profile,omitempty" jsonschema:"Network profile: local, tailscale, vpn or custom. Default: the configured profile."`
	Probe   bool   `json:"probe,omitempty" jsonschema:"Also test which addresses accept a TCP connection."`
}

type resolveAddressOutput struct {
	Item        string          `json:"item"`
	Requested   network.Profile `json:"requested"`
	Address     string          `json:"address"`
	AddressFrom network.Profile `json:"address_from"`
	Probes      []health.Status `json:"probes,omitempty"`
}

// --- launchpad_vault_status ---

type vaultStatusInput struct{}

type vaultStatusOutput struct {
	State string `json:"state"`
}

func (s *LaunchPadMCPServer) registerCatalogTools() {
	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "launchpad_list_groups",
		Description: "List LaunchPad groups with their item counts.",
	}, s.handleListGroups)

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name: "launchpad_list_items",
		Description: "List launchable items: bookmarks, SSH hosts, apps and password entries. " +
			"Returns names, kinds and addresses. Passwords are NEVER returned.",
	}, s.handleListItems)

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name: "launchpad_resolve_address",
		Description: "Show which address an item would use on a network profile, including fallback. " +
			"Optionally probes every address for reachability.",
	}, s.handleResolveAddress)

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        "launchpad_vault_status",
		Description: "Report whether the credential vault is set up and unlocked. The vault can only be unlocked by the user.",
	}, s.handleVaultStatus)
}

func (s *LaunchPadMCPServer) handleListGroups(_ context.Context, _ *sdkmcp.CallToolRequest, _ listGroupsInput) (*sdkmcp.CallToolResult, listGroupsOutput, error) {
	groups, err := s.deps.Catalog.ListGroups()
	if err != nil {
		return nil, listGroupsOutput{}, fmt.Errorf("list groups: %w", err)
	}

	infos := []groupInfo{}
	for _, g := range groups {
		if !s.policy.CanAccessGroup(g.Name) {
			continue
		}
		items, _ := s.deps.Catalog.ListItems(g.ID)
		count := 0
		for _, it := range items {
			if s.allowed(it, g.Name) {
				count++
			}
		}
		infos = append(infos, groupInfo{ID: g.ID.String(), Name: g.Name, ItemCount: count})
	}

	return nil, listGroupsOutput{Groups: infos}, nil
}

func (s *LaunchPadMCPServer) handleListItems(_ context.Context, _ *sdkmcp.CallToolRequest, input listItemsInput) (*sdkmcp.CallToolResult, listItemsOutput, error) {
	groupID := uuid.Nil
	if input.Group != "" {
		if !s.policy.CanAccessGroup(input.Group) {
			return nil, listItemsOutput{}, fmt.Errorf("group %q is not allowed by policy", input.Group)
		}
		g, err := s.deps.Catalog.GetGroupByName(input.Group)
		if err != nil {
			return nil, listItemsOutput{}, fmt.Errorf("get group: %w", err)
		}
		groupID = g.ID
	}

	groups, err := s.deps.Catalog.ListGroups()
	if err != nil {
		return nil, listItemsOutput{}, fmt.Errorf("list groups: %w", err)
	}
	names := make(map[uuid.UUID]string, len(groups))
	for _, g := range groups {
		names[g.ID] = g.Name
	}

	items, err := s.deps.Catalog.ListItems(groupID)
	if err != nil {
		return nil, listItemsOutput{}, fmt.Errorf("list items: %w", err)
	}

	infos := []itemInfo{}
	for _, it := range items {
		group := names[it.GroupID]
		if !s.allowed(it, group) {
			continue
		}
		if input.Kind != "" && string(it.Kind) != input.Kind {
			continue
		}
		addrs, _ := addressesOf(it)
		infos = append(infos, itemInfo{
			ID:          it.ID.String(),
			Name:        it.Name,
			Kind:        it.Kind,
			Group:       group,
			Tags:        it.Tags,
			Addresses:   addrs,
			HasPassword: it.Credentials().HasPassword(),
		})
	}

	return nil, listItemsOutput{Items: infos}, nil
}

func (s *LaunchPadMCPServer) handleResolveAddress(ctx context.Context, _ *sdkmcp.CallToolRequest, input resolveAddressInput) (*sdkmcp.CallToolResult, resolveAddressOutput, error) {
	item, err := s.findItem(input.Item)
	if err != nil {
		return nil, resolveAddressOutput{}, err
	}

	profile := s.deps.Defaults.Profile
	if input.Profile != "" {
		if profile, err = network.ParseProfile(input.Profile); err != nil {
			return nil, resolveAddressOutput{}, err
		}
	}

	addrs, ok := addressesOf(item)
	if !ok {
		return nil, resolveAddressOutput{}, fmt.Errorf("%s items have no address", item.Kind)
	}
	address, from, ok := network.ResolveWithProfile(addrs, profile)
	if !ok {
		return nil, resolveAddressOutput{}, fmt.Errorf("no address for profile %s", profile)
	}

	out := resolveAddressOutput{Item: item.Name, Requested: profile, Address: address, AddressFrom: from}
	if input.Probe && s.deps.Prober != nil {
		statuses, err := s.deps.Prober.Check(ctx, item)
		if err != nil && !errors.Is(err, health.ErrNoProbePort) {
			return nil, resolveAddressOutput{}, fmt.Errorf("probe: %w", err)
		}
		out.Probes = statuses
	}
	return nil, out, nil
}

func (s *LaunchPadMCPServer) handleVaultStatus(_ context.Context, _ *sdkmcp.CallToolRequest, _ vaultStatusInput) (*sdkmcp.CallToolResult, vaultStatusOutput, error) {
	return nil, vaultStatusOutput{State: s.deps.Vault.State().String()}, nil
}
