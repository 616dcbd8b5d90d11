package mcp

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// Access modes.
const (
	ModeReadOnly = "read-only"
	ModeLaunch   = "launch"
)

// AccessPolicy controls what the MCP server can expose.
type AccessPolicy struct {
	AccessMode            string   `yaml:"access_mode"`
	GroupsAllow           []string `yaml:"groups_allow"`
	GroupsDeny            []string `yaml:"groups_deny"`
	ItemsAllow            []string `yaml:"items_allow"`
	ItemsDeny             []string `yaml:"items_deny"`
	AllowPasswordItems    bool     `yaml:"allow_password_items"`
	MaxLaunchesPerSession int      `yaml:"max_launches_per_session"`
}

// DefaultPolicy lets an assistant list and launch everything except
// password items, which would put a password on the clipboard.
func DefaultPolicy() *AccessPolicy {
	return &AccessPolicy{
		AccessMode:            ModeLaunch,
		GroupsAllow:           []string{"*"},
		ItemsAllow:            []string{"*"},
		AllowPasswordItems:    false,
		MaxLaunchesPerSession: 20,
	}
}

// LoadPolicy reads an access policy from a YAML file.
// Returns nil, nil if the file does not exist.
func LoadPolicy(path string) (*AccessPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var policy AccessPolicy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, err
	}
	switch policy.AccessMode {
	case "":
		policy.AccessMode = ModeReadOnly
	case ModeReadOnly, ModeLaunch:
	default:
		return nil, fmt.Errorf("access_mode %q: want %s or %s", policy.AccessMode, ModeReadOnly, ModeLaunch)
	}
	return &policy, nil
}

// CanAccessGroup reports whether the policy allows access to the named group.
func (p *AccessPolicy) CanAccessGroup(name string) bool {
	if matchesAny(name, p.GroupsDeny) {
		return false
	}
	if len(p.GroupsAllow) == 0 {
		return true
	}
	return matchesAny(name, p.GroupsAllow)
}

// CanAccessItem reports whether the policy allows access to the named item.
func (p *AccessPolicy) CanAccessItem(name string) bool {
	if matchesAny(name, p.ItemsDeny) {
		return false
	}
	if len(p.ItemsAllow) == 0 {
		return true
	}
	return matchesAny(name, p.ItemsAllow)
}

// CanLaunch reports whether the policy allows launching items.
func (p *AccessPolicy) CanLaunch() bool {
	return p.AccessMode == ModeLaunch
}

// matchesAny returns true if name matches any of the glob patterns.
func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
