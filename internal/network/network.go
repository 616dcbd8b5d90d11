// Package network models the per-profile address set of an item and resolves
// which address to use for a requested network profile.
package network

import (
	"errors"
	"fmt"
	"strings"
)

// Profile names a network context.
type Profile string

const (
	ProfileLocal     Profile = "local"
	ProfileTailscale Profile = "tailscale"
	ProfileVPN       Profile = "vpn"
	ProfileCustom    Profile = "custom"
)

// ErrUnknownProfile is returned by ParseProfile for unrecognised names.
var ErrUnknownProfile = errors.New("unknown network profile")

// Profiles returns every profile in probe order.
func Profiles() []Profile {
	return []Profile{ProfileLocal, ProfileTailscale, ProfileVPN, ProfileCustom}
}

// ParseProfile converts a user-supplied name into a Profile.
// The empty string parses as ProfileLocal.
func ParseProfile(s string) (Profile, error) {
	switch p := Profile(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ProfileLocal, nil
	case ProfileLocal, ProfileTailscale, ProfileVPN, ProfileCustom:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProfile, s)
	}
}

func (p Profile) String() string { return string(p) }

// Addresses holds one optional hostname or IP per profile.
type Addresses struct {
	Local     string `json:"local,omitempty"`
	Tailscale string `json:"tailscale,omitempty"`
	VPN       string `json:"vpn,omitempty"`
	Custom    string `json:"custom,omitempty"`
}

// Get returns the trimmed address stored for p, or "" for unknown profiles.
func (a Addresses) Get(p Profile) string {
	switch p {
	case ProfileLocal:
		return strings.TrimSpace(a.Local)
	case ProfileTailscale:
		return strings.TrimSpace(a.Tailscale)
	case ProfileVPN:
		return strings.TrimSpace(a.VPN)
	case ProfileCustom:
		return strings.TrimSpace(a.Custom)
	}
	return ""
}

// IsEmpty reports whether no slot holds an address.
func (a Addresses) IsEmpty() bool {
	for _, p := range Profiles() {
		if a.Get(p) != "" {
			return false
		}
	}
	return true
}

// profileUnknown is the synthetic profile a custom request degrades to.
const profileUnknown Profile = "unknown"

// Resolve returns the address for the requested profile. ok is false when
// no candidate exists.
func Resolve(addrs Addresses, requested Profile) (address string, ok bool) {
	address, _, ok = ResolveWithProfile(addrs, requested)
	return address, ok
}

// ResolveWithProfile is Resolve but also reports which slot supplied the
// address.
//
// Fallback order:
//
//	custom    -> custom, then the unknown-profile chain
//	tailscale -> tailscale, local
//	vpn       -> vpn, local
//	local     -> local, tailscale, vpn, custom
//
// The unknown-profile chain is the local chain. A custom request with no
// custom address therefore behaves like a local request.
func ResolveWithProfile(addrs Addresses, requested Profile) (string, Profile, bool) {
	switch requested {
	case ProfileCustom:
		if v := addrs.Get(ProfileCustom); v != "" {
			return v, ProfileCustom, true
		}
		return ResolveWithProfile(addrs, profileUnknown)
	case ProfileTailscale:
		return first(addrs, ProfileTailscale, ProfileLocal)
	case ProfileVPN:
		return first(addrs, ProfileVPN, ProfileLocal)
	default:
		return first(addrs, ProfileLocal, ProfileTailscale, ProfileVPN, ProfileCustom)
	}
}

func first(addrs Addresses, order ...Profile) (string, Profile, bool) {
	for _, p := range order {
		if v := addrs.Get(p); v != "" {
			return v, p, true
		}
	}
	return "", "", false
}
