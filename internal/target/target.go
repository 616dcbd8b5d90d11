// Package target turns a stored item and a network profile into something
// launchable: a URL for bookmarks, a connection descriptor for SSH.
package target

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aardel/launchpad/internal/network"
	"github.com/aardel/launchpad/internal/store"
)

var (
	// ErrNoAddressForProfile is returned when no address resolves for the
	// requested profile. Nothing has been spawned when it is returned.
	ErrNoAddressForProfile = errors.New("no address for profile")

	// ErrUnknownProtocol is returned by ParseProtocol.
	ErrUnknownProtocol = errors.New("unknown protocol")
)

// Protocol is a bookmark protocol.
type Protocol string

const (
	ProtocolHTTPS   Protocol = "https"
	ProtocolHTTP    Protocol = "http"
	ProtocolFTP     Protocol = "ftp"
	ProtocolSSH     Protocol = "ssh"
	ProtocolRDP     Protocol = "rdp"
	ProtocolVNC     Protocol = "vnc"
	ProtocolCustom  Protocol = "custom"
	ProtocolChrome  Protocol = "chrome"
	ProtocolEdge    Protocol = "edge"
	ProtocolBrave   Protocol = "brave"
	ProtocolOpera   Protocol = "opera"
	ProtocolChatGPT Protocol = "chatgpt"
	ProtocolAbout   Protocol = "about"
	ProtocolMailto  Protocol = "mailto"
)

var protocols = []Protocol{
	ProtocolHTTPS, ProtocolHTTP, ProtocolFTP, ProtocolSSH, ProtocolRDP, ProtocolVNC,
	ProtocolCustom, ProtocolChrome, ProtocolEdge, ProtocolBrave, ProtocolOpera,
	ProtocolChatGPT, ProtocolAbout, ProtocolMailto,
}

// ParseProtocol normalises s. The empty string parses as https.
func ParseProtocol(s string) (Protocol, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ProtocolHTTPS, nil
	}
	for _, p := range protocols {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProtocol, s)
}

// Browser identifies a specific browser. BrowserDefault means the OS handler.
type Browser string

const (
	BrowserDefault Browser = ""
	BrowserChrome  Browser = "chrome"
	BrowserEdge    Browser = "edge"
	BrowserBrave   Browser = "brave"
	BrowserOpera   Browser = "opera"
	BrowserChatGPT Browser = "chatgpt"
	BrowserFirefox Browser = "firefox"
	BrowserSafari  Browser = "safari"
)

// ParseBrowser normalises a configured browser name. "", "default" and
// "system" all mean BrowserDefault.
func ParseBrowser(s string) (Browser, error) {
	switch b := Browser(strings.ToLower(strings.TrimSpace(s))); b {
	case "", "default", "system":
		return BrowserDefault, nil
	case BrowserChrome, BrowserEdge, BrowserBrave, BrowserOpera, BrowserChatGPT, BrowserFirefox, BrowserSafari:
		return b, nil
	default:
		return "", fmt.Errorf("unknown browser %q", s)
	}
}

// ForcedBrowser reports the browser a protocol always opens in.
func ForcedBrowser(p Protocol) (Browser, bool) {
	switch p {
	case ProtocolChrome:
		return BrowserChrome, true
	case ProtocolEdge:
		return BrowserEdge, true
	case ProtocolBrave:
		return BrowserBrave, true
	case ProtocolOpera:
		return BrowserOpera, true
	case ProtocolChatGPT:
		return BrowserChatGPT, true
	}
	return BrowserDefault, false
}

// DefaultPort returns the conventional port for a URL scheme, or 0.
func DefaultPort(scheme string) int {
	switch scheme {
	case "http":
		return 80
	case "https":
		return 443
	case "ftp":
		return 21
	case "ssh":
		return 22
	}
	return 0
}

// BuildURL composes scheme://host[:port][/path].
//
// about and mailto use the colon-only form (mailto:user@host). IPv6 literals
// are bracketed. The port is dropped when it is the scheme's default.
func BuildURL(scheme, host string, port int, path string) string {
	host = strings.TrimSpace(host)
	path = strings.TrimSpace(path)

	if scheme == string(ProtocolAbout) || scheme == string(ProtocolMailto) {
		return scheme + ":" + host + path
	}

	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(host)
	if port > 0 && port != DefaultPort(scheme) {
		b.WriteString(":")
		b.WriteString(strconv.Itoa(port))
	}
	if path != "" {
		if !strings.HasPrefix(path, "/") {
			b.WriteString("/")
		}
		b.WriteString(path)
	}
	return b.String()
}

// Scheme returns the URL scheme a bookmark protocol composes with.
// Browser-forcing protocols use https; custom uses the bookmark's own
// scheme and falls back to https.
func Scheme(p Protocol, customScheme string) string {
	if _, forced := ForcedBrowser(p); forced {
		return string(ProtocolHTTPS)
	}
	if p == ProtocolCustom {
		if s := strings.TrimSuffix(strings.TrimSpace(customScheme), "://"); s != "" {
			return strings.ToLower(s)
		}
		return string(ProtocolHTTPS)
	}
	return string(p)
}

// BookmarkTarget is a fully built bookmark launch.
type BookmarkTarget struct {
	URL         string
	Browser     Browser
	Forced      bool
	ProfileUsed network.Profile
	Address     string
}

// Bookmark builds the launch URL for b under profile p. override is the
// caller's browser choice; forcing protocols ignore it.
func Bookmark(b *store.Bookmark, p network.Profile, override Browser) (*BookmarkTarget, error) {
	proto, err := ParseProtocol(b.Protocol)
	if err != nil {
		return nil, err
	}

	addr, from, ok := network.ResolveWithProfile(b.Addresses, p)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrNoAddressForProfile, p)
	}

	t := &BookmarkTarget{
		URL:         BuildURL(Scheme(proto, b.CustomScheme), addr, b.Port, b.Path),
		Browser:     override,
		ProfileUsed: from,
		Address:     addr,
	}
	if forced, ok := ForcedBrowser(proto); ok {
		t.Browser = forced
		t.Forced = true
	}
	return t, nil
}

// AuthMode is how an SSH session authenticates.
type AuthMode int

const (
	// AuthInteractive leaves authentication to ssh's own prompts.
	AuthInteractive AuthMode = iota
	// AuthKey uses an explicit identity file.
	AuthKey
	// AuthPassword needs a helper to feed the password non-interactively.
	AuthPassword
)

func (m AuthMode) String() string {
	switch m {
	case AuthKey:
		return "key"
	case AuthPassword:
		return "password"
	}
	return "interactive"
}

// SSHTarget describes one SSH connection.
type SSHTarget struct {
	Username    string
	Host        string
	Port        int
	KeyPath     string
	Password    string
	Auth        AuthMode
	ProfileUsed network.Profile
}

// SSH builds the connection descriptor for s under profile p. password is
// the already-decrypted credential, or "".
func SSH(s *store.SSH, p network.Profile, password string) (*SSHTarget, error) {
	addr, from, ok := network.ResolveWithProfile(s.Addresses, p)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrNoAddressForProfile, p)
	}

	t := &SSHTarget{
		Username:    strings.TrimSpace(s.Username),
		Host:        addr,
		Port:        s.Port,
		KeyPath:     strings.TrimSpace(s.KeyPath),
		Password:    password,
		ProfileUsed: from,
	}
	if t.Username == "" {
		t.Username = store.DefaultSSHUser
	}
	if t.Port == 0 {
		t.Port = store.DefaultSSHPort
	}

	switch {
	case password != "":
		t.Auth = AuthPassword
	case t.KeyPath != "":
		t.Auth = AuthKey
	default:
		t.Auth = AuthInteractive
	}
	return t, nil
}

// SetPassword attaches a decrypted password, switching to password auth.
// An empty password leaves the target unchanged.
func (t *SSHTarget) SetPassword(password string) {
	if password == "" {
		return
	}
	t.Password = password
	t.Auth = AuthPassword
}

// Destination returns user@host.
func (t *SSHTarget) Destination() string {
	return t.Username + "@" + t.Host
}

// Args returns the argv for ssh, without the program name. The password is
// never part of it.
func (t *SSHTarget) Args() []string {
	args := []string{"-p", strconv.Itoa(t.Port)}
	if t.KeyPath != "" {
		args = append(args, "-i", t.KeyPath)
	}
	if t.Auth == AuthPassword {
		args = append(args, "-o", "PreferredAuthentications=password,keyboard-interactive")
	}
	return append(args, t.Destination())
}

// String renders the descriptor for logs and CLI output.
func (t *SSHTarget) String() string {
	return fmt.Sprintf("ssh %s:%d (%s)", t.Destination(), t.Port, t.Auth)
}
