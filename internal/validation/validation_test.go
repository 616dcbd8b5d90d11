package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/aardel/launchpad/internal/network"
	"github.com/aardel/launchpad/internal/store"
	"github.com/aardel/launchpad/internal/target"
)

func TestName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"valid", "Home Assistant", nil},
		{"single char", "a", nil},
		{"exactly 100", strings.Repeat("a", 100), nil},
		{"empty", "", ErrNameEmpty},
		{"whitespace only", "   ", ErrNameEmpty},
		{"too long", strings.Repeat("a", 101), ErrNameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Name(tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("Name(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestPort(t *testing.T) {
	tests := []struct {
		port    int
		wantErr error
	}{
		{0, nil},
		{1, nil},
		{22, nil},
		{65535, nil},
		{-1, ErrPortRange},
		{65536, ErrPortRange},
	}
	for _, tt := range tests {
		if err := Port(tt.port); !errors.Is(err, tt.wantErr) {
			t.Errorf("Port(%d) = %v, want %v", tt.port, err, tt.wantErr)
		}
	}
}

func TestTags(t *testing.T) {
	if err := Tags([]string{"media", "home-lab", "v2_beta"}); err != nil {
		t.Errorf("Tags(valid) = %v", err)
	}
	if err := Tags([]string{"ok", "has space"}); !errors.Is(err, ErrTagInvalid) {
		t.Errorf("Tags(space) = %v, want ErrTagInvalid", err)
	}
	if err := Tags([]string{""}); !errors.Is(err, ErrTagInvalid) {
		t.Errorf("Tags(empty) = %v, want ErrTagInvalid", err)
	}
}

func TestMasterPassword(t *testing.T) {
	if err := MasterPassword("correct horse"); err != nil {
		t.Errorf("MasterPassword(valid) = %v", err)
	}
	if err := MasterPassword("  "); !errors.Is(err, ErrMasterPasswordEmpty) {
		t.Errorf("MasterPassword(blank) = %v, want ErrMasterPasswordEmpty", err)
	}
}

func TestItem(t *testing.T) {
	addrs := network.Addresses{Local: "10.0.0.1"}

	tests := []struct {
		name    string
		item    *store.Item
		wantErr error
	}{
		{
			name: "valid bookmark",
			item: &store.Item{Name: "grafana", Kind: store.KindBookmark, Bookmark: &store.Bookmark{Protocol: "https", Port: 3000, Addresses: addrs}},
		},
		{
			name:    "bookmark bad protocol",
			item:    &store.Item{Name: "x", Kind: store.KindBookmark, Bookmark: &store.Bookmark{Protocol: "gopher", Addresses: addrs}},
			wantErr: target.ErrUnknownProtocol,
		},
		{
			name:    "bookmark bad port",
			item:    &store.Item{Name: "x", Kind: store.KindBookmark, Bookmark: &store.Bookmark{Protocol: "http", Port: 70000}},
			wantErr: ErrPortRange,
		},
		{
			name: "valid ssh",
			item: &store.Item{Name: "nas", Kind: store.KindSSH, SSH: &store.SSH{Username: "admin.user", Port: 22, Addresses: addrs}},
		},
		{
			name:    "ssh unsafe username",
			item:    &store.Item{Name: "nas", Kind: store.KindSSH, SSH: &store.SSH{Username: "root; rm -rf /"}},
			wantErr: ErrSSHUserInvalid,
		},
		{
			name: "valid app",
			item: &store.Item{Name: "code", Kind: store.KindApp, App: &store.App{Path: "/usr/bin/code"}},
		},
		{
			name: "valid windows app",
			item: &store.Item{Name: "code", Kind: store.KindApp, App: &store.App{Path: `C:\Program Files\Code\Code.exe`}},
		},
		{
			name:    "relative app",
			item:    &store.Item{Name: "code", Kind: store.KindApp, App: &store.App{Path: "bin/code"}},
			wantErr: ErrAppPathNotAbsolute,
		},
		{
			name:    "password without service",
			item:    &store.Item{Name: "mail", Kind: store.KindPassword, Password: &store.Password{}},
			wantErr: ErrServiceEmpty,
		},
		{
			name:    "unknown kind",
			item:    &store.Item{Name: "x", Kind: "widget"},
			wantErr: store.ErrUnknownItemType,
		},
		{
			name:    "bad tag",
			item:    &store.Item{Name: "x", Kind: store.KindApp, Tags: []string{"a b"}, App: &store.App{Path: "/bin/true"}},
			wantErr: ErrTagInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Item(tt.item)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Item() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Item() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
