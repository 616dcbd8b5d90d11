// Package validation provides input validation functions.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aardel/launchpad/internal/store"
	"github.com/aardel/launchpad/internal/target"
)

var (
	// ErrNameEmpty is returned when a group or item name is empty.
	ErrNameEmpty = errors.New("name is required")
	// ErrNameTooLong is returned when a name exceeds 100 characters.
	ErrNameTooLong = errors.New("name must be at most 100 characters")

	// ErrPortRange is returned for ports outside 1-65535.
	ErrPortRange = errors.New("port must be between 1 and 65535")

	// ErrTagInvalid is returned for empty or malformed tags.
	ErrTagInvalid = errors.New("tags may only contain letters, numbers, dashes and underscores")

	// ErrSSHUserInvalid is returned when an SSH username has shell-unsafe characters.
	ErrSSHUserInvalid = errors.New("ssh username may only contain letters, numbers, '.', '_' and '-'")

	// ErrAppPathNotAbsolute is returned when an app path is relative.
	ErrAppPathNotAbsolute = errors.New("app path must be absolute")

	// ErrServiceEmpty is returned when a password item has no service name.
	ErrServiceEmpty = errors.New("service name is required")

	// ErrMasterPasswordEmpty is returned when a master password is blank.
	ErrMasterPasswordEmpty = errors.New("master password cannot be empty")
)

var (
	tagRegex     = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	sshUserRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// Name validates a group or item name.
// Rules: 1-100 characters after trimming.
func Name(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameEmpty
	}
	if len(name) > 100 {
		return ErrNameTooLong
	}
	return nil
}

// Port validates an optional port. Zero means "unset".
func Port(port int) error {
	if port == 0 {
		return nil
	}
	if port < 1 || port > 65535 {
		return ErrPortRange
	}
	return nil
}

// Tags validates every tag.
func Tags(tags []string) error {
	for _, tag := range tags {
		if !tagRegex.MatchString(tag) {
			return fmt.Errorf("%w: %q", ErrTagInvalid, tag)
		}
	}
	return nil
}

// MasterPassword validates a new vault password.
func MasterPassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrMasterPasswordEmpty
	}
	return nil
}

// Item validates the common fields and the variant body of an item.
func Item(item *store.Item) error {
	if err := Name(item.Name); err != nil {
		return err
	}
	if err := Tags(item.Tags); err != nil {
		return err
	}

	v, err := item.Variant()
	if err != nil {
		return err
	}

	switch body := v.(type) {
	case *store.Bookmark:
		if _, err := target.ParseProtocol(body.Protocol); err != nil {
			return err
		}
		return Port(body.Port)
	case *store.SSH:
		if body.Username != "" && !sshUserRegex.MatchString(body.Username) {
			return ErrSSHUserInvalid
		}
		return Port(body.Port)
	case *store.App:
		if !filepath.IsAbs(body.Path) && !isWindowsAbs(body.Path) {
			return ErrAppPathNotAbsolute
		}
		return nil
	case *store.Password:
		if strings.TrimSpace(body.Service) == "" {
			return ErrServiceEmpty
		}
		return nil
	}
	return store.ErrUnknownItemType
}

// isWindowsAbs accepts drive-letter paths such as C:\Program Files\x.exe
// regardless of the host OS, so items created on one machine validate on another.
func isWindowsAbs(p string) bool {
	return len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/') &&
		((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}
