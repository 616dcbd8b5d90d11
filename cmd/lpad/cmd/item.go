package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/aardel/launchpad/internal/network"
	"github.com/aardel/launchpad/internal/store"
	"github.com/aardel/launchpad/internal/validation"
)

var itemCmd = &cobra.Command{
	Use:     "item",
	Aliases: []string{"items"},
	Short:   "Manage items",
}

// itemFlags holds the flags of the add-* commands.
type itemFlags struct {
	group     string
	tags      []string
	addresses network.Addresses

	protocol string
	scheme   string
	port     int
	path     string

	user    string
	keyPath string

	args string

	service string
	url     string

	username     string
	notes        string
	withPassword bool
}

var addFlags itemFlags

var addBookmarkCmd = &cobra.Command{
	Use:   "add-bookmark NAME",
	Short: "Add a bookmark",
	Long: `Add a bookmark that opens a URL built from the address for the active
network profile.

Examples:
  lpad item add-bookmark grafana -g Homelab --protocol http --port 3000 \
      --local 192.168.1.20 --tailscale grafana.tail1234.ts.net
  lpad item add-bookmark router -g Homelab --protocol https --local 192.168.1.1 --username admin --with-password`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return addItem(args[0], store.KindBookmark)
	},
}

var addSSHCmd = &cobra.Command{
	Use:   "add-ssh NAME",
	Short: "Add an SSH host",
	Long: `Add an SSH host that opens in a terminal.

Examples:
  lpad item add-ssh nas -g Homelab --user admin --local 192.168.1.10 --tailscale 100.64.0.10
  lpad item add-ssh pi -g Homelab --user pi --key ~/.ssh/id_ed25519 --local pi.lan`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return addItem(args[0], store.KindSSH)
	},
}

var addAppCmd = &cobra.Command{
	Use:   "add-app NAME PATH",
	Short: "Add an application",
	Long: `Add a native application. PATH must be absolute.

Examples:
  lpad item add-app code -g Tools /usr/bin/code --args "--new-window"
  lpad item add-app Safari -g Tools /Applications/Safari.app`,
	Args: cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		addFlags.path = args[1]
		return addItem(args[0], store.KindApp)
	},
}

var addPasswordCmd = &cobra.Command{
	Use:   "add-password NAME",
	Short: "Add a password entry",
	Long: `Add a password entry. Launching it copies the password to the clipboard
and opens the URL, if one is set. The password is always prompted for.

Examples:
  lpad item add-password mail -g Personal --service Fastmail --url https://app.fastmail.com --username me@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		addFlags.withPassword = true
		return addItem(args[0], store.KindPassword)
	},
}

var itemListGroup, itemListKind string

var itemListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List items",
	RunE:    runItemList,
}

var itemShowCmd = &cobra.Command{
	Use:   "show ITEM",
	Short: "Show an item; stored passwords are never printed",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemShow,
}

var itemMoveCmd = &cobra.Command{
	Use:   "move ITEM POSITION",
	Short: "Move an item to a position within its group",
	Args:  cobra.ExactArgs(2),
	RunE:  runItemMove,
}

var itemPasswordCmd = &cobra.Command{
	Use:   "set-password ITEM",
	Short: "Store or replace the password of an item",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemSetPassword,
}

var itemRemoveForce bool

var itemRemoveCmd = &cobra.Command{
	Use:     "rm ITEM",
	Aliases: []string{"delete"},
	Short:   "Delete an item",
	Args:    cobra.ExactArgs(1),
	RunE:    runItemRemove,
}

func init() {
	for _, c := range []*cobra.Command{addBookmarkCmd, addSSHCmd, addAppCmd, addPasswordCmd} {
		c.Flags().StringVarP(&addFlags.group, "group", "g", "", "group name or ID (required)")
		c.Flags().StringSliceVarP(&addFlags.tags, "tag", "t", nil, "tag (repeatable)")
		c.MarkFlagRequired("group")
	}
	for _, c := range []*cobra.Command{addBookmarkCmd, addSSHCmd} {
		c.Flags().StringVar(&addFlags.addresses.Local, "local", "", "LAN address")
		c.Flags().StringVar(&addFlags.addresses.Tailscale, "tailscale", "", "Tailscale address")
		c.Flags().StringVar(&addFlags.addresses.VPN, "vpn", "", "VPN address")
		c.Flags().StringVar(&addFlags.addresses.Custom, "custom", "", "custom address")
		c.Flags().BoolVar(&addFlags.withPassword, "with-password", false, "prompt for a password to store")
	}
	for _, c := range []*cobra.Command{addBookmarkCmd, addPasswordCmd} {
		c.Flags().StringVar(&addFlags.username, "username", "", "login username")
		c.Flags().StringVar(&addFlags.notes, "notes", "", "notes")
	}

	addBookmarkCmd.Flags().StringVar(&addFlags.protocol, "protocol", "https", "http, https, ftp, sftp, smb, vnc, rdp or custom")
	addBookmarkCmd.Flags().StringVar(&addFlags.scheme, "scheme", "", "scheme for --protocol custom")
	addBookmarkCmd.Flags().IntVar(&addFlags.port, "port", 0, "port (default: protocol default)")
	addBookmarkCmd.Flags().StringVar(&addFlags.path, "path", "", "URL path")

	addSSHCmd.Flags().StringVarP(&addFlags.user, "user", "u", "", "SSH username (default root)")
	addSSHCmd.Flags().IntVar(&addFlags.port, "port", store.DefaultSSHPort, "SSH port")
	addSSHCmd.Flags().StringVar(&addFlags.keyPath, "key", "", "private key file")

	addAppCmd.Flags().StringVar(&addFlags.args, "args", "", "arguments, shell-quoted")

	addPasswordCmd.Flags().StringVar(&addFlags.service, "service", "", "service name (default NAME)")
	addPasswordCmd.Flags().StringVar(&addFlags.url, "url", "", "login URL to open")

	itemListCmd.Flags().StringVarP(&itemListGroup, "group", "g", "", "only items in this group")
	itemListCmd.Flags().StringVarP(&itemListKind, "kind", "k", "", "only items of this kind")
	itemRemoveCmd.Flags().BoolVarP(&itemRemoveForce, "force", "f", false, "skip confirmation")

	itemCmd.AddCommand(addBookmarkCmd, addSSHCmd, addAppCmd, addPasswordCmd,
		itemListCmd, itemShowCmd, itemMoveCmd, itemPasswordCmd, itemRemoveCmd)
	rootCmd.AddCommand(itemCmd)
}

// buildItem turns flags into an unsaved item.
func buildItem(name string, kind store.ItemKind, f itemFlags) (*store.Item, error) {
	item := &store.Item{Name: name, Kind: kind, Tags: f.tags}

	switch kind {
	case store.KindBookmark:
		item.Bookmark = &store.Bookmark{
			Protocol:     strings.ToLower(f.protocol),
			CustomScheme: f.scheme,
			Port:         f.port,
			Path:         f.path,
			Addresses:    f.addresses,
		}
	case store.KindSSH:
		user := f.user
		if user == "" {
			user = store.DefaultSSHUser
		}
		item.SSH = &store.SSH{
			Username:  user,
			Port:      f.port,
			Addresses: f.addresses,
			KeyPath:   f.keyPath,
		}
	case store.KindApp:
		args, err := shellquote.Split(f.args)
		if err != nil {
			return nil, fmt.Errorf("--args: %w", err)
		}
		item.App = &store.App{Path: f.path, Args: args}
	case store.KindPassword:
		service := f.service
		if service == "" {
			service = name
		}
		item.Password = &store.Password{Service: service, URL: f.url}
	default:
		return nil, fmt.Errorf("%w: %q", store.ErrUnknownItemType, kind)
	}

	if err := validation.Item(item); err != nil {
		return nil, err
	}
	return item, nil
}

func addItem(name string, kind store.ItemKind) error {
	item, err := buildItem(name, kind, addFlags)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	g, err := findGroup(a.store, addFlags.group)
	if err != nil {
		return err
	}
	item.GroupID = g.ID

	username := addFlags.username
	if kind == store.KindSSH {
		username = item.SSH.Username
	}
	if addFlags.withPassword {
		if err := a.unlock(); err != nil {
			return err
		}
		password, err := promptPassword("Password for " + name + ": ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		creds, err := a.vault.SealCredentials(username, password, addFlags.notes)
		if err != nil {
			return err
		}
		item.SetCredentials(creds)
	} else if addFlags.username != "" || addFlags.notes != "" {
		item.SetCredentials(&store.Credentials{Username: username, Notes: addFlags.notes})
	}

	if err := a.store.CreateItem(item); err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	if jsonOutput {
		return printJSON(item.Redacted())
	}
	Success("Added %s %s to %s", item.Kind, Bold("%s", item.Name), g.Name)
	return nil
}

func runItemList(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	groupID := uuid.Nil
	if itemListGroup != "" {
		g, err := findGroup(a.store, itemListGroup)
		if err != nil {
			return err
		}
		groupID = g.ID
	}

	items, err := a.store.ListItems(groupID)
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}
	groups, err := a.store.ListGroups()
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}
	groupNames := make(map[uuid.UUID]string, len(groups))
	for _, g := range groups {
		groupNames[g.ID] = g.Name
	}

	filtered := make([]*store.Item, 0, len(items))
	for _, it := range items {
		if itemListKind != "" && string(it.Kind) != itemListKind {
			continue
		}
		filtered = append(filtered, it.Redacted())
	}

	if jsonOutput {
		return printJSON(filtered)
	}

	if len(filtered) == 0 {
		fmt.Fprintln(os.Stderr, "No items found.")
		return nil
	}

	t := newTable("GROUP", "NAME", "KIND", "TARGET", "USED")
	for _, it := range filtered {
		t.Row(groupNames[it.GroupID], it.Name, KindLabel(it.Kind), describeTarget(it), it.AccessCount)
	}
	return t.Flush()
}

// describeTarget summarizes where an item points, for listings.
func describeTarget(it *store.Item) string {
	switch {
	case it.Bookmark != nil:
		return addressSummary(it.Bookmark.Addresses)
	case it.SSH != nil:
		return it.SSH.Username + "@" + addressSummary(it.SSH.Addresses)
	case it.App != nil:
		return it.App.Path
	case it.Password != nil:
		return it.Password.Service
	}
	return ""
}

func addressSummary(addrs network.Addresses) string {
	var parts []string
	for _, p := range network.Profiles() {
		if addr := addrs.Get(p); addr != "" {
			parts = append(parts, addr)
		}
	}
	if len(parts) == 0 {
		return Dim("no address")
	}
	return strings.Join(parts, ", ")
}

func runItemShow(_ *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	item, err := findItem(a.store, args[0])
	if err != nil {
		return err
	}
	item = item.Redacted()

	if jsonOutput {
		return printJSON(item)
	}

	PrintKeyValue("Name", item.Name)
	PrintKeyValue("Kind", string(item.Kind))
	PrintKeyValue("ID", item.ID.String())
	if len(item.Tags) > 0 {
		PrintKeyValue("Tags", strings.Join(item.Tags, ", "))
	}

	switch {
	case item.Bookmark != nil:
		PrintKeyValue("Protocol", item.Bookmark.Protocol)
		if item.Bookmark.Port != 0 {
			PrintKeyValue("Port", fmt.Sprintf("%d", item.Bookmark.Port))
		}
		if item.Bookmark.Path != "" {
			PrintKeyValue("Path", item.Bookmark.Path)
		}
		printAddresses(item.Bookmark.Addresses)
	case item.SSH != nil:
		PrintKeyValue("User", item.SSH.Username)
		PrintKeyValue("Port", fmt.Sprintf("%d", item.SSH.Port))
		if item.SSH.KeyPath != "" {
			PrintKeyValue("Key", item.SSH.KeyPath)
		}
		printAddresses(item.SSH.Addresses)
	case item.App != nil:
		PrintKeyValue("Path", item.App.Path)
		if len(item.App.Args) > 0 {
			PrintKeyValue("Args", shellquote.Join(item.App.Args...))
		}
	case item.Password != nil:
		PrintKeyValue("Service", item.Password.Service)
		if item.Password.URL != "" {
			PrintKeyValue("URL", item.Password.URL)
		}
	}

	if c := item.Credentials(); c != nil {
		if c.Username != "" {
			PrintKeyValue("Username", c.Username)
		}
		if c.HasPassword() {
			PrintKeyValue("Password", Dim("stored"))
		}
		if c.Notes != "" {
			PrintKeyValue("Notes", c.Notes)
		}
	}
	PrintKeyValue("Launched", fmt.Sprintf("%d times", item.AccessCount))
	return nil
}

func printAddresses(addrs network.Addresses) {
	for _, p := range network.Profiles() {
		if addr := addrs.Get(p); addr != "" {
			PrintKeyValue("Address ("+string(p)+")", addr)
		}
	}
}

func runItemMove(_ *cobra.Command, args []string) error {
	var position int
	if _, err := fmt.Sscanf(args[1], "%d", &position); err != nil || position < 0 {
		return fmt.Errorf("position must be a non-negative number")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	item, err := findItem(a.store, args[0])
	if err != nil {
		return err
	}
	if err := a.store.MoveItem(item.ID, position); err != nil {
		return fmt.Errorf("failed to move item: %w", err)
	}
	Success("Moved %s to position %d", item.Name, position)
	return nil
}

func runItemSetPassword(_ *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	item, err := findItem(a.store, args[0])
	if err != nil {
		return err
	}
	if item.Kind == store.KindApp {
		return fmt.Errorf("%s items cannot store a password", item.Kind)
	}

	if err := a.unlock(); err != nil {
		return err
	}
	password, err := promptPassword("Password for " + item.Name + ": ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	var username, notes string
	if c := item.Credentials(); c != nil {
		username, notes = c.Username, c.Notes
	}
	if item.SSH != nil {
		username = item.SSH.Username
	}
	creds, err := a.vault.SealCredentials(username, password, notes)
	if err != nil {
		return err
	}
	item.SetCredentials(creds)

	if err := a.store.UpdateItem(item); err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	Success("Password stored for %s", item.Name)
	return nil
}

func runItemRemove(_ *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	item, err := findItem(a.store, args[0])
	if err != nil {
		return err
	}
	if !itemRemoveForce && !PromptConfirm(fmt.Sprintf("Delete %s %q?", item.Kind, item.Name)) {
		Info("Aborted")
		return nil
	}
	if err := a.store.DeleteItem(item.ID); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	Success("Deleted %s", item.Name)
	return nil
}
