package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aardel/launchpad/internal/store"
	"github.com/aardel/launchpad/internal/validation"
)

var groupCmd = &cobra.Command{
	Use:     "group",
	Aliases: []string{"groups"},
	Short:   "Manage groups",
}

var groupIcon string

var groupAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a group",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupAdd,
}

var groupListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List groups",
	RunE:    runGroupList,
}

var groupRenameCmd = &cobra.Command{
	Use:   "rename GROUP NEW_NAME",
	Short: "Rename a group",
	Args:  cobra.ExactArgs(2),
	RunE:  runGroupRename,
}

var groupRemoveForce bool

var groupRemoveCmd = &cobra.Command{
	Use:     "rm GROUP",
	Aliases: []string{"delete"},
	Short:   "Delete a group and all of its items",
	Args:    cobra.ExactArgs(1),
	RunE:    runGroupRemove,
}

func init() {
	groupAddCmd.Flags().StringVar(&groupIcon, "icon", "", "icon name or emoji")
	groupRemoveCmd.Flags().BoolVarP(&groupRemoveForce, "force", "f", false, "skip confirmation")

	groupCmd.AddCommand(groupAddCmd, groupListCmd, groupRenameCmd, groupRemoveCmd)
	rootCmd.AddCommand(groupCmd)
}

func runGroupAdd(_ *cobra.Command, args []string) error {
	if err := validation.Name(args[0]); err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	g := &store.Group{Name: args[0], Icon: groupIcon, Expanded: true}
	if err := a.store.CreateGroup(g); err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	if jsonOutput {
		return printJSON(g)
	}
	Success("Created group %s", Bold("%s", g.Name))
	return nil
}

func runGroupList(_ *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	groups, err := a.store.ListGroups()
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}

	if jsonOutput {
		return printJSON(groups)
	}

	if len(groups) == 0 {
		Info("No groups yet. Add one with: lpad group add NAME")
		return nil
	}

	t := newTable("NAME", "ITEMS", "ID")
	for _, g := range groups {
		items, _ := a.store.ListItems(g.ID)
		name := g.Name
		if g.Icon != "" {
			name = g.Icon + " " + name
		}
		t.Row(name, len(items), Dim("%s", g.ID))
	}
	return t.Flush()
}

func runGroupRename(_ *cobra.Command, args []string) error {
	if err := validation.Name(args[1]); err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	g, err := findGroup(a.store, args[0])
	if err != nil {
		return err
	}
	old := g.Name
	g.Name = args[1]
	if err := a.store.UpdateGroup(g); err != nil {
		return fmt.Errorf("failed to rename group: %w", err)
	}
	Success("Renamed %s to %s", old, Bold("%s", g.Name))
	return nil
}

func runGroupRemove(_ *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	g, err := findGroup(a.store, args[0])
	if err != nil {
		return err
	}
	if !groupRemoveForce && !PromptConfirm(fmt.Sprintf("Delete group %q and all of its items?", g.Name)) {
		Info("Aborted")
		return nil
	}

	n, err := a.store.DeleteGroup(g.ID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	Success("Deleted group %s and %d items", g.Name, n)
	return nil
}
