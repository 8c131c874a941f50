package cli

import (
	"context"
	"flag"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/guacadm/guacadm/pkg/guacdb"
)

func newGroupCommand() *Command {
	return newGroupedCommand("group", "Manage user groups", map[string]*Command{
		"new":     newGroupNewCommand(),
		"del":     newGroupDelCommand(),
		"adduser": newGroupAddUserCommand(),
		"deluser": newGroupDelUserCommand(),
		"modify":  newGroupModifyCommand(),
		"list":    newGroupListCommand(),
	})
}

func newGroupNewCommand() *Command {
	fs := flag.NewFlagSet("group new", flag.ExitOnError)
	name := fs.String("name", "", "Group name")

	return &Command{
		Name:        "new",
		Description: "Create a user group",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			return runInStore("group.new", func(ctx context.Context, s *guacdb.Store) error {
				if err := s.CreateUserGroup(ctx, *name); err != nil {
					return err
				}
				fmt.Printf("group %s created\n", *name)
				return nil
			})
		},
	}
}

func newGroupDelCommand() *Command {
	fs := flag.NewFlagSet("group del", flag.ExitOnError)
	name := fs.String("name", "", "Group name")
	id := fs.Int64("id", 0, "Group ID")

	return &Command{
		Name:        "del",
		Description: "Delete a user group and its memberships",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			sel, err := selector(*name, *id)
			if err != nil {
				return err
			}
			return runInStore("group.del", func(ctx context.Context, s *guacdb.Store) error {
				return s.DeleteUserGroup(ctx, sel)
			})
		},
	}
}

func newGroupAddUserCommand() *Command {
	fs := flag.NewFlagSet("group adduser", flag.ExitOnError)
	name := fs.String("name", "", "Group name")
	user := fs.String("user", "", "Username to add")

	return &Command{
		Name:        "adduser",
		Description: "Add a user to a group",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			return runInStore("group.adduser", func(ctx context.Context, s *guacdb.Store) error {
				return s.AddUserToGroup(ctx, *user, *name)
			})
		},
	}
}

func newGroupDelUserCommand() *Command {
	fs := flag.NewFlagSet("group deluser", flag.ExitOnError)
	name := fs.String("name", "", "Group name")
	user := fs.String("user", "", "Username to remove")

	return &Command{
		Name:        "deluser",
		Description: "Remove a user from a group",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			return runInStore("group.deluser", func(ctx context.Context, s *guacdb.Store) error {
				return s.RemoveUserFromGroup(ctx, *user, *name)
			})
		},
	}
}

func newGroupModifyCommand() *Command {
	fs := flag.NewFlagSet("group modify", flag.ExitOnError)
	name := fs.String("name", "", "Group name")
	disabled := fs.String("disabled", "", "Set disabled flag (0 or 1)")

	return &Command{
		Name:        "modify",
		Description: "Modify a user group",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			return runInStore("group.modify", func(ctx context.Context, s *guacdb.Store) error {
				switch *disabled {
				case "0":
					return s.SetUserGroupDisabled(ctx, guacdb.ByName(*name), false)
				case "1":
					return s.SetUserGroupDisabled(ctx, guacdb.ByName(*name), true)
				default:
					return fmt.Errorf("--disabled accepts only 0 or 1")
				}
			})
		},
	}
}

func newGroupListCommand() *Command {
	fs := flag.NewFlagSet("group list", flag.ExitOnError)
	detail := fs.Bool("detail", false, "Include members and connections")

	return &Command{
		Name:        "list",
		Description: "List user groups",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			return runInStore("group.list", func(ctx context.Context, s *guacdb.Store) error {
				if *detail {
					groups, err := s.ListUserGroupsDetail(ctx)
					if err != nil {
						return err
					}
					out, err := yaml.Marshal(groups)
					if err != nil {
						return err
					}
					fmt.Print(string(out))
					return nil
				}
				groups, err := s.ListUserGroups(ctx)
				if err != nil {
					return err
				}
				for _, g := range groups {
					fmt.Println(g)
				}
				return nil
			})
		},
	}
}
