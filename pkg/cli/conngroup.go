package cli

import (
	"context"
	"flag"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/guacadm/guacadm/pkg/guacdb"
)

func newConnGroupCommand() *Command {
	return newGroupedCommand("conngroup", "Manage connection groups", map[string]*Command{
		"new":      newConnGroupNewCommand(),
		"del":      newConnGroupDelCommand(),
		"reparent": newConnGroupReparentCommand(),
		"permit":   newConnGroupPermitCommand(),
		"deny":     newConnGroupDenyCommand(),
		"list":     newConnGroupListCommand(),
	})
}

func newConnGroupNewCommand() *Command {
	fs := flag.NewFlagSet("conngroup new", flag.ExitOnError)
	name := fs.String("name", "", "Connection group name")
	parent := fs.String("parent", "", "Parent connection group")

	return &Command{
		Name:        "new",
		Description: "Create a connection group",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			return runInStore("conngroup.new", func(ctx context.Context, s *guacdb.Store) error {
				id, err := s.CreateConnectionGroup(ctx, *name, *parent)
				if err != nil {
					return err
				}
				fmt.Printf("connection group %s created with id %d\n", *name, id)
				return nil
			})
		},
	}
}

func newConnGroupDelCommand() *Command {
	fs := flag.NewFlagSet("conngroup del", flag.ExitOnError)
	name := fs.String("name", "", "Connection group name")
	id := fs.Int64("id", 0, "Connection group ID")

	return &Command{
		Name:        "del",
		Description: "Delete a connection group, promoting its children",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			sel, err := selector(*name, *id)
			if err != nil {
				return err
			}
			return runInStore("conngroup.del", func(ctx context.Context, s *guacdb.Store) error {
				return s.DeleteConnectionGroup(ctx, sel)
			})
		},
	}
}

func newConnGroupReparentCommand() *Command {
	fs := flag.NewFlagSet("conngroup reparent", flag.ExitOnError)
	name := fs.String("name", "", "Connection group name")
	id := fs.Int64("id", 0, "Connection group ID")
	parent := fs.String("parent", "", "New parent group (empty for root)")

	return &Command{
		Name:        "reparent",
		Description: "Move a connection group under a new parent",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			sel, err := selector(*name, *id)
			if err != nil {
				return err
			}
			return runInStore("conngroup.reparent", func(ctx context.Context, s *guacdb.Store) error {
				return s.ReparentConnectionGroup(ctx, sel, *parent)
			})
		},
	}
}

func newConnGroupPermitCommand() *Command {
	fs := flag.NewFlagSet("conngroup permit", flag.ExitOnError)
	name := fs.String("name", "", "Connection group name")
	id := fs.Int64("id", 0, "Connection group ID")
	user, usergroup := principalFlags(fs)

	return &Command{
		Name:        "permit",
		Description: "Grant READ on a connection group",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			kind, sel, err := principal(*user, *usergroup)
			if err != nil {
				return err
			}
			target, err := selector(*name, *id)
			if err != nil {
				return err
			}
			return runInStore("conngroup.permit", func(ctx context.Context, s *guacdb.Store) error {
				return s.GrantConnectionGroupPermission(ctx, kind, sel, target)
			})
		},
	}
}

func newConnGroupDenyCommand() *Command {
	fs := flag.NewFlagSet("conngroup deny", flag.ExitOnError)
	name := fs.String("name", "", "Connection group name")
	id := fs.Int64("id", 0, "Connection group ID")
	user, usergroup := principalFlags(fs)

	return &Command{
		Name:        "deny",
		Description: "Revoke permission on a connection group",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			kind, sel, err := principal(*user, *usergroup)
			if err != nil {
				return err
			}
			target, err := selector(*name, *id)
			if err != nil {
				return err
			}
			return runInStore("conngroup.deny", func(ctx context.Context, s *guacdb.Store) error {
				return s.RevokeConnectionGroupPermission(ctx, kind, sel, target)
			})
		},
	}
}

func newConnGroupListCommand() *Command {
	fs := flag.NewFlagSet("conngroup list", flag.ExitOnError)
	id := fs.Int64("id", 0, "Show a single connection group by ID")

	return &Command{
		Name:        "list",
		Description: "List connection groups",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			return runInStore("conngroup.list", func(ctx context.Context, s *guacdb.Store) error {
				if *id != 0 {
					name, detail, err := s.GetConnectionGroupByID(ctx, *id)
					if err != nil {
						return err
					}
					out, err := yaml.Marshal(map[string]guacdb.ConnectionGroupDetail{name: detail})
					if err != nil {
						return err
					}
					fmt.Print(string(out))
					return nil
				}
				groups, err := s.ListConnectionGroups(ctx)
				if err != nil {
					return err
				}
				out, err := yaml.Marshal(groups)
				if err != nil {
					return err
				}
				fmt.Print(string(out))
				return nil
			})
		},
	}
}
