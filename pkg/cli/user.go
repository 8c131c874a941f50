package cli

import (
	"context"
	"flag"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/guacadm/guacadm/pkg/guacdb"
)

func newUserCommand() *Command {
	return newGroupedCommand("user", "Manage gateway users", map[string]*Command{
		"new":    newUserNewCommand(),
		"del":    newUserDelCommand(),
		"exists": newUserExistsCommand(),
		"passwd": newUserPasswdCommand(),
		"modify": newUserModifyCommand(),
		"list":   newUserListCommand(),
	})
}

func newUserNewCommand() *Command {
	fs := flag.NewFlagSet("user new", flag.ExitOnError)
	name := fs.String("name", "", "Username")
	password := fs.String("password", "", "Initial password")

	return &Command{
		Name:        "new",
		Description: "Create a user",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			return runInStore("user.new", func(ctx context.Context, s *guacdb.Store) error {
				if err := s.CreateUser(ctx, *name, *password); err != nil {
					return err
				}
				fmt.Printf("user %s created\n", *name)
				return nil
			})
		},
	}
}

func newUserDelCommand() *Command {
	fs := flag.NewFlagSet("user del", flag.ExitOnError)
	name := fs.String("name", "", "Username")

	return &Command{
		Name:        "del",
		Description: "Delete a user and its permissions",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			return runInStore("user.del", func(ctx context.Context, s *guacdb.Store) error {
				if err := s.DeleteUser(ctx, *name); err != nil {
					return err
				}
				fmt.Printf("user %s deleted\n", *name)
				return nil
			})
		},
	}
}

func newUserExistsCommand() *Command {
	fs := flag.NewFlagSet("user exists", flag.ExitOnError)
	name := fs.String("name", "", "Username")
	id := fs.Int64("id", 0, "Entity ID")

	return &Command{
		Name:        "exists",
		Description: "Check whether a user exists",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			sel, err := selector(*name, *id)
			if err != nil {
				return err
			}
			return runInStore("user.exists", func(ctx context.Context, s *guacdb.Store) error {
				ok, err := s.UserExists(ctx, sel)
				if err != nil {
					return err
				}
				fmt.Println(ok)
				if !ok {
					return fmt.Errorf("user %s does not exist", sel)
				}
				return nil
			})
		},
	}
}

func newUserPasswdCommand() *Command {
	fs := flag.NewFlagSet("user passwd", flag.ExitOnError)
	name := fs.String("name", "", "Username")
	password := fs.String("password", "", "New password")

	return &Command{
		Name:        "passwd",
		Description: "Change a user's password",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			return runInStore("user.passwd", func(ctx context.Context, s *guacdb.Store) error {
				if err := s.ChangeUserPassword(ctx, *name, *password); err != nil {
					return err
				}
				fmt.Printf("password for %s updated\n", *name)
				return nil
			})
		},
	}
}

func newUserModifyCommand() *Command {
	fs := flag.NewFlagSet("user modify", flag.ExitOnError)
	name := fs.String("name", "", "Username")
	param := fs.String("param", "", "Account field to set")
	value := fs.String("value", "", "New value")

	return &Command{
		Name:        "modify",
		Description: "Set a user account field",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			return runInStore("user.modify", func(ctx context.Context, s *guacdb.Store) error {
				return s.ModifyUserParameter(ctx, *name, *param, *value)
			})
		},
	}
}

func newUserListCommand() *Command {
	fs := flag.NewFlagSet("user list", flag.ExitOnError)
	withGroups := fs.Bool("groups", false, "Include group memberships")

	return &Command{
		Name:        "list",
		Description: "List users",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			return runInStore("user.list", func(ctx context.Context, s *guacdb.Store) error {
				if *withGroups {
					users, err := s.ListUsersWithGroups(ctx)
					if err != nil {
						return err
					}
					out, err := yaml.Marshal(users)
					if err != nil {
						return err
					}
					fmt.Print(string(out))
					return nil
				}
				users, err := s.ListUsers(ctx)
				if err != nil {
					return err
				}
				for _, u := range users {
					fmt.Println(u)
				}
				return nil
			})
		},
	}
}
