package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/guacadm/guacadm/pkg/guacdb"
)

// paramFlag collects repeated --param key=value pairs.
type paramFlag map[string]string

func (p paramFlag) String() string {
	pairs := make([]string, 0, len(p))
	for k, v := range p {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (p paramFlag) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	p[key] = val
	return nil
}

func newConnCommand() *Command {
	return newGroupedCommand("conn", "Manage connections", map[string]*Command{
		"new":      newConnNewCommand(),
		"del":      newConnDelCommand(),
		"modify":   newConnModifyCommand(),
		"reparent": newConnReparentCommand(),
		"permit":   newConnPermitCommand(),
		"deny":     newConnDenyCommand(),
		"list":     newConnListCommand(),
	})
}

func newConnNewCommand() *Command {
	fs := flag.NewFlagSet("conn new", flag.ExitOnError)
	name := fs.String("name", "", "Connection name")
	protocol := fs.String("protocol", "", "Protocol (vnc, rdp, ssh)")
	hostname := fs.String("hostname", "", "Target hostname")
	port := fs.String("port", "", "Target port")
	password := fs.String("password", "", "Target password")
	parent := fs.String("parent", "", "Parent connection group")
	params := paramFlag{}
	fs.Var(params, "param", "Extra parameter as key=value (repeatable)")

	return &Command{
		Name:        "new",
		Description: "Create a connection",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			return runInStore("conn.new", func(ctx context.Context, s *guacdb.Store) error {
				id, err := s.CreateConnection(ctx, guacdb.ConnectionSpec{
					Name:        *name,
					Protocol:    *protocol,
					Hostname:    *hostname,
					Port:        *port,
					Password:    *password,
					ParentGroup: *parent,
					Parameters:  params,
				})
				if err != nil {
					return err
				}
				fmt.Printf("connection %s created with id %d\n", *name, id)
				return nil
			})
		},
	}
}

func newConnDelCommand() *Command {
	fs := flag.NewFlagSet("conn del", flag.ExitOnError)
	name := fs.String("name", "", "Connection name")
	id := fs.Int64("id", 0, "Connection ID")

	return &Command{
		Name:        "del",
		Description: "Delete a connection and its history",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			sel, err := selector(*name, *id)
			if err != nil {
				return err
			}
			return runInStore("conn.del", func(ctx context.Context, s *guacdb.Store) error {
				return s.DeleteConnection(ctx, sel)
			})
		},
	}
}

func newConnModifyCommand() *Command {
	fs := flag.NewFlagSet("conn modify", flag.ExitOnError)
	name := fs.String("name", "", "Connection name")
	id := fs.Int64("id", 0, "Connection ID")
	param := fs.String("param", "", "Parameter name")
	value := fs.String("value", "", "Parameter value")

	return &Command{
		Name:        "modify",
		Description: "Set a connection parameter",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			sel, err := selector(*name, *id)
			if err != nil {
				return err
			}
			return runInStore("conn.modify", func(ctx context.Context, s *guacdb.Store) error {
				return s.ModifyConnectionParameter(ctx, sel, *param, *value)
			})
		},
	}
}

func newConnReparentCommand() *Command {
	fs := flag.NewFlagSet("conn reparent", flag.ExitOnError)
	name := fs.String("name", "", "Connection name")
	id := fs.Int64("id", 0, "Connection ID")
	group := fs.String("group", "", "Target connection group (empty for root)")

	return &Command{
		Name:        "reparent",
		Description: "Move a connection into a connection group",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			sel, err := selector(*name, *id)
			if err != nil {
				return err
			}
			return runInStore("conn.reparent", func(ctx context.Context, s *guacdb.Store) error {
				return s.ReparentConnection(ctx, sel, *group)
			})
		},
	}
}

// principalFlags reads the shared --user/--usergroup principal pair.
func principalFlags(fs *flag.FlagSet) (user, usergroup *string) {
	user = fs.String("user", "", "User principal")
	usergroup = fs.String("usergroup", "", "User group principal")
	return user, usergroup
}

func principal(user, usergroup string) (kind string, sel guacdb.Selector, err error) {
	switch {
	case user != "" && usergroup != "":
		return "", guacdb.Selector{}, fmt.Errorf("--user and --usergroup are mutually exclusive")
	case user != "":
		return guacdb.KindUser, guacdb.ByName(user), nil
	case usergroup != "":
		return guacdb.KindUserGroup, guacdb.ByName(usergroup), nil
	default:
		return "", guacdb.Selector{}, fmt.Errorf("one of --user or --usergroup is required")
	}
}

func newConnPermitCommand() *Command {
	fs := flag.NewFlagSet("conn permit", flag.ExitOnError)
	name := fs.String("name", "", "Connection name")
	id := fs.Int64("id", 0, "Connection ID")
	user, usergroup := principalFlags(fs)

	return &Command{
		Name:        "permit",
		Description: "Grant READ on a connection",
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
			return runInStore("conn.permit", func(ctx context.Context, s *guacdb.Store) error {
				return s.GrantConnectionPermission(ctx, kind, sel, target)
			})
		},
	}
}

func newConnDenyCommand() *Command {
	fs := flag.NewFlagSet("conn deny", flag.ExitOnError)
	name := fs.String("name", "", "Connection name")
	id := fs.Int64("id", 0, "Connection ID")
	user, usergroup := principalFlags(fs)

	return &Command{
		Name:        "deny",
		Description: "Revoke permission on a connection",
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
			return runInStore("conn.deny", func(ctx context.Context, s *guacdb.Store) error {
				return s.RevokeConnectionPermission(ctx, kind, sel, target)
			})
		},
	}
}

func newConnListCommand() *Command {
	fs := flag.NewFlagSet("conn list", flag.ExitOnError)
	id := fs.Int64("id", 0, "Show a single connection by ID")

	return &Command{
		Name:        "list",
		Description: "List connections",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			return runInStore("conn.list", func(ctx context.Context, s *guacdb.Store) error {
				if *id != 0 {
					info, err := s.GetConnectionByID(ctx, *id)
					if err != nil {
						return err
					}
					out, err := yaml.Marshal(info)
					if err != nil {
						return err
					}
					fmt.Print(string(out))
					return nil
				}
				infos, err := s.ListConnections(ctx)
				if err != nil {
					return err
				}
				out, err := yaml.Marshal(infos)
				if err != nil {
					return err
				}
				fmt.Print(string(out))
				return nil
			})
		},
	}
}
