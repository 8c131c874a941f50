package cli

import (
	"context"
	"flag"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/guacadm/guacadm/pkg/guacdb"
)

// dumpDocument is the YAML layout of a full store dump.
type dumpDocument struct {
	Users            map[string][]string                     `yaml:"users"`
	UserGroups       map[string]guacdb.UserGroupDetail       `yaml:"user_groups"`
	Connections      []guacdb.ConnectionInfo                 `yaml:"connections"`
	ConnectionGroups map[string]guacdb.ConnectionGroupDetail `yaml:"connection_groups"`
}

func newDumpCommand() *Command {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)

	return &Command{
		Name:        "dump",
		Description: "Dump users, groups, connections and the group tree as YAML",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			return runInStore("dump", func(ctx context.Context, s *guacdb.Store) error {
				doc := dumpDocument{}
				var err error

				if doc.Users, err = s.ListUsersWithGroups(ctx); err != nil {
					return err
				}
				if doc.UserGroups, err = s.ListUserGroupsDetail(ctx); err != nil {
					return err
				}
				if doc.Connections, err = s.ListConnections(ctx); err != nil {
					return err
				}
				if doc.ConnectionGroups, err = s.ListConnectionGroups(ctx); err != nil {
					return err
				}

				out, err := yaml.Marshal(doc)
				if err != nil {
					return err
				}
				fmt.Print(string(out))
				return nil
			})
		},
	}
}
