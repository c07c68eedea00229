package cmd

import (
	"context"

	"github.com/pseudomuto/minerva/pkg/instance"
	"github.com/pseudomuto/minerva/pkg/pgclient"
	"github.com/urfave/cli/v3"
)

// initCmd returns a CLI command that bootstraps a brand new instance
// from its declarative definition: data sources, entity types,
// attribute stores, trend stores, virtual entities, trend
// materializations, triggers, and any custom post-init SQL under
// custom/post-init/*.sql.
//
// Unlike update, init does not diff against the current database state;
// it assumes an empty (or at least non-conflicting) database and
// creates everything the declarative definition names, logging and
// continuing past individual failures rather than aborting.
//
// Example usage:
//
//	# Bootstrap the instance defined in the current directory
//	minerva init
//
//	# Bootstrap from a specific project directory
//	minerva --dir /path/to/project init
func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create a new instance from its declarative definition",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := pgclient.Connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			root := instanceRoot()
			desired := instance.FromDirectory(root, cmd.Writer)

			instance.Initialize(ctx, client, desired, root, cmd.Writer)
			return nil
		},
	}
}
