package cmd

import (
	"context"

	"github.com/pseudomuto/minerva/pkg/instance"
	"github.com/pseudomuto/minerva/pkg/pgclient"
	"github.com/urfave/cli/v3"
)

// updateCmd returns a CLI command that computes the diff between the
// current database state and the declarative instance definition, then
// applies it.
//
// Example usage:
//
//	# Reconcile the database with the instance definition
//	minerva update
func updateCmd() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Apply the declarative instance definition to the database",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := pgclient.Connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			root := instanceRoot()
			desired := instance.FromDirectory(root, cmd.Writer)

			current, err := instance.FromDatabase(ctx, client)
			if err != nil {
				return err
			}

			return instance.Update(ctx, client, current, desired, cmd.Writer)
		},
	}
}
