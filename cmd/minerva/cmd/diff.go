package cmd

import (
	"context"
	"fmt"

	"github.com/pseudomuto/minerva/pkg/instance"
	"github.com/pseudomuto/minerva/pkg/pgclient"
	"github.com/urfave/cli/v3"
)

// diffCmd returns a CLI command that prints the changes needed to
// reconcile the live database with the declarative instance definition,
// without applying any of them.
//
// Example usage:
//
//	# Show what update would do
//	minerva diff
func diffCmd() *cli.Command {
	return &cli.Command{
		Name:  "diff",
		Usage: "Show changes needed to reconcile the database with the instance definition",
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

			changeList := instance.Diff(current, desired)
			if len(changeList) == 0 {
				fmt.Fprintln(cmd.Writer, "No differences found. Instance is up to date.")
				return nil
			}

			fmt.Fprintln(cmd.Writer, "Changes:")
			for i, c := range changeList {
				fmt.Fprintf(cmd.Writer, "%d. %s\n", i+1, c)
			}

			return nil
		},
	}
}
