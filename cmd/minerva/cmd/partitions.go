package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/pseudomuto/minerva/pkg/instance"
	"github.com/pseudomuto/minerva/pkg/interval"
	"github.com/pseudomuto/minerva/pkg/pgclient"
	"github.com/urfave/cli/v3"
)

// partitionsCmd returns a CLI command grouping partition-management
// subcommands.
func partitionsCmd() *cli.Command {
	return &cli.Command{
		Name:  "partitions",
		Usage: "Manage trend store partitions",
		Commands: []*cli.Command{
			createPartitions(),
		},
	}
}

// createPartitions returns a CLI command that creates every partition,
// across every trend store, needed to cover from "now minus retention
// period" through "now plus ahead". ahead defaults to the project
// config's partitioning_ahead, or instance.DefaultPartitioningAhead if
// no config was found.
//
// Example usage:
//
//	# Create upcoming partitions using the configured window
//	minerva partitions create
//
//	# Create partitions 7 days ahead
//	minerva partitions create --ahead 7d
func createPartitions() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create any missing partitions through the partitioning-ahead window",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "ahead",
				Usage: "How far into the future to create partitions (e.g. 3d, 1week)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := pgclient.Connect(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			ahead, err := resolveAhead(cmd.String("ahead"))
			if err != nil {
				return err
			}

			created, err := instance.CreatePartitionsForWindow(ctx, client, ahead)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.Writer, "Created %d partition(s)\n", created)
			return nil
		},
	}
}

func resolveAhead(flagValue string) (time.Duration, error) {
	text := flagValue
	if text == "" && currentConfig != nil {
		text = currentConfig.PartitioningAhead
	}
	if text == "" {
		return instance.DefaultPartitioningAhead, nil
	}

	seconds, err := interval.Seconds(text)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}
