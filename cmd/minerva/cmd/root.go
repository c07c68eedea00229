// Package cmd provides CLI commands for the minerva tool.
//
// This package implements the command-line interface for minerva,
// providing commands for instance initialization, diffing a declarative
// instance definition against a live database, applying that diff, and
// managing time-series partitions.
//
// # Available Commands
//
// The cmd package currently provides:
//   - init: Bootstrap a brand new instance from its declarative definition
//   - diff: Show the changes needed to reconcile the database
//   - update: Apply the declarative instance definition to the database
//   - partitions: Create upcoming trend store partitions
//
// Each command is implemented as a separate function that returns a
// *cli.Command, following the urfave/cli/v3 pattern.
package cmd

import (
	"context"
	"os"

	"github.com/pseudomuto/minerva/pkg/config"
	"github.com/urfave/cli/v3"
)

var currentConfig *config.Config

// Run creates and executes the main minerva CLI application with the
// given version and command-line arguments.
//
// Global Flags:
//   - --dir, -d: Project directory (defaults to current directory)
//
// The application looks for minerva.yaml in the specified directory. If
// found, it's loaded into the global currentConfig variable for use by
// subcommands; if not found, currentConfig stays nil and subcommands
// fall back to their own defaults (an instance root taken from
// MINERVA_INSTANCE_ROOT, or "." when that is unset, for instance).
func Run(ctx context.Context, version string, args []string) error {
	app := &cli.Command{
		Name:  "minerva",
		Usage: "Reconcile a Postgres-backed time-series data warehouse with its declarative definition",
		Description: `minerva is a CLI tool that reconciles a declarative instance definition
(trend stores, attribute stores, trend materializations, triggers) with a live
Postgres-backed time-series database, applying whatever changes are needed.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "dir",
				Aliases:     []string{"d"},
				Usage:       "the project directory",
				Value:       ".",
				DefaultText: "Current directory",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			projectDir := cmd.String("dir")

			if err := os.Chdir(projectDir); err != nil {
				return ctx, err
			}

			if _, err := os.Stat("minerva.yaml"); os.IsNotExist(err) {
				return ctx, nil
			} else if err != nil {
				return ctx, err
			}

			cfg, err := config.LoadConfigFile("minerva.yaml")
			if err != nil {
				return ctx, err
			}

			currentConfig = cfg
			return ctx, nil
		},
		Commands: []*cli.Command{
			initCmd(),
			diffCmd(),
			updateCmd(),
			partitionsCmd(),
		},
	}

	return app.Run(ctx, args)
}

// instanceRoot resolves the declarative instance's root directory: the
// configured instance_root if a minerva.yaml was found, else
// MINERVA_INSTANCE_ROOT if set, else ".".
func instanceRoot() string {
	if currentConfig != nil && currentConfig.InstanceRoot != "" {
		return currentConfig.InstanceRoot
	}
	if v := os.Getenv("MINERVA_INSTANCE_ROOT"); v != "" {
		return v
	}
	return "."
}
