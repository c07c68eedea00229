// Minerva is a declarative reconciliation engine for Postgres-backed
// time-series data warehouses. It compares a declarative instance
// definition (trend stores, attribute stores, trend materializations,
// triggers, virtual entities) against a live database and applies the
// changes needed to bring the database in line.
//
// Usage:
//
//	# Initialize a brand new instance from scratch
//	minerva init
//
//	# Show what would change without applying anything
//	minerva diff
//
//	# Apply the declarative instance definition to the database
//	minerva update
//
//	# Create any partitions needed for the next few days
//	minerva partitions create
//
// For more information and examples, see the instance directory layout
// documented alongside this tool.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pseudomuto/minerva/cmd/minerva/cmd"
	"github.com/urfave/cli/v3"
)

// Build-time variables set by GoReleaser during release builds.
var (
	version string = "local"                               // Software version (e.g., "v1.0.0")
	commit  string = "local"                               // Git commit hash
	date    string = time.Now().UTC().Format(time.RFC3339) // Build timestamp
)

func main() {
	cli.VersionPrinter = func(cmd *cli.Command) {
		fmt.Fprintln(cmd.Writer, "Version:", version)
		fmt.Fprintln(cmd.Writer, "Commit:", commit)
		fmt.Fprintln(cmd.Writer, "Date:", date)
	}

	if err := cmd.Run(context.Background(), version, os.Args); err != nil {
		log.Fatal(err)
	}
}
