package config

import (
	"os"

	"go.uber.org/fx"
)

// Module provides the project Config to the fx graph, loaded from
// minerva.yaml in the current directory when present.
var Module = fx.Module("config", fx.Provide(
	// Function attempts to load the configuration from minerva.yaml if it
	// exists. Returns nil if the file doesn't exist, allowing commands
	// that don't require config (like init, help, version) to function
	// properly.
	func() (*Config, error) {
		if _, err := os.Stat("minerva.yaml"); os.IsNotExist(err) {
			return nil, nil
		}

		return LoadConfigFile("minerva.yaml")
	},
))
