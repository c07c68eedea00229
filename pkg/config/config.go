// Package config loads Minerva's project-level configuration: the
// declarative instance root and a handful of runtime defaults.
package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/pseudomuto/minerva/pkg/consts"
	"gopkg.in/yaml.v3"
)

type (
	// Config represents the project configuration for a Minerva
	// instance.
	Config struct {
		// InstanceRoot is the declarative instance tree's root
		// directory, holding trend/, attribute/, materialization/, and
		// the rest of the layout pkg/loader reads.
		InstanceRoot string `yaml:"instance_root,omitempty"`

		// PartitioningAhead is how far into the future partitions are
		// created by default, as duration shorthand (e.g. "3d").
		PartitioningAhead string `yaml:"partitioning_ahead,omitempty"`
	}
)

// LoadConfig parses a project configuration from the provided io.Reader.
//
// The function expects YAML-formatted configuration data naming the
// instance root and any runtime defaults. If no instance root is
// specified, it falls back to MINERVA_INSTANCE_ROOT, then to the current
// directory; if no partitioning-ahead window is specified, it defaults to
// consts.DefaultPartitioningAhead.
//
// Example:
//
//	import (
//		"strings"
//		"github.com/pseudomuto/minerva/pkg/config"
//	)
//
//	yamlData := `
//	instance_root: ./instance
//	partitioning_ahead: 3d
//	`
//
//	cfg, err := config.LoadConfig(strings.NewReader(yamlData))
//	if err != nil {
//		panic(err)
//	}
//
//	fmt.Printf("Instance root: %s\n", cfg.InstanceRoot)
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to unmarshal project config")
	}

	if cfg.InstanceRoot == "" {
		cfg.InstanceRoot = os.Getenv("MINERVA_INSTANCE_ROOT")
	}
	if cfg.InstanceRoot == "" {
		cfg.InstanceRoot = "."
	}
	if cfg.PartitioningAhead == "" {
		cfg.PartitioningAhead = consts.DefaultPartitioningAhead
	}

	return &cfg, nil
}

// LoadConfigFile loads a project configuration from the specified file
// path. This is a convenience function that opens the file and calls
// LoadConfig.
//
// Example:
//
//	cfg, err := config.LoadConfigFile("minerva.yaml")
//	if err != nil {
//		log.Fatal("Failed to load config:", err)
//	}
//
//	fmt.Printf("Instance root: %s\n", cfg.InstanceRoot)
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}
