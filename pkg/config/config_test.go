package config_test

import (
	"os"
	"strings"
	"testing"

	. "github.com/pseudomuto/minerva/pkg/config"
	"github.com/pseudomuto/minerva/pkg/consts"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		yamlData := `
instance_root: ./instance
partitioning_ahead: 7d
`
		cfg, err := LoadConfig(strings.NewReader(yamlData))
		require.NoError(t, err)
		require.Equal(t, "./instance", cfg.InstanceRoot)
		require.Equal(t, "7d", cfg.PartitioningAhead)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader("invalid: yaml: ["))
		require.Error(t, err)
		require.Nil(t, cfg)
		require.Contains(t, err.Error(), "failed to unmarshal project config")
	})

	t.Run("empty input falls back to defaults", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader(""))
		require.NoError(t, err)
		require.Equal(t, ".", cfg.InstanceRoot)
		require.Equal(t, consts.DefaultPartitioningAhead, cfg.PartitioningAhead)
	})

	t.Run("yaml with no recognized fields still defaults", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader("other_key: value"))
		require.NoError(t, err)
		require.Equal(t, ".", cfg.InstanceRoot)
		require.Equal(t, consts.DefaultPartitioningAhead, cfg.PartitioningAhead)
	})

	t.Run("instance root falls back to MINERVA_INSTANCE_ROOT", func(t *testing.T) {
		require.NoError(t, os.Setenv("MINERVA_INSTANCE_ROOT", "/srv/minerva"))
		defer func() { _ = os.Unsetenv("MINERVA_INSTANCE_ROOT") }()

		cfg, err := LoadConfig(strings.NewReader(""))
		require.NoError(t, err)
		require.Equal(t, "/srv/minerva", cfg.InstanceRoot)
	})

	t.Run("explicit instance root wins over env", func(t *testing.T) {
		require.NoError(t, os.Setenv("MINERVA_INSTANCE_ROOT", "/srv/minerva"))
		defer func() { _ = os.Unsetenv("MINERVA_INSTANCE_ROOT") }()

		cfg, err := LoadConfig(strings.NewReader("instance_root: ./instance\n"))
		require.NoError(t, err)
		require.Equal(t, "./instance", cfg.InstanceRoot)
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		tempFile, err := os.CreateTemp("", "minerva_test_*.yaml")
		require.NoError(t, err)
		defer func() { _ = os.Remove(tempFile.Name()) }()

		_, err = tempFile.WriteString("instance_root: ./instance\npartitioning_ahead: 1d\n")
		require.NoError(t, err)
		require.NoError(t, tempFile.Close())

		cfg, err := LoadConfigFile(tempFile.Name())
		require.NoError(t, err)
		require.Equal(t, "./instance", cfg.InstanceRoot)
		require.Equal(t, "1d", cfg.PartitioningAhead)
	})

	t.Run("nonexistent file", func(t *testing.T) {
		cfg, err := LoadConfigFile("nonexistent.yaml")
		require.Error(t, err)
		require.Nil(t, cfg)
		require.Contains(t, err.Error(), "failed to open file")
	})

	t.Run("directory instead of file", func(t *testing.T) {
		tempDir, err := os.MkdirTemp("", "minerva_test_dir")
		require.NoError(t, err)
		defer func() { _ = os.RemoveAll(tempDir) }()

		cfg, err := LoadConfigFile(tempDir)
		require.Error(t, err)
		require.Nil(t, cfg)
	})
}
