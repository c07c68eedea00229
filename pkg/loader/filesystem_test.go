package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/minerva/pkg/loader"
	"github.com/pseudomuto/minerva/pkg/merrors"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFromDirectory_LoadsAllEntityKinds(t *testing.T) {
	root := t.TempDir()

	writeFile(t, root, "directory/data-source/hub.yaml", "name: hub\ndescription: hub source\n")
	writeFile(t, root, "directory/entity-type/node.yaml", "name: node\ndescription: a node\n")
	writeFile(t, root, "trend/hub_node.yaml", `
data_source: hub
entity_type: node
granularity: 15m
parts: []
`)
	writeFile(t, root, "attribute/hub_node.yaml", `
data_source: hub
entity_type: node
attributes: []
`)
	writeFile(t, root, "relation/node_names.yaml", "name: node_names\nquery: SELECT id FROM node\n")
	writeFile(t, root, "materialization/hub_node.yaml", `
target_trend_store_part: hub_node_main_15m
view: "SELECT 1"
`)
	writeFile(t, root, "virtual-entity/composite_node.sql", "CREATE VIEW composite_node AS SELECT 1;")

	instance, errs := loader.FromDirectory(root)
	require.Empty(t, errs)

	require.Len(t, instance.DataSources, 1)
	require.Equal(t, "hub", instance.DataSources[0].Name)

	require.Len(t, instance.EntityTypes, 1)
	require.Equal(t, "node", instance.EntityTypes[0].Name)

	require.Len(t, instance.TrendStores, 1)
	require.Equal(t, "hub", instance.TrendStores[0].DataSource)

	require.Len(t, instance.AttributeStores, 1)

	require.Len(t, instance.Relations, 1)
	require.Equal(t, "node_names", instance.Relations[0].Name)

	require.Len(t, instance.Materializations, 1)

	require.Len(t, instance.VirtualEntities, 1)
	require.Equal(t, "composite_node", instance.VirtualEntities[0].Name)
	require.Contains(t, instance.VirtualEntities[0].SQL, "CREATE VIEW")
}

func TestFromDirectory_MissingDirectoriesYieldEmptyNotError(t *testing.T) {
	instance, errs := loader.FromDirectory(t.TempDir())
	require.Empty(t, errs)
	require.Empty(t, instance.TrendStores)
	require.Empty(t, instance.Relations)
}

func TestFromDirectory_UnparsableFileIsReportedNotFatal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "relation/good.yaml", "name: good\nquery: SELECT 1\n")
	writeFile(t, root, "relation/bad.yaml", "name: [this is not a valid relation\n")

	instance, errs := loader.FromDirectory(root)
	require.NotEmpty(t, errs)
	require.Len(t, instance.Relations, 1)
	require.Equal(t, "good", instance.Relations[0].Name)
}

func TestFromDirectory_UnsupportedExtensionIsConfigurationError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "trend/hub_node.toml", "data_source = \"hub\"\n")

	_, errs := loader.FromDirectory(root)
	require.NotEmpty(t, errs)
	found := false
	for _, err := range errs {
		if merrors.Is(err, merrors.KindConfiguration) {
			found = true
		}
	}
	require.True(t, found)
}

func TestFromDirectory_LoadsBothYAMLAndJSONTrendStores(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "trend/a.yaml", "data_source: hub\nentity_type: node\ngranularity: 15m\nparts: []\n")
	writeFile(t, root, "trend/b.json", `{"data_source":"hub","entity_type":"other","granularity":"1h","parts":[]}`)

	instance, errs := loader.FromDirectory(root)
	require.Empty(t, errs)
	require.Len(t, instance.TrendStores, 2)
}

func TestFromDirectory_VirtualEntityNameStripsExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "virtual-entity/my_view.sql", "CREATE VIEW my_view AS SELECT 1;")

	instance, errs := loader.FromDirectory(root)
	require.Empty(t, errs)
	require.Len(t, instance.VirtualEntities, 1)
	require.Equal(t, "my_view", instance.VirtualEntities[0].Name)
}
