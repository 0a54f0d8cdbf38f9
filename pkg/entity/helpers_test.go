package entity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/opencfg/pkg/config"
	"github.com/jingkaihe/opencfg/pkg/filestore"
	"github.com/jingkaihe/opencfg/pkg/frontmatter"
	"github.com/jingkaihe/opencfg/pkg/jsonc"
)

const (
	testConfigDir = "/home/u/.config/opencode"
	testWorkDir   = "/work/proj"

	userJSON    = testConfigDir + "/opencode.json"
	projectJSON = testWorkDir + "/opencode.json"
)

func testPaths(withProject bool) config.Paths {
	p := config.Paths{ConfigDir: testConfigDir}
	if withProject {
		p.WorkDir = testWorkDir
	}
	return p
}

func newTestManager(t *testing.T, paths config.Paths) (*Manager, filestore.Store) {
	t.Helper()
	store := filestore.NewMemStore()
	m, err := NewManager(WithStore(store), WithPaths(paths))
	require.NoError(t, err)
	return m, store
}

func writeFile(t *testing.T, store filestore.Store, path, content string) {
	t.Helper()
	require.NoError(t, store.Write(path, []byte(content)))
}

func readFile(t *testing.T, store filestore.Store, path string) string {
	t.Helper()
	data, err := store.Read(path)
	require.NoError(t, err)
	return string(data)
}

func readJSON(t *testing.T, store filestore.Store, path string) map[string]any {
	t.Helper()
	tree, err := jsonc.ParseObject([]byte(readFile(t, store, path)))
	require.NoError(t, err)
	return tree
}

func readDoc(t *testing.T, store filestore.Store, path string) *frontmatter.Document {
	t.Helper()
	return frontmatter.Parse(readFile(t, store, path))
}
