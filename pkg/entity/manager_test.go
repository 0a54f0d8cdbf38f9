package entity

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/opencfg/pkg/config"
)

func TestNewManager_Options(t *testing.T) {
	_, err := NewManager(WithStore(nil))
	assert.Error(t, err)

	_, err = NewManager(WithPaths(config.Paths{}))
	assert.Error(t, err)

	m, _ := newTestManager(t, testPaths(true))
	assert.Equal(t, testPaths(true), m.Paths())
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		assert.Error(t, validateName(Agent, name), name)
	}
	assert.NoError(t, validateName(Agent, "code-reviewer"))
}

func TestEnsureDirs(t *testing.T) {
	m, store := newTestManager(t, testPaths(false))
	require.NoError(t, m.EnsureDirs())

	files, err := store.ReadDir(testConfigDir + "/agent")
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.True(t, store.Exists(testConfigDir+"/command"))
}

func TestUpdate_ReviewerScenario(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, testPaths(true))
	mdPath := testWorkDir + "/.opencode/agent/reviewer.md"
	writeFile(t, store, mdPath, "---\nmodel: gpt-4\n---\n\nReview code")

	err := m.Update(ctx, Agent, "reviewer", EditsFromMap(map[string]any{
		"model":  "gpt-5",
		"prompt": "Review code carefully",
	}))
	require.NoError(t, err)

	doc := readDoc(t, store, mdPath)
	assert.Equal(t, map[string]any{"model": "gpt-5"}, doc.Frontmatter)
	assert.Equal(t, "Review code carefully", doc.Body)

	assert.Equal(t, "---\nmodel: gpt-4\n---\n\nReview code", readFile(t, store, config.BackupPath(mdPath)))
	assert.False(t, store.Exists(userJSON))
	assert.False(t, store.Exists(projectJSON))
	assert.False(t, store.Exists(testConfigDir+"/agent/reviewer.md"))
}

func TestUpdate_BackupHoldsPreviousWrite(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, testPaths(false))
	mdPath := testConfigDir + "/agent/rev.md"
	writeFile(t, store, mdPath, "---\nmodel: a\n---\n\nBody")
	writeFile(t, store, userJSON, `{"agent":{"plan":{"model":"a"}}}`)

	require.NoError(t, m.Update(ctx, Agent, "rev", Edits{{Field: "model", Value: "b"}}))
	afterFirst := readFile(t, store, mdPath)
	require.NoError(t, m.Update(ctx, Agent, "rev", Edits{{Field: "model", Value: "c"}}))

	assert.Equal(t, afterFirst, readFile(t, store, config.BackupPath(mdPath)))
	assert.Equal(t, "c", readDoc(t, store, mdPath).Frontmatter["model"])

	require.NoError(t, m.Update(ctx, Agent, "plan", Edits{{Field: "model", Value: "b"}}))
	jsonAfterFirst := readFile(t, store, userJSON)
	require.NoError(t, m.Update(ctx, Agent, "plan", Edits{{Field: "model", Value: "c"}}))

	assert.Equal(t, jsonAfterFirst, readFile(t, store, config.BackupPath(userJSON)))
}

func TestUpdate_UnrelatedValuesSurviveRewrite(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, testPaths(false))
	mdPath := testConfigDir + "/agent/rev.md"
	writeFile(t, store, mdPath, "---\ndescription: yes\non: x\nsteps: 9007199254740993\nmodel: a\n---\n\nBody")
	writeFile(t, store, userJSON, `{"limit": 9007199254740993, "ratio": 0.10, "agent":{"x":{"model":"a"}}}`)

	require.NoError(t, m.Update(ctx, Agent, "rev", Edits{{Field: "model", Value: "b"}}))
	require.NoError(t, m.Update(ctx, Agent, "x", Edits{{Field: "model", Value: "b"}}))

	assert.Equal(t, map[string]any{
		"description": "yes",
		"on":          "x",
		"steps":       json.Number("9007199254740993"),
		"model":       "b",
	}, readDoc(t, store, mdPath).Frontmatter)

	content := readFile(t, store, userJSON)
	assert.Contains(t, content, `"limit": 9007199254740993`)
	assert.Contains(t, content, `"ratio": 0.10`)
}

func TestUpdate_FieldInJSONLeavesMarkdownUntouched(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, testPaths(false))
	mdPath := testConfigDir + "/agent/rev.md"
	mdContent := "---\ndescription: Reviews\nmodel: stale\n---\n\nBody"
	writeFile(t, store, mdPath, mdContent)
	writeFile(t, store, userJSON, `{"agent":{"rev":{"model":"a"}}}`)

	require.NoError(t, m.Update(ctx, Agent, "rev", Edits{{Field: "model", Value: "b"}}))

	assert.Equal(t, mdContent, readFile(t, store, mdPath))
	assert.False(t, store.Exists(config.BackupPath(mdPath)))
	assert.Equal(t, map[string]any{"model": "b"}, readJSON(t, store, userJSON)["agent"].(map[string]any)["rev"])

	require.NoError(t, m.Update(ctx, Agent, "rev", Edits{{Field: "description", Value: "Reviews PRs"}}))
	assert.Equal(t, "Reviews PRs", readDoc(t, store, mdPath).Frontmatter["description"])
	assert.NotContains(t, readJSON(t, store, userJSON)["agent"].(map[string]any)["rev"], "description")
}

func TestUpdate_JSONOnlyEntityStaysInItsLayer(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, testPaths(true))
	writeFile(t, store, userJSON, `{
  // user layer
  "theme": "dark",
  "command": {
    "test": {"template": "Run tests"},
    "lint": {"template": "Run lint"}
  }
}`)

	require.NoError(t, m.Update(ctx, Command, "test", Edits{
		{Field: "template", Value: "Run all tests"},
		{Field: "agent", Value: "build"},
	}))

	tree := readJSON(t, store, userJSON)
	assert.Equal(t, "dark", tree["theme"])
	commands := tree["command"].(map[string]any)
	assert.Equal(t, map[string]any{"template": "Run all tests", "agent": "build"}, commands["test"])
	assert.Equal(t, map[string]any{"template": "Run lint"}, commands["lint"])

	assert.True(t, store.Exists(config.BackupPath(userJSON)))
	assert.False(t, store.Exists(projectJSON))
	assert.False(t, store.Exists(testWorkDir+"/.opencode/command/test.md"))
	assert.False(t, store.Exists(testConfigDir+"/command/test.md"))
}

func TestUpdate_ProjectLayerEntryWins(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, testPaths(true))
	writeFile(t, store, userJSON, `{"agent":{"plan":{"model":"user"}}}`)
	writeFile(t, store, projectJSON, `{"agent":{"plan":{"model":"project"}}}`)

	require.NoError(t, m.Update(ctx, Agent, "plan", Edits{{Field: "model", Value: "new"}}))

	assert.Equal(t, "new", readJSON(t, store, projectJSON)["agent"].(map[string]any)["plan"].(map[string]any)["model"])
	assert.Equal(t, `{"agent":{"plan":{"model":"user"}}}`, readFile(t, store, userJSON))
}

func TestUpdate_BuiltinOverrideMaterializesUserMarkdown(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, testPaths(true))

	require.NoError(t, m.Update(ctx, Agent, "build", Edits{
		{Field: "model", Value: "gpt-5"},
		{Field: "temperature", Value: 0.2},
	}))

	mdPath := testConfigDir + "/agent/build.md"
	doc := readDoc(t, store, mdPath)
	assert.Equal(t, map[string]any{"model": "gpt-5", "temperature": json.Number("0.2")}, doc.Frontmatter)
	assert.Equal(t, "", doc.Body)

	assert.False(t, store.Exists(testWorkDir+"/.opencode/agent/build.md"))
	assert.False(t, store.Exists(userJSON))
	assert.False(t, store.Exists(projectJSON))
	assert.False(t, store.Exists(config.BackupPath(mdPath)))
}

func TestUpdate_NullRemovesFromBothStores(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, testPaths(false))
	mdPath := testConfigDir + "/agent/rev.md"
	writeFile(t, store, mdPath, "---\nmodel: a\ntemperature: 0.1\n---\n\nBody")
	writeFile(t, store, userJSON, `{"agent":{"rev":{"model":"b","mode":"subagent"}}}`)

	require.NoError(t, m.Update(ctx, Agent, "rev", Edits{{Field: "model", Value: nil}}))

	doc := readDoc(t, store, mdPath)
	assert.Equal(t, map[string]any{"temperature": json.Number("0.1")}, doc.Frontmatter)
	assert.Equal(t, "Body", doc.Body)
	assert.Equal(t, map[string]any{"mode": "subagent"}, readJSON(t, store, userJSON)["agent"].(map[string]any)["rev"])
}

func TestUpdate_NullForAbsentFieldWritesNothing(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, testPaths(false))
	mdPath := testConfigDir + "/agent/rev.md"
	mdContent := "---\nmodel: a\n---\n\nBody"
	jsonContent := `{"agent":{"rev":{"mode":"subagent"}}}`
	writeFile(t, store, mdPath, mdContent)
	writeFile(t, store, userJSON, jsonContent)

	require.NoError(t, m.Update(ctx, Agent, "rev", Edits{{Field: "tools", Value: nil}}))

	assert.Equal(t, mdContent, readFile(t, store, mdPath))
	assert.Equal(t, jsonContent, readFile(t, store, userJSON))
	assert.False(t, store.Exists(config.BackupPath(mdPath)))
	assert.False(t, store.Exists(config.BackupPath(userJSON)))
}

func TestUpdate_BodyWrittenThroughFileReference(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, testPaths(false))
	jsonContent := `{"agent":{"doc":{"prompt":"{file:./prompts/doc.txt}"}}}`
	promptPath := testConfigDir + "/prompts/doc.txt"
	writeFile(t, store, userJSON, jsonContent)
	writeFile(t, store, promptPath, "Old prompt")

	require.NoError(t, m.Update(ctx, Agent, "doc", Edits{{Field: "prompt", Value: "New prompt"}}))

	assert.Equal(t, "New prompt", readFile(t, store, promptPath))
	assert.Equal(t, "Old prompt", readFile(t, store, config.BackupPath(promptPath)))
	assert.Equal(t, jsonContent, readFile(t, store, userJSON))
}

func TestUpdate_InvalidFileReferenceWritesNothing(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, testPaths(false))
	jsonContent := `{"agent":{"doc":{"prompt":"{file:  }","model":"a"}}}`
	writeFile(t, store, userJSON, jsonContent)

	err := m.Update(ctx, Agent, "doc", Edits{
		{Field: "model", Value: "b"},
		{Field: "prompt", Value: "New prompt"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidReference))
	assert.Equal(t, jsonContent, readFile(t, store, userJSON))
}

func TestUpdate_ParseErrorSurfaces(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, testPaths(false))
	writeFile(t, store, userJSON, `{"agent": {`)

	err := m.Update(ctx, Agent, "x", Edits{{Field: "model", Value: "a"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.False(t, store.Exists(testConfigDir+"/agent/x.md"))
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("project scope with workdir", func(t *testing.T) {
		m, store := newTestManager(t, testPaths(true))
		require.NoError(t, m.Create(ctx, Agent, "reviewer", map[string]any{
			"scope":       "project",
			"model":       "gpt-5",
			"description": "Reviews code",
			"prompt":      "Review code",
		}, config.ScopeProject))

		doc := readDoc(t, store, testWorkDir+"/.opencode/agent/reviewer.md")
		assert.Equal(t, map[string]any{"model": "gpt-5", "description": "Reviews code"}, doc.Frontmatter)
		assert.Equal(t, "Review code", doc.Body)
		assert.False(t, store.Exists(testConfigDir+"/agent/reviewer.md"))
	})

	t.Run("project scope without workdir falls back to user", func(t *testing.T) {
		m, store := newTestManager(t, testPaths(false))
		require.NoError(t, m.Create(ctx, Command, "test", map[string]any{"template": "Run tests"}, config.ScopeProject))

		doc := readDoc(t, store, testConfigDir+"/command/test.md")
		assert.Equal(t, map[string]any{}, doc.Frontmatter)
		assert.Equal(t, "Run tests", doc.Body)
	})

	t.Run("default scope is user", func(t *testing.T) {
		m, store := newTestManager(t, testPaths(true))
		require.NoError(t, m.Create(ctx, Agent, "a", map[string]any{"model": "m"}, config.ScopeNone))
		assert.True(t, store.Exists(testConfigDir+"/agent/a.md"))
	})
}

func TestCreate_AlreadyExists(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		setup map[string]string
	}{
		{"project markdown", map[string]string{testWorkDir + "/.opencode/agent/a.md": "body"}},
		{"user markdown", map[string]string{testConfigDir + "/agent/a.md": "body"}},
		{"user json", map[string]string{userJSON: `{"agent":{"a":{}}}`}},
		{"project json", map[string]string{projectJSON: `{"agent":{"a":{"model":"m"}}}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, store := newTestManager(t, testPaths(true))
			for path, content := range tt.setup {
				writeFile(t, store, path, content)
			}

			err := m.Create(ctx, Agent, "a", map[string]any{"model": "x"}, config.ScopeProject)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrAlreadyExists))
		})
	}
}

func TestDelete_JSONOnlyEntry(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, testPaths(false))
	original := `{"agent":{"x":{"model":"a"},"y":{"model":"b"}}}`
	writeFile(t, store, userJSON, original)

	require.NoError(t, m.Delete(ctx, Agent, "x"))

	agents := readJSON(t, store, userJSON)["agent"].(map[string]any)
	assert.NotContains(t, agents, "x")
	assert.Contains(t, agents, "y")
	assert.Equal(t, original, readFile(t, store, config.BackupPath(userJSON)))
}

func TestDelete_RemovesMarkdownAtBothScopesAndTopJSONEntry(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, testPaths(true))
	projectMD := testWorkDir + "/.opencode/command/test.md"
	userMD := testConfigDir + "/command/test.md"
	writeFile(t, store, projectMD, "Run tests")
	writeFile(t, store, userMD, "Run tests")
	writeFile(t, store, projectJSON, `{"command":{"test":{"agent":"build"}}}`)
	writeFile(t, store, userJSON, `{"command":{"test":{"agent":"plan"}}}`)

	require.NoError(t, m.Delete(ctx, Command, "test"))

	assert.False(t, store.Exists(projectMD))
	assert.False(t, store.Exists(userMD))
	assert.NotContains(t, readJSON(t, store, projectJSON)["command"], "test")
	assert.Equal(t, `{"command":{"test":{"agent":"plan"}}}`, readFile(t, store, userJSON))
}

func TestDelete_MissingCommandIsNotFound(t *testing.T) {
	m, store := newTestManager(t, testPaths(true))

	err := m.Delete(context.Background(), Command, "y")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, store.Exists(userJSON))
	assert.False(t, store.Exists(projectJSON))
}

func TestDelete_MissingAgentIsDisabled(t *testing.T) {
	tests := []struct {
		name     string
		paths    config.Paths
		expected string
	}{
		{"project layer", testPaths(true), projectJSON},
		{"user layer", testPaths(false), userJSON},
		{"override layer", config.Paths{ConfigDir: testConfigDir, WorkDir: testWorkDir, OverrideFile: "/etc/opencode.json"}, "/etc/opencode.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, store := newTestManager(t, tt.paths)

			require.NoError(t, m.Delete(context.Background(), Agent, "z"))

			assert.Equal(t, map[string]any{
				"agent": map[string]any{"z": map[string]any{"disable": true}},
			}, readJSON(t, store, tt.expected))
		})
	}
}

func TestDelete_DisableKeepsSiblings(t *testing.T) {
	m, store := newTestManager(t, testPaths(false))
	writeFile(t, store, userJSON, `{"$schema":"https://opencode.ai/config.json","agent":{"other":{"model":"o"}}}`)

	require.NoError(t, m.Delete(context.Background(), Agent, "general"))

	tree := readJSON(t, store, userJSON)
	assert.Equal(t, "https://opencode.ai/config.json", tree["$schema"])
	assert.Equal(t, map[string]any{
		"other":   map[string]any{"model": "o"},
		"general": map[string]any{"disable": true},
	}, tree["agent"])
}
