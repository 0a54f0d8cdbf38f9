package presenter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rowsFixture struct{}

func (rowsFixture) Header() []string { return []string{"NAME", "SOURCE"} }
func (rowsFixture) Rows() [][]string {
	return [][]string{{"reviewer", "markdown"}, {"build", "json"}}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"table", FormatTable, false},
		{"", FormatTable, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, map[string]any{"prompt": "<b>", "n": 1}, FormatJSON))
	assert.Equal(t, "{\n  \"n\": 1,\n  \"prompt\": \"<b>\"\n}\n", buf.String())
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, map[string]any{"model": "gpt-5", "tools": map[string]any{"bash": false}}, FormatYAML))
	assert.Equal(t, "model: gpt-5\ntools:\n  bash: false\n", buf.String())
}

func TestWrite_YAMLKeepsNumberText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, map[string]any{
		"limit": json.Number("9007199254740993"),
		"flag":  "true",
		"notes": "line one\nline two",
	}, FormatYAML))
	assert.Equal(t, "flag: \"true\"\nlimit: 9007199254740993\nnotes: |-\n  line one\n  line two\n", buf.String())
}

func TestWrite_Table(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rowsFixture{}, FormatTable))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "reviewer")
	assert.Contains(t, out, "╭")
	assert.Less(t, strings.Index(out, "reviewer"), strings.Index(out, "build"))
}

func TestWrite_ObjectTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, map[string]any{
		"model":  "gpt-5",
		"tools":  map[string]any{"bash": false},
		"prompt": strings.Repeat("x", 200),
	}, FormatTable))

	out := buf.String()
	assert.Contains(t, out, `{"bash":false}`)
	assert.Contains(t, out, strings.Repeat("x", maxCellWidth-3)+"...")
	assert.NotContains(t, out, strings.Repeat("x", maxCellWidth+1))
}

func TestWrite_TableFallsBackToYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []string{"a", "b"}, FormatTable))
	assert.Equal(t, "- a\n- b\n", buf.String())
}

func TestCellValue(t *testing.T) {
	assert.Equal(t, "", CellValue(nil))
	assert.Equal(t, "a⏎b", CellValue("a\nb"))
	assert.Equal(t, "0.2", CellValue(0.2))
	assert.Equal(t, `["a",1]`, CellValue([]any{"a", 1}))
	assert.Equal(t, "true", CellValue(true))
}
