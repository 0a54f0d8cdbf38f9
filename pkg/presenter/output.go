package presenter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format is a structured output format
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// maxCellWidth bounds table cells; longer values are truncated
const maxCellWidth = 80

// ParseFormat validates an output format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", errors.Errorf("unsupported output format %q (valid: table, json, yaml)", s)
	}
}

// Tabular is implemented by results that know their table layout
type Tabular interface {
	Header() []string
	Rows() [][]string
}

// Write renders v to w. Table output uses the Tabular layout when v provides
// one, a key/value table for objects, and the YAML form otherwise.
func Write(w io.Writer, v any, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(v), "failed to encode json output")
	case FormatYAML:
		node, err := yamlNode(v)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(node); err != nil {
			return errors.Wrap(err, "failed to encode yaml output")
		}
		return enc.Close()
	case FormatTable, "":
		switch t := v.(type) {
		case Tabular:
			WriteTable(w, t.Header(), t.Rows())
			return nil
		case map[string]any:
			WriteTable(w, []string{"KEY", "VALUE"}, objectRows(t))
			return nil
		default:
			return Write(w, v, FormatYAML)
		}
	default:
		return errors.Errorf("unsupported output format %q", format)
	}
}

// yamlNode converts v to a YAML tree through its JSON form, so JSON tags
// apply and json.Number values keep their literal text
func yamlNode(v any) (*yaml.Node, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode yaml output")
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to encode yaml output")
	}
	blockStyle(&doc)
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
		return doc.Content[0], nil
	}
	return &doc, nil
}

// blockStyle drops the flow and quoting styles carried over from JSON
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// WriteTable renders rows as a rounded table with a highlighted header
func WriteTable(w io.Writer, header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Color.Header = text.Colors{text.FgHiCyan}

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = truncate(cell)
		}
		t.AppendRow(r)
	}
	t.Render()
}

func objectRows(obj map[string]any) [][]string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, CellValue(obj[k])})
	}
	return rows
}

// CellValue renders a JSON-typed value on a single line
func CellValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ReplaceAll(val, "\n", "⏎")
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxCellWidth {
		return s
	}
	return string(runes[:maxCellWidth-3]) + "..."
}
