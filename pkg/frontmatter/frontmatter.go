// Package frontmatter splits Markdown records into a YAML frontmatter block
// and a body, and renders them back. Frontmatter values are JSON-typed
// (map[string]any, []any, json.Number, string, bool) so they can be compared
// and merged with values read from the JSON layers.
//
// Parsing follows YAML 1.2 (gopkg.in/yaml.v3): yes, no, on and off stay
// strings, and numbers keep their literal text.
package frontmatter

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	yamlv3 "gopkg.in/yaml.v3"
	"sigs.k8s.io/yaml"
)

var blockPattern = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---\r?\n(.*)$`)

// Document is a parsed Markdown record
type Document struct {
	Frontmatter map[string]any
	Body        string
}

// Parse splits content into frontmatter and body. Without a leading
// delimited block the whole trimmed content is the body. Frontmatter that is
// not a YAML mapping is treated as empty.
func Parse(content string) *Document {
	matches := blockPattern.FindStringSubmatch(content)
	if matches == nil {
		return &Document{
			Frontmatter: map[string]any{},
			Body:        strings.TrimSpace(content),
		}
	}

	return &Document{
		Frontmatter: decodeMapping(matches[1]),
		Body:        strings.TrimSpace(matches[2]),
	}
}

func decodeMapping(src string) map[string]any {
	var root yamlv3.Node
	if err := yamlv3.Unmarshal([]byte(src), &root); err != nil || len(root.Content) == 0 {
		return map[string]any{}
	}
	fm, ok := nodeValue(root.Content[0]).(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return fm
}

// nodeValue converts a YAML node to its JSON-typed value
func nodeValue(n *yamlv3.Node) any {
	switch n.Kind {
	case yamlv3.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return nodeValue(n.Content[0])
	case yamlv3.AliasNode:
		if n.Alias == nil {
			return nil
		}
		return nodeValue(n.Alias)
	case yamlv3.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			out = append(out, nodeValue(item))
		}
		return out
	case yamlv3.MappingNode:
		out := map[string]any{}
		var merged []map[string]any
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i], n.Content[i+1]
			if key.ShortTag() == "!!merge" {
				merged = append(merged, mergeSources(nodeValue(value))...)
				continue
			}
			out[key.Value] = nodeValue(value)
		}
		// Explicit keys win over merged ones
		for _, m := range merged {
			for k, v := range m {
				if _, ok := out[k]; !ok {
					out[k] = v
				}
			}
		}
		return out
	}
	return scalarValue(n)
}

func mergeSources(v any) []map[string]any {
	switch v := v.(type) {
	case map[string]any:
		return []map[string]any{v}
	case []any:
		var out []map[string]any
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func scalarValue(n *yamlv3.Node) any {
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return b
		}
	case "!!int":
		if json.Valid([]byte(n.Value)) {
			return json.Number(n.Value)
		}
		var i int64
		if err := n.Decode(&i); err == nil {
			return json.Number(strconv.FormatInt(i, 10))
		}
		var u uint64
		if err := n.Decode(&u); err == nil {
			return json.Number(strconv.FormatUint(u, 10))
		}
	case "!!float":
		if json.Valid([]byte(n.Value)) {
			return json.Number(n.Value)
		}
		var f float64
		if err := n.Decode(&f); err == nil {
			if formatted := strconv.FormatFloat(f, 'g', -1, 64); json.Valid([]byte(formatted)) {
				return json.Number(formatted)
			}
		}
	}
	return n.Value
}

// Render serializes frontmatter and body. Keys holding a nil value are
// omitted rather than written as explicit nulls.
func Render(fm map[string]any, body string) (string, error) {
	cleaned := make(map[string]any, len(fm))
	for k, v := range fm {
		if v == nil {
			continue
		}
		cleaned[k] = v
	}

	out, err := yaml.Marshal(cleaned)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal frontmatter")
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(out)
	sb.WriteString("---\n\n")
	sb.WriteString(body)
	return sb.String(), nil
}

// Keys returns the frontmatter keys in sorted order
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.Frontmatter))
	for k := range d.Frontmatter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Render serializes the document
func (d *Document) Render() (string, error) {
	return Render(d.Frontmatter, d.Body)
}
