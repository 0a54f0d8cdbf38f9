package entity

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/jingkaihe/opencfg/pkg/config"
	"github.com/jingkaihe/opencfg/pkg/frontmatter"
)

var fileReferencePattern = regexp.MustCompile(`(?i)^\{file:(.+)\}$`)

// Edit sets one field. A nil Value removes the field.
type Edit struct {
	Field string
	Value any
}

// Edits is an ordered list of field edits
type Edits []Edit

// EditsFromMap converts a field map into edits ordered by field name
func EditsFromMap(fields map[string]any) Edits {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	edits := make(Edits, 0, len(names))
	for _, name := range names {
		edits = append(edits, Edit{Field: name, Value: fields[name]})
	}
	return edits
}

// IsFileReference reports whether value is a {file:<path>} reference
func IsFileReference(value string) bool {
	return fileReferencePattern.MatchString(strings.TrimSpace(value))
}

// ResolveFileReference returns the absolute path named by a {file:<path>}
// reference
func ResolveFileReference(paths config.Paths, reference string) (string, error) {
	matches := fileReferencePattern.FindStringSubmatch(strings.TrimSpace(reference))
	if matches == nil {
		return "", errors.Wrapf(ErrInvalidReference, "'%s' is not a file reference", reference)
	}
	target := strings.TrimSpace(matches[1])
	if target == "" {
		return "", errors.Wrapf(ErrInvalidReference, "'%s' names no file", reference)
	}
	return paths.ResolveFileReference(target), nil
}

// fileWrite is a body edit redirected to a referenced file
type fileWrite struct {
	path    string
	content string
}

// reconcileState is the input and, after reconcile, the output of one update
type reconcileState struct {
	kind  Kind
	paths config.Paths

	// md is the Markdown record being edited: the parsed file when mdExists,
	// an empty document when materializing a builtin override, else nil
	md       *frontmatter.Document
	mdExists bool
	// json is a private copy of the authoritative JSON entry
	json          map[string]any
	hadJSONFields bool

	mdDirty    bool
	jsonDirty  bool
	fileWrites []fileWrite
}

func newReconcileState(kind Kind, paths config.Paths, md *frontmatter.Document, jsonEntry map[string]any) *reconcileState {
	s := &reconcileState{
		kind:          kind,
		paths:         paths,
		md:            md,
		mdExists:      md != nil,
		json:          jsonEntry,
		hadJSONFields: len(jsonEntry) > 0,
	}
	if s.json == nil {
		s.json = map[string]any{}
	}
	if s.builtinOverride() {
		s.md = &frontmatter.Document{Frontmatter: map[string]any{}}
	}
	return s
}

// builtinOverride reports whether the entity has no record anywhere, in
// which case a new Markdown record is materialized
func (s *reconcileState) builtinOverride() bool {
	return !s.mdExists && !s.hadJSONFields
}

// reconcile applies edits in order. Nothing is written; the caller persists
// fileWrites, then md when mdDirty, then json when jsonDirty.
func (s *reconcileState) reconcile(edits Edits) error {
	for _, edit := range edits {
		var err error
		switch {
		case edit.Value == nil:
			s.remove(edit.Field)
		case edit.Field == s.kind.BodyField:
			err = s.setBody(edit.Value)
		default:
			s.set(edit.Field, edit.Value)
		}
		if err != nil {
			return err
		}
	}

	// An entity living only in Markdown never grows a JSON shadow entry
	if s.jsonDirty && s.mdExists && !s.hadJSONFields {
		s.jsonDirty = false
	}
	return nil
}

// remove deletes a field from every store that holds it
func (s *reconcileState) remove(field string) {
	if s.mdExists {
		if _, ok := s.md.Frontmatter[field]; ok {
			delete(s.md.Frontmatter, field)
			s.mdDirty = true
		}
	}
	if _, ok := s.json[field]; ok {
		delete(s.json, field)
		s.jsonDirty = true
	}
}

func (s *reconcileState) setBody(value any) error {
	body, _ := value.(string)

	if s.md != nil {
		s.md.Body = body
		s.mdDirty = true
		return nil
	}

	if current, ok := s.json[s.kind.BodyField].(string); ok && IsFileReference(current) {
		path, err := ResolveFileReference(s.paths, current)
		if err != nil {
			return errors.Wrapf(err, "%s field of %s", s.kind.BodyField, s.kind)
		}
		s.fileWrites = append(s.fileWrites, fileWrite{path: path, content: body})
		return nil
	}

	s.json[s.kind.BodyField] = body
	s.jsonDirty = true
	return nil
}

// set places an ordinary field. JSON wins when the field is already there,
// even if frontmatter holds a stale copy. Otherwise the field goes to the
// Markdown record when one is active, and to JSON last.
func (s *reconcileState) set(field string, value any) {
	if _, inJSON := s.json[field]; inJSON {
		s.json[field] = value
		s.jsonDirty = true
		return
	}
	if s.md != nil {
		s.md.Frontmatter[field] = value
		s.mdDirty = true
		return
	}
	s.json[field] = value
	s.jsonDirty = true
}
