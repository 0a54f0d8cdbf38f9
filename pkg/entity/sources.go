package entity

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"

	"github.com/jingkaihe/opencfg/pkg/config"
	"github.com/jingkaihe/opencfg/pkg/logger"
)

// SourceInfo describes one representation of an entity
type SourceInfo struct {
	Exists bool         `json:"exists" yaml:"exists"`
	Path   string       `json:"path,omitempty" yaml:"path,omitempty"`
	Fields []string     `json:"fields" yaml:"fields"`
	Scope  config.Scope `json:"scope,omitempty" yaml:"scope,omitempty"`
}

// Location describes one Markdown location regardless of precedence
type Location struct {
	Exists bool   `json:"exists" yaml:"exists"`
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Sources describes where an entity is configured
type Sources struct {
	MD        SourceInfo `json:"md" yaml:"md"`
	JSON      SourceInfo `json:"json" yaml:"json"`
	ProjectMD Location   `json:"projectMd" yaml:"projectMd"`
	UserMD    Location   `json:"userMd" yaml:"userMd"`
}

// Sources reports the authoritative Markdown record and JSON entry of an
// entity, plus the existence of each Markdown location
func (m *Manager) Sources(ctx context.Context, kind Kind, name string) (*Sources, error) {
	if err := validateName(kind, name); err != nil {
		return nil, err
	}
	if err := m.EnsureDirs(); err != nil {
		return nil, err
	}

	sources := &Sources{}

	if projectPath := ProjectPath(m.paths, kind, name); projectPath != "" {
		sources.ProjectMD = Location{Exists: m.store.Exists(projectPath), Path: projectPath}
	}
	userPath := UserPath(m.paths, kind, name)
	sources.UserMD = Location{Exists: m.store.Exists(userPath), Path: userPath}

	sources.MD.Fields = []string{}
	if scope, path := ResolveScope(m.store, m.paths, kind, name); scope != config.ScopeNone {
		doc, err := m.readMarkdown(path)
		if err != nil {
			return nil, err
		}
		sources.MD.Exists = true
		sources.MD.Path = path
		sources.MD.Scope = scope
		sources.MD.Fields = doc.Keys()
		if strings.TrimSpace(doc.Body) != "" {
			sources.MD.Fields = append(sources.MD.Fields, kind.BodyField)
		}
	}

	layers, err := m.Layers(ctx)
	if err != nil {
		return nil, err
	}
	entry := layers.FindEntry(kind.SectionKey, name)
	sources.JSON = SourceInfo{
		Exists: entry.Exists,
		Path:   layers.DefaultPath(),
		Fields: sortedKeys(entry.Object()),
	}
	if entry.Exists {
		sources.JSON.Path = entry.Path
		sources.JSON.Scope = config.ScopeUser
		if entry.Layer == config.LayerProject {
			sources.JSON.Scope = config.ScopeProject
		}
	}

	return sources, nil
}

// Resolved is the effective configuration of an entity
type Resolved struct {
	Kind    string         `json:"kind" yaml:"kind"`
	Name    string         `json:"name" yaml:"name"`
	Fields  map[string]any `json:"fields" yaml:"fields"`
	Sources *Sources       `json:"sources" yaml:"sources"`
}

// Get returns the effective fields of an entity: the Markdown frontmatter
// and body, with each top-level field of the authoritative JSON entry
// replacing the Markdown one. A
// {file:...} body in JSON is replaced by the referenced file content when
// that file exists.
func (m *Manager) Get(ctx context.Context, kind Kind, name string) (*Resolved, error) {
	sources, err := m.Sources(ctx, kind, name)
	if err != nil {
		return nil, err
	}
	if !sources.MD.Exists && !sources.JSON.Exists {
		return nil, errors.Wrapf(ErrNotFound, "%s \"%s\"", kind, name)
	}

	fields := map[string]any{}
	if sources.MD.Exists {
		doc, err := m.readMarkdown(sources.MD.Path)
		if err != nil {
			return nil, err
		}
		for k, v := range doc.Frontmatter {
			fields[k] = v
		}
		if strings.TrimSpace(doc.Body) != "" {
			fields[kind.BodyField] = doc.Body
		}
	}

	if sources.JSON.Exists {
		layers, err := m.Layers(ctx)
		if err != nil {
			return nil, err
		}
		jsonFields := layers.FindEntry(kind.SectionKey, name).Object()
		if ref, ok := jsonFields[kind.BodyField].(string); ok && IsFileReference(ref) {
			body, err := m.readReferencedBody(ctx, ref)
			if err != nil {
				return nil, err
			}
			jsonFields[kind.BodyField] = body
		}
		// JSON replaces whole fields; nested objects are not merged
		for k, v := range jsonFields {
			fields[k] = v
		}
	}

	return &Resolved{
		Kind:    kind.Name,
		Name:    name,
		Fields:  fields,
		Sources: sources,
	}, nil
}

func (m *Manager) readReferencedBody(ctx context.Context, ref string) (string, error) {
	path, err := ResolveFileReference(m.paths, ref)
	if err != nil {
		return "", err
	}
	if !m.store.Exists(path) {
		logger.G(ctx).WithField("path", path).Warn("Referenced file does not exist, keeping reference")
		return ref, nil
	}
	data, err := m.store.Read(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Source labels where a listed entity is defined
type Source string

const (
	SourceMarkdown Source = "markdown"
	SourceJSON     Source = "json"
	SourceBoth     Source = "both"
)

// Summary is one row of List
type Summary struct {
	Name        string       `json:"name" yaml:"name"`
	Source      Source       `json:"source" yaml:"source"`
	Scope       config.Scope `json:"scope,omitempty" yaml:"scope,omitempty"`
	Path        string       `json:"path,omitempty" yaml:"path,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
}

// List returns every entity of a kind defined by a Markdown file at either
// scope or by an entry in any JSON layer, sorted by name. A non-empty
// pattern filters names with glob syntax.
func (m *Manager) List(ctx context.Context, kind Kind, pattern string) ([]Summary, error) {
	var matcher glob.Glob
	if pattern != "" {
		var err error
		if matcher, err = glob.Compile(pattern); err != nil {
			return nil, errors.Wrapf(err, "invalid filter pattern '%s'", pattern)
		}
	}

	summaries := map[string]*Summary{}

	// User first so that a project file with the same name replaces it
	dirs := []struct {
		dir   string
		scope config.Scope
	}{
		{m.paths.UserDir(kind.DirName), config.ScopeUser},
		{m.paths.ProjectDir(kind.DirName), config.ScopeProject},
	}
	for _, d := range dirs {
		if d.dir == "" {
			continue
		}
		files, err := m.store.ReadDir(d.dir)
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			if ok, _ := doublestar.Match("*"+markdownExt, file); !ok {
				continue
			}
			path := filepath.Join(d.dir, file)
			doc, err := m.readMarkdown(path)
			if err != nil {
				return nil, err
			}
			name := strings.TrimSuffix(file, markdownExt)
			summaries[name] = &Summary{
				Name:        name,
				Source:      SourceMarkdown,
				Scope:       d.scope,
				Path:        path,
				Description: doc.Summary(),
			}
		}
	}

	layers, err := m.Layers(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range layers.Names(kind.SectionKey) {
		entry := layers.FindEntry(kind.SectionKey, name)
		description, _ := entry.Object()["description"].(string)

		if s, ok := summaries[name]; ok {
			s.Source = SourceBoth
			if description != "" {
				s.Description = description
			}
			continue
		}
		summaries[name] = &Summary{
			Name:        name,
			Source:      SourceJSON,
			Path:        entry.Path,
			Description: description,
		}
	}

	result := make([]Summary, 0, len(summaries))
	for name, s := range summaries {
		if matcher != nil && !matcher.Match(name) {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	logger.G(ctx).WithField("kind", kind.Name).WithField("count", len(result)).Debug("Listed entities")
	return result, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
