package entity

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jingkaihe/opencfg/pkg/config"
	"github.com/jingkaihe/opencfg/pkg/filestore"
	"github.com/jingkaihe/opencfg/pkg/frontmatter"
	"github.com/jingkaihe/opencfg/pkg/logger"
	"github.com/jingkaihe/opencfg/pkg/telemetry"
)

// scopeField is accepted on create to pick the scope and never persisted
const scopeField = "scope"

// Manager reads and mutates entities. It holds no state between calls:
// every operation reloads the JSON layers from the store.
type Manager struct {
	store  filestore.Store
	paths  config.Paths
	writer *writer
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager) error

// WithStore sets the file store
func WithStore(store filestore.Store) ManagerOption {
	return func(m *Manager) error {
		if store == nil {
			return errors.New("store must not be nil")
		}
		m.store = store
		return nil
	}
}

// WithPaths sets the root paths
func WithPaths(paths config.Paths) ManagerOption {
	return func(m *Manager) error {
		if paths.ConfigDir == "" {
			return errors.New("config directory must be specified")
		}
		m.paths = paths
		return nil
	}
}

// NewManager creates a manager. Without options it uses the local filesystem
// and the default paths without a project directory.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	m := &Manager{}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, errors.Wrap(err, "failed to apply manager option")
		}
	}

	if m.store == nil {
		m.store = filestore.NewOSStore()
	}
	if m.paths.ConfigDir == "" {
		paths, err := config.DefaultPaths("")
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve default paths")
		}
		m.paths = paths
	}
	m.writer = &writer{store: m.store}
	return m, nil
}

// Paths returns the root paths the manager works against
func (m *Manager) Paths() config.Paths {
	return m.paths
}

// EnsureDirs creates the user config directory and the user-level entity
// directories
func (m *Manager) EnsureDirs() error {
	dirs := []string{m.paths.ConfigDir}
	for _, kind := range Kinds {
		dirs = append(dirs, m.paths.UserDir(kind.DirName))
	}
	for _, dir := range dirs {
		if err := m.store.MkdirAll(dir); err != nil {
			return err
		}
	}
	return nil
}

// Layers loads the JSON layers
func (m *Manager) Layers(ctx context.Context) (*config.Layers, error) {
	return config.LoadLayers(ctx, m.store, m.paths)
}

// Merged returns the merged view of all JSON layers
func (m *Manager) Merged(ctx context.Context) (map[string]any, error) {
	layers, err := m.Layers(ctx)
	if err != nil {
		return nil, err
	}
	return layers.Merged(), nil
}

func validateName(kind Kind, name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.Errorf("invalid %s name '%s'", kind, name)
	}
	return nil
}

func (m *Manager) entityContext(ctx context.Context, kind Kind, name string) context.Context {
	return logger.WithFields(ctx, logrus.Fields{"kind": kind.Name, "name": name})
}

func spanAttrs(kind Kind, name string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("entity.kind", kind.Name),
		attribute.String("entity.name", name),
	}
}

func (m *Manager) readMarkdown(path string) (*frontmatter.Document, error) {
	data, err := m.store.Read(path)
	if err != nil {
		return nil, err
	}
	return frontmatter.Parse(string(data)), nil
}

// Create writes a new entity as a Markdown file. It fails with
// ErrAlreadyExists when the name has any record. A project scope request
// without a known project falls back to user scope.
func (m *Manager) Create(ctx context.Context, kind Kind, name string, fields map[string]any, scope config.Scope) error {
	if err := validateName(kind, name); err != nil {
		return err
	}
	ctx = m.entityContext(ctx, kind, name)

	return telemetry.WithSpan(ctx, "entity.create", func(ctx context.Context) error {
		if err := m.EnsureDirs(); err != nil {
			return err
		}

		if projectPath := ProjectPath(m.paths, kind, name); projectPath != "" && m.store.Exists(projectPath) {
			return errors.Wrapf(ErrAlreadyExists, "%s %s exists as project-level .md file", kind, name)
		}
		userPath := UserPath(m.paths, kind, name)
		if m.store.Exists(userPath) {
			return errors.Wrapf(ErrAlreadyExists, "%s %s exists as user-level .md file", kind, name)
		}

		layers, err := m.Layers(ctx)
		if err != nil {
			return err
		}
		if entry := layers.FindEntry(kind.SectionKey, name); entry.Exists {
			return errors.Wrapf(ErrAlreadyExists, "%s %s exists in %s", kind, name, entry.Path)
		}

		targetScope, targetPath := config.ScopeUser, userPath
		if scope == config.ScopeProject && m.paths.HasWorkDir() {
			targetScope, targetPath = config.ScopeProject, ProjectPath(m.paths, kind, name)
		}

		doc := &frontmatter.Document{Frontmatter: map[string]any{}}
		for field, value := range fields {
			switch field {
			case scopeField:
			case kind.BodyField:
				doc.Body, _ = value.(string)
			default:
				doc.Frontmatter[field] = value
			}
		}

		if err := m.writer.writeMarkdown(ctx, targetPath, doc); err != nil {
			return err
		}

		logger.G(ctx).WithFields(logrus.Fields{
			"scope": targetScope,
			"path":  targetPath,
		}).Infof("Created %s", kind)
		return nil
	}, spanAttrs(kind, name)...)
}

// Update applies field edits to an entity, deciding per field which record
// receives it, and persists every record that changed.
func (m *Manager) Update(ctx context.Context, kind Kind, name string, edits Edits) error {
	if err := validateName(kind, name); err != nil {
		return err
	}
	ctx = m.entityContext(ctx, kind, name)

	return telemetry.WithSpan(ctx, "entity.update", func(ctx context.Context) error {
		if err := m.EnsureDirs(); err != nil {
			return err
		}

		// With no existing file the write path is the user path, which is
		// also where a builtin override is materialized.
		scope, mdPath := WritePath(m.store, m.paths, kind, name, config.ScopeNone)

		var md *frontmatter.Document
		if m.store.Exists(mdPath) {
			var err error
			if md, err = m.readMarkdown(mdPath); err != nil {
				return err
			}
		}

		layers, err := m.Layers(ctx)
		if err != nil {
			return err
		}
		entry := layers.FindEntry(kind.SectionKey, name)
		jsonTarget := layers.WriteTarget(preferredScope(m.paths))
		if entry.Exists {
			jsonTarget = entry.Layer
		}

		state := newReconcileState(kind, m.paths, md, entry.Object())
		if err := state.reconcile(edits); err != nil {
			return err
		}

		for _, fw := range state.fileWrites {
			if err := m.writer.writePlain(ctx, fw.path, fw.content); err != nil {
				return err
			}
			telemetry.AddEvent(ctx, "prompt_file.written", attribute.String("path", fw.path))
		}

		if state.mdDirty {
			if err := m.writer.writeMarkdown(ctx, mdPath, state.md); err != nil {
				return err
			}
		}

		if state.jsonDirty {
			layers.SetEntry(jsonTarget, kind.SectionKey, name, state.json)
			path, _ := layers.Path(jsonTarget)
			if err := m.writer.writeJSON(ctx, path, layers.Tree(jsonTarget)); err != nil {
				return err
			}
		}

		logger.G(ctx).WithFields(logrus.Fields{
			"scope":            scope,
			"md":               state.mdDirty,
			"json":             state.jsonDirty,
			"builtin_override": state.builtinOverride(),
		}).Infof("Updated %s", kind)
		return nil
	}, spanAttrs(kind, name)...)
}

// Delete removes every Markdown record of an entity and its highest
// precedence JSON entry. Lower precedence JSON copies are left in place.
// When nothing was removed, agents are disabled through a JSON entry and
// commands fail with ErrNotFound.
func (m *Manager) Delete(ctx context.Context, kind Kind, name string) error {
	if err := validateName(kind, name); err != nil {
		return err
	}
	ctx = m.entityContext(ctx, kind, name)

	return telemetry.WithSpan(ctx, "entity.delete", func(ctx context.Context) error {
		deleted := false

		for _, path := range []string{ProjectPath(m.paths, kind, name), UserPath(m.paths, kind, name)} {
			if path == "" || !m.store.Exists(path) {
				continue
			}
			if err := m.writer.remove(ctx, path); err != nil {
				return err
			}
			deleted = true
		}

		layers, err := m.Layers(ctx)
		if err != nil {
			return err
		}

		if entry := layers.FindEntry(kind.SectionKey, name); entry.Exists {
			if layers.RemoveEntry(entry.Layer, kind.SectionKey, name) {
				if err := m.writer.writeJSON(ctx, entry.Path, layers.Tree(entry.Layer)); err != nil {
					return err
				}
				logger.G(ctx).WithField("path", entry.Path).Infof("Removed %s from JSON config", kind)
				deleted = true
			}
		}

		if deleted {
			return nil
		}

		if !kind.DisableOnDelete {
			return errors.Wrapf(ErrNotFound, "%s \"%s\"", kind, name)
		}

		target := layers.WriteTarget(preferredScope(m.paths))
		layers.SetEntry(target, kind.SectionKey, name, map[string]any{"disable": true})
		path, _ := layers.Path(target)
		if err := m.writer.writeJSON(ctx, path, layers.Tree(target)); err != nil {
			return err
		}
		logger.G(ctx).WithField("path", path).Infof("Disabled builtin %s", kind)
		return nil
	}, spanAttrs(kind, name)...)
}
