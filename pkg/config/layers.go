package config

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/jingkaihe/opencfg/pkg/filestore"
	"github.com/jingkaihe/opencfg/pkg/jsonc"
	"github.com/jingkaihe/opencfg/pkg/logger"
)

// Layer identifies one JSON configuration source
type Layer int

const (
	LayerUser Layer = iota
	LayerProject
	LayerOverride
)

// precedence lists layers from highest to lowest precedence
var precedence = []Layer{LayerOverride, LayerProject, LayerUser}

func (l Layer) String() string {
	switch l {
	case LayerUser:
		return "user"
	case LayerProject:
		return "project"
	case LayerOverride:
		return "override"
	default:
		return fmt.Sprintf("layer(%d)", int(l))
	}
}

// ParseLayer looks a layer up by name
func ParseLayer(name string) (Layer, error) {
	for _, layer := range precedence {
		if layer.String() == name {
			return layer, nil
		}
	}
	return 0, errors.Errorf("unknown layer '%s', must be one of: user, project, override", name)
}

// Layers holds the parsed JSON layers of a single call. Each layer owns its
// tree; mutation always targets one layer selected by its Layer value.
type Layers struct {
	paths map[Layer]string
	trees map[Layer]map[string]any
}

// Entry is the result of looking up a named entry across layers
type Entry struct {
	Exists bool
	Layer  Layer
	Path   string
	// Value is the raw entry value, usually an object
	Value any
}

// Object returns the entry value as an object, or an empty object when the
// entry is absent or not an object. The returned map is a copy.
func (e Entry) Object() map[string]any {
	obj, ok := e.Value.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	return out
}

// LoadLayers reads every configured layer from the store. Missing files load
// as empty objects. Every layer that fails to parse is reported.
func LoadLayers(ctx context.Context, store filestore.Store, paths Paths) (*Layers, error) {
	layers := &Layers{
		paths: map[Layer]string{LayerUser: paths.UserConfigFile()},
		trees: map[Layer]map[string]any{},
	}
	if p := paths.ProjectConfigFile(); p != "" {
		layers.paths[LayerProject] = p
	}
	if paths.OverrideFile != "" {
		layers.paths[LayerOverride] = paths.OverrideFile
	}

	var result *multierror.Error
	for _, layer := range []Layer{LayerUser, LayerProject, LayerOverride} {
		path, ok := layers.paths[layer]
		if !ok {
			layers.trees[layer] = map[string]any{}
			continue
		}

		tree, err := readLayer(store, path)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "%s config '%s'", layer, path))
			continue
		}
		layers.trees[layer] = tree

		logger.G(ctx).WithField("layer", layer.String()).WithField("path", path).Debug("Loaded config layer")
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return layers, nil
}

func readLayer(store filestore.Store, path string) (map[string]any, error) {
	if !store.Exists(path) {
		return map[string]any{}, nil
	}
	data, err := store.Read(path)
	if err != nil {
		return nil, err
	}
	return jsonc.ParseObject(data)
}

// Path returns the file backing a layer, if that layer is configured
func (l *Layers) Path(layer Layer) (string, bool) {
	p, ok := l.paths[layer]
	return p, ok
}

// Tree returns the tree owned by a layer. Callers may mutate it before
// passing it to a writer.
func (l *Layers) Tree(layer Layer) map[string]any {
	tree, ok := l.trees[layer]
	if !ok || tree == nil {
		tree = map[string]any{}
		l.trees[layer] = tree
	}
	return tree
}

// Merged is the read-only view Override > Project > User
func (l *Layers) Merged() map[string]any {
	merged := MergeObjects(l.Tree(LayerUser), l.Tree(LayerProject))
	return MergeObjects(merged, l.Tree(LayerOverride))
}

// FindEntry returns the highest precedence layer whose section contains name.
// Lower precedence copies are not visible through this lookup.
func (l *Layers) FindEntry(section, name string) Entry {
	for _, layer := range precedence {
		path, ok := l.paths[layer]
		if !ok {
			continue
		}
		entries, ok := l.Tree(layer)[section].(map[string]any)
		if !ok {
			continue
		}
		if value, ok := entries[name]; ok {
			return Entry{Exists: true, Layer: layer, Path: path, Value: value}
		}
	}
	return Entry{}
}

// WriteTarget chooses the layer receiving new JSON writes. A configured
// override layer captures every write. Otherwise the project layer is used
// whenever a project is known, and the user layer last.
func (l *Layers) WriteTarget(preferred Scope) Layer {
	if _, ok := l.paths[LayerOverride]; ok {
		return LayerOverride
	}
	if preferred == ScopeProject {
		if _, ok := l.paths[LayerProject]; ok {
			return LayerProject
		}
	}
	if _, ok := l.paths[LayerProject]; ok {
		return LayerProject
	}
	return LayerUser
}

// DefaultPath is the file of the layer new entries land in by default
func (l *Layers) DefaultPath() string {
	return l.paths[l.WriteTarget(ScopeNone)]
}

// SetEntry stores value at tree[section][name] of a layer. Sibling entries
// are kept; a section that is not an object is replaced.
func (l *Layers) SetEntry(layer Layer, section, name string, value any) {
	tree := l.Tree(layer)
	entries, ok := tree[section].(map[string]any)
	if !ok {
		entries = map[string]any{}
		tree[section] = entries
	}
	entries[name] = value
}

// RemoveEntry deletes tree[section][name] of a layer and reports whether it
// was present
func (l *Layers) RemoveEntry(layer Layer, section, name string) bool {
	entries, ok := l.Tree(layer)[section].(map[string]any)
	if !ok {
		return false
	}
	if _, ok := entries[name]; !ok {
		return false
	}
	delete(entries, name)
	return true
}

// Names returns the entry names of a section in the merged view
func (l *Layers) Names(section string) []string {
	entries, ok := l.Merged()[section].(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	return names
}
