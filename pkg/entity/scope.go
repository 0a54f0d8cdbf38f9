package entity

import (
	"path/filepath"

	"github.com/jingkaihe/opencfg/pkg/config"
	"github.com/jingkaihe/opencfg/pkg/filestore"
)

const markdownExt = ".md"

// ProjectPath is the project-scope Markdown path of an entity, or "" when no
// project directory is known
func ProjectPath(paths config.Paths, kind Kind, name string) string {
	dir := paths.ProjectDir(kind.DirName)
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, name+markdownExt)
}

// UserPath is the user-scope Markdown path of an entity
func UserPath(paths config.Paths, kind Kind, name string) string {
	return filepath.Join(paths.UserDir(kind.DirName), name+markdownExt)
}

// ResolveScope finds the authoritative Markdown record of an entity: the
// project file when a project is known and the file exists, else the user
// file when it exists. It returns ScopeNone and "" when neither exists.
func ResolveScope(store filestore.Store, paths config.Paths, kind Kind, name string) (config.Scope, string) {
	if projectPath := ProjectPath(paths, kind, name); projectPath != "" && store.Exists(projectPath) {
		return config.ScopeProject, projectPath
	}
	if userPath := UserPath(paths, kind, name); store.Exists(userPath) {
		return config.ScopeUser, userPath
	}
	return config.ScopeNone, ""
}

// WritePath returns where a Markdown write for an entity lands: the existing
// authoritative file if any, else the requested project path when a project
// is known, else the user path.
func WritePath(store filestore.Store, paths config.Paths, kind Kind, name string, requested config.Scope) (config.Scope, string) {
	if scope, path := ResolveScope(store, paths, kind, name); scope != config.ScopeNone {
		return scope, path
	}
	if requested == config.ScopeProject && paths.HasWorkDir() {
		return config.ScopeProject, ProjectPath(paths, kind, name)
	}
	return config.ScopeUser, UserPath(paths, kind, name)
}

// preferredScope is the scope new JSON writes prefer: project whenever a
// project directory is known
func preferredScope(paths config.Paths) config.Scope {
	if paths.HasWorkDir() {
		return config.ScopeProject
	}
	return config.ScopeUser
}
