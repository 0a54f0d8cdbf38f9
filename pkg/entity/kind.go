// Package entity resolves and mutates named agents and commands that may be
// defined at the same time by Markdown records (project or user scope) and by
// entries in the JSON configuration layers.
//
// Reads follow precedence: a project Markdown file wins over a user one, and
// the override JSON layer wins over project, which wins over user. Updates are
// reconciled field by field: a field already present in JSON is edited in
// JSON, a field present in Markdown frontmatter is edited there, and new
// fields follow the record that already exists. An entity with no record at
// all is materialized as a new user-scope Markdown file.
package entity

import (
	"github.com/pkg/errors"
)

// Kind describes one entity type. Agents and commands share all behavior
// except for the names below and what happens when deleting a builtin.
type Kind struct {
	// Name is the singular name used in messages and logs
	Name string
	// DirName is the directory holding Markdown records at either scope
	DirName string
	// SectionKey is the top-level key of the JSON layers holding entries
	SectionKey string
	// BodyField is the field stored as the Markdown body
	BodyField string
	// DisableOnDelete makes deletion of an entity with no record write a
	// {"disable": true} entry instead of failing
	DisableOnDelete bool
}

var (
	// Agent entities keep their system prompt in the Markdown body
	Agent = Kind{
		Name:            "agent",
		DirName:         "agent",
		SectionKey:      "agent",
		BodyField:       "prompt",
		DisableOnDelete: true,
	}
	// Command entities keep their template in the Markdown body
	Command = Kind{
		Name:       "command",
		DirName:    "command",
		SectionKey: "command",
		BodyField:  "template",
	}
)

// Kinds lists every supported kind
var Kinds = []Kind{Agent, Command}

// ParseKind looks a kind up by name
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if k.Name == name {
			return k, nil
		}
	}
	return Kind{}, errors.Errorf("unknown entity kind '%s', must be one of: agent, command", name)
}

func (k Kind) String() string {
	return k.Name
}
