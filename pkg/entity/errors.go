package entity

import (
	"github.com/pkg/errors"

	"github.com/jingkaihe/opencfg/pkg/jsonc"
)

var (
	// ErrAlreadyExists is returned when creating an entity that already has a
	// Markdown file at either scope or an entry in any JSON layer
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotFound is returned when an entity has no record anywhere and the
	// operation cannot fall back to a builtin
	ErrNotFound = errors.New("not found")
	// ErrInvalidReference is returned when a {file:...} body reference names
	// no usable target
	ErrInvalidReference = errors.New("invalid file reference")
	// ErrParse is returned when a JSON layer cannot be parsed
	ErrParse = jsonc.ErrParse
)
