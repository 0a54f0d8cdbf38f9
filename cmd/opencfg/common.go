package main

import (
	"strings"

	"github.com/ohler55/ojg/oj"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/jingkaihe/opencfg/pkg/config"
	"github.com/jingkaihe/opencfg/pkg/entity"
	"github.com/jingkaihe/opencfg/pkg/presenter"
)

const (
	exitFailure       = 1
	exitNotFound      = 3
	exitAlreadyExists = 4
)

func exitCode(err error) int {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return exitNotFound
	case errors.Is(err, entity.ErrAlreadyExists):
		return exitAlreadyExists
	default:
		return exitFailure
	}
}

func resolvePaths() (config.Paths, error) {
	paths, err := config.PathsFromViper()
	if err != nil {
		return config.Paths{}, err
	}
	if viper.GetBool("no_project") {
		paths.WorkDir = ""
	}
	return paths, nil
}

func newManager() (*entity.Manager, error) {
	paths, err := resolvePaths()
	if err != nil {
		return nil, err
	}
	return entity.NewManager(entity.WithPaths(paths))
}

func outputFormat() (presenter.Format, error) {
	return presenter.ParseFormat(viper.GetString("output"))
}

func render(v any) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	return presenter.Render(v, format)
}

// parseValue reads a --set value as JSON when it parses, and as a plain
// string otherwise, so that model=gpt-5 needs no quoting
func parseValue(raw string) any {
	if strings.TrimSpace(raw) == "" {
		return raw
	}
	v, err := oj.ParseString(raw)
	if err != nil {
		return raw
	}
	return v
}

// parseAssignments turns key=value pairs into edits, keeping their order
func parseAssignments(assignments []string) (entity.Edits, error) {
	edits := make(entity.Edits, 0, len(assignments))
	for _, a := range assignments {
		key, raw, ok := strings.Cut(a, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Errorf("invalid assignment '%s', expected key=value", a)
		}
		edits = append(edits, entity.Edit{Field: key, Value: parseValue(raw)})
	}
	return edits, nil
}
