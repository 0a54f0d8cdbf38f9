package config

import (
	"github.com/ohler55/ojg/jp"
	"github.com/pkg/errors"
)

// Query evaluates a JSONPath selector such as $.agent.build.model against a
// tree and returns every match
func Query(tree any, selector string) ([]any, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid jsonpath '%s'", selector)
	}
	return x.Get(tree), nil
}
