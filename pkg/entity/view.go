package entity

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// AgentConfig is the typed view of an agent's resolved fields. Fields not
// listed here are kept in Extra.
type AgentConfig struct {
	Description string          `mapstructure:"description" json:"description,omitempty" yaml:"description,omitempty" jsonschema:"description=What the agent does and when to use it"`
	Mode        string          `mapstructure:"mode" json:"mode,omitempty" yaml:"mode,omitempty" jsonschema:"enum=primary,enum=subagent,enum=all"`
	Model       string          `mapstructure:"model" json:"model,omitempty" yaml:"model,omitempty" jsonschema:"description=Model in provider/model form"`
	Temperature *float64        `mapstructure:"temperature" json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TopP        *float64        `mapstructure:"top_p" json:"top_p,omitempty" yaml:"top_p,omitempty"`
	Prompt      string          `mapstructure:"prompt" json:"prompt,omitempty" yaml:"prompt,omitempty" jsonschema:"description=System prompt or a {file:path} reference"`
	Tools       map[string]bool `mapstructure:"tools" json:"tools,omitempty" yaml:"tools,omitempty"`
	Permission  map[string]any  `mapstructure:"permission" json:"permission,omitempty" yaml:"permission,omitempty"`
	Disable     bool            `mapstructure:"disable" json:"disable,omitempty" yaml:"disable,omitempty"`
	Extra       map[string]any  `mapstructure:",remain" json:"-"`
}

// CommandConfig is the typed view of a command's resolved fields
type CommandConfig struct {
	Template    string         `mapstructure:"template" json:"template,omitempty" yaml:"template,omitempty" jsonschema:"description=Prompt template or a {file:path} reference"`
	Description string         `mapstructure:"description" json:"description,omitempty" yaml:"description,omitempty"`
	Agent       string         `mapstructure:"agent" json:"agent,omitempty" yaml:"agent,omitempty" jsonschema:"description=Agent that runs the command"`
	Model       string         `mapstructure:"model" json:"model,omitempty" yaml:"model,omitempty"`
	Subtask     bool           `mapstructure:"subtask" json:"subtask,omitempty" yaml:"subtask,omitempty"`
	Extra       map[string]any `mapstructure:",remain" json:"-"`
}

// MarshalJSON writes Extra at the same level as the known fields
func (c AgentConfig) MarshalJSON() ([]byte, error) {
	type plain AgentConfig
	return marshalWithExtra(plain(c), c.Extra)
}

// MarshalJSON writes Extra at the same level as the known fields
func (c CommandConfig) MarshalJSON() ([]byte, error) {
	type plain CommandConfig
	return marshalWithExtra(plain(c), c.Extra)
}

func marshalWithExtra(known any, extra map[string]any) ([]byte, error) {
	data, err := json.Marshal(known)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	return json.Marshal(fields)
}

func decode(fields map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(fields); err != nil {
		return errors.Wrap(err, "failed to decode fields")
	}
	return nil
}

// Agent decodes the resolved fields of an agent
func (r *Resolved) Agent() (*AgentConfig, error) {
	var cfg AgentConfig
	if err := decode(r.Fields, &cfg); err != nil {
		return nil, errors.Wrapf(err, "agent '%s'", r.Name)
	}
	return &cfg, nil
}

// Command decodes the resolved fields of a command
func (r *Resolved) Command() (*CommandConfig, error) {
	var cfg CommandConfig
	if err := decode(r.Fields, &cfg); err != nil {
		return nil, errors.Wrapf(err, "command '%s'", r.Name)
	}
	return &cfg, nil
}

// Schema returns the JSON schema describing the known fields of a kind.
// Unknown fields are allowed; no type checking is applied on writes.
func Schema(kind Kind) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	if kind.Name == Command.Name {
		return reflector.Reflect(&CommandConfig{})
	}
	return reflector.Reflect(&AgentConfig{})
}
