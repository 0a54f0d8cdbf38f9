package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/opencfg/pkg/config"
	"github.com/jingkaihe/opencfg/pkg/entity"
	"github.com/jingkaihe/opencfg/pkg/presenter"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the layered opencode.json configuration",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the merged JSON configuration or a single layer",
	Long: `Show the JSON configuration merged in precedence order override > project > user.
Use --layer to show one layer as stored on disk.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		tree, err := loadTree(cmd)
		if err != nil {
			return err
		}
		return render(tree)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <jsonpath>",
	Short: "Query the merged JSON configuration with a JSONPath expression",
	Long: `Query the merged JSON configuration with a JSONPath expression.

Examples:
  opencfg config get '$.agent.build.model'
  opencfg config get '$.command.*.agent' --layer project`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := loadTree(cmd)
		if err != nil {
			return err
		}
		matches, err := config.Query(tree, args[0])
		if err != nil {
			return err
		}
		if len(matches) == 1 {
			return render(matches[0])
		}
		return render(matches)
	},
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show the files and directories opencfg reads and writes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		layers, err := m.Layers(cmd.Context())
		if err != nil {
			return err
		}

		paths := m.Paths()
		out := map[string]any{
			"configDir":     paths.ConfigDir,
			"userConfig":    paths.UserConfigFile(),
			"writeTarget":   layers.DefaultPath(),
			"userAgents":    paths.UserDir(entity.Agent.DirName),
			"userCommands":  paths.UserDir(entity.Command.DirName),
			"workDir":       paths.WorkDir,
			"projectConfig": paths.ProjectConfigFile(),
			"override":      paths.OverrideFile,
		}
		if paths.HasWorkDir() {
			out["projectAgents"] = paths.ProjectDir(entity.Agent.DirName)
			out["projectCommands"] = paths.ProjectDir(entity.Command.DirName)
		}
		return render(out)
	},
}

var configSchemaCmd = &cobra.Command{
	Use:       "schema <agent|command>",
	Short:     "Print the JSON schema of agent or command fields",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{entity.Agent.Name, entity.Command.Name},
	RunE: func(_ *cobra.Command, args []string) error {
		kind, err := entity.ParseKind(args[0])
		if err != nil {
			return err
		}
		return presenter.Render(entity.Schema(kind), presenter.FormatJSON)
	},
}

func loadTree(cmd *cobra.Command) (map[string]any, error) {
	m, err := newManager()
	if err != nil {
		return nil, err
	}
	layers, err := m.Layers(cmd.Context())
	if err != nil {
		return nil, err
	}

	name, _ := cmd.Flags().GetString("layer")
	if name == "" {
		return layers.Merged(), nil
	}
	layer, err := config.ParseLayer(name)
	if err != nil {
		return nil, err
	}
	if _, ok := layers.Path(layer); !ok {
		return nil, errors.Errorf("%s layer is not configured", layer)
	}
	return layers.Tree(layer), nil
}

func init() {
	for _, cmd := range []*cobra.Command{configShowCmd, configGetCmd} {
		cmd.Flags().String("layer", "", "Read a single layer (user, project, override)")
	}

	configCmd.AddCommand(
		withTracing(configShowCmd),
		withTracing(configGetCmd),
		withTracing(configPathsCmd),
		configSchemaCmd,
	)
}
