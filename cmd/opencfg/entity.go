package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/opencfg/pkg/entity"
)

// newEntityCmd builds the command group shared by agents and commands
func newEntityCmd(kind entity.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   kind.Name,
		Short: fmt.Sprintf("Manage %s configuration", kind),
		Long: fmt.Sprintf(`Inspect and edit %[1]ss defined as Markdown files under %[2]s/ or as
entries of the "%[3]s" section of opencode.json.`, kind, kind.DirName, kind.SectionKey),
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Help()
		},
	}

	cmd.AddCommand(
		withTracing(newGetCmd(kind)),
		withTracing(newSourcesCmd(kind)),
		withTracing(newListCmd(kind)),
		withTracing(newCreateCmd(kind)),
		withTracing(newUpdateCmd(kind)),
		withTracing(newDeleteCmd(kind)),
	)
	return cmd
}

// readBody returns the body given through --<body> or --<body>-file
func readBody(cmd *cobra.Command, kind entity.Kind) (string, bool, error) {
	if path, _ := cmd.Flags().GetString(kind.BodyField + "-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", false, errors.Wrapf(err, "failed to read %s file", kind.BodyField)
		}
		return string(data), true, nil
	}
	if cmd.Flags().Changed(kind.BodyField) {
		body, _ := cmd.Flags().GetString(kind.BodyField)
		return body, true, nil
	}
	return "", false, nil
}

func addBodyFlags(cmd *cobra.Command, kind entity.Kind) {
	cmd.Flags().String(kind.BodyField, "", fmt.Sprintf("The %s %s text", kind, kind.BodyField))
	cmd.Flags().String(kind.BodyField+"-file", "", fmt.Sprintf("Read the %s %s from a local file", kind, kind.BodyField))
	cmd.MarkFlagsMutuallyExclusive(kind.BodyField, kind.BodyField+"-file")
}
