package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/opencfg/pkg/config"
	"github.com/jingkaihe/opencfg/pkg/entity"
	"github.com/jingkaihe/opencfg/pkg/presenter"
)

func newCreateCmd(kind entity.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: fmt.Sprintf("Create %s as a Markdown file", article(kind)),
		Long: fmt.Sprintf(`Create %[1]s as a Markdown file. Fails when the name already has a
Markdown file or a JSON entry.

Values given with --set are parsed as JSON when possible and kept as strings
otherwise.

Examples:
  opencfg %[2]s create reviewer --set model=anthropic/claude-sonnet-4 --%[3]s "Review code"
  opencfg %[2]s create reviewer --scope project --%[3]s-file ./reviewer.txt`, article(kind), kind, kind.BodyField),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			scopeFlag, _ := cmd.Flags().GetString("scope")
			scope, err := config.ParseScope(scopeFlag)
			if err != nil {
				return err
			}

			assignments, _ := cmd.Flags().GetStringArray("set")
			edits, err := parseAssignments(assignments)
			if err != nil {
				return err
			}
			fields := map[string]any{}
			for _, e := range edits {
				if e.Value != nil {
					fields[e.Field] = e.Value
				}
			}

			body, ok, err := readBody(cmd, kind)
			if err != nil {
				return err
			}
			if ok {
				fields[kind.BodyField] = body
			}

			m, err := newManager()
			if err != nil {
				return err
			}
			if scope == config.ScopeProject && !m.Paths().HasWorkDir() {
				presenter.Warning("No project directory, creating at user scope")
			}
			if err := m.Create(cmd.Context(), kind, name, fields, scope); err != nil {
				return err
			}

			presenter.Success(fmt.Sprintf("Created %s %s", kind, name))
			return nil
		},
	}
	cmd.Flags().String("scope", string(config.ScopeUser), "Where to create the Markdown file (user, project)")
	cmd.Flags().StringArray("set", nil, "Set a field, as key=value (repeatable)")
	addBodyFlags(cmd, kind)
	return cmd
}

func newUpdateCmd(kind entity.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: fmt.Sprintf("Update fields of %s", article(kind)),
		Long: fmt.Sprintf(`Update fields of %[1]s. Each field is written to the record that
already holds it: a field present in JSON stays in JSON, other fields go to the
Markdown file when one exists. Updating %[1]s with no record at all creates a
user-level Markdown file overriding the builtin.

Setting a field to null, or passing --unset, removes it from every record.

Examples:
  opencfg %[2]s update reviewer --set model=openai/gpt-5 --set temperature=0.2
  opencfg %[2]s update reviewer --unset tools
  opencfg %[2]s update reviewer --%[3]s "Review code carefully"`, article(kind), kind, kind.BodyField),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assignments, _ := cmd.Flags().GetStringArray("set")
			edits, err := parseAssignments(assignments)
			if err != nil {
				return err
			}

			unset, _ := cmd.Flags().GetStringArray("unset")
			for _, field := range unset {
				edits = append(edits, entity.Edit{Field: field, Value: nil})
			}

			body, ok, err := readBody(cmd, kind)
			if err != nil {
				return err
			}
			if ok {
				edits = append(edits, entity.Edit{Field: kind.BodyField, Value: body})
			}

			if len(edits) == 0 {
				return errors.New("nothing to update, use --set, --unset or --" + kind.BodyField)
			}

			m, err := newManager()
			if err != nil {
				return err
			}
			if err := m.Update(cmd.Context(), kind, args[0], edits); err != nil {
				return err
			}

			presenter.Success(fmt.Sprintf("Updated %s %s", kind, args[0]))
			return nil
		},
	}
	cmd.Flags().StringArray("set", nil, "Set a field, as key=value (repeatable)")
	cmd.Flags().StringArray("unset", nil, "Remove a field (repeatable)")
	addBodyFlags(cmd, kind)
	return cmd
}

func newDeleteCmd(kind entity.Kind) *cobra.Command {
	long := fmt.Sprintf(`Delete %s: its Markdown files at both scopes and its highest precedence
JSON entry.`, article(kind))
	if kind.DisableOnDelete {
		long += fmt.Sprintf(`

Deleting %s that has no record, such as a builtin, disables it with
{"disable": true} in opencode.json.`, article(kind))
	}

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: fmt.Sprintf("Delete %s", article(kind)),
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				if !presenter.Confirm(fmt.Sprintf("Delete %s %s?", kind, name)) {
					presenter.Info("Aborted")
					return nil
				}
			}

			m, err := newManager()
			if err != nil {
				return err
			}
			if err := m.Delete(cmd.Context(), kind, name); err != nil {
				return err
			}

			presenter.Success(fmt.Sprintf("Deleted %s %s", kind, name))
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}
