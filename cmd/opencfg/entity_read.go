package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/opencfg/pkg/entity"
	"github.com/jingkaihe/opencfg/pkg/presenter"
)

func newGetCmd(kind entity.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: fmt.Sprintf("Show the effective configuration of %s", article(kind)),
		Long: fmt.Sprintf(`Show the effective configuration of %s: its Markdown frontmatter and
body overlaid by its highest precedence JSON entry.

With --typed the fields are decoded into the known %s settings.`, article(kind), kind),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			resolved, err := m.Get(cmd.Context(), kind, args[0])
			if err != nil {
				return err
			}

			if typed, _ := cmd.Flags().GetBool("typed"); typed {
				if kind.Name == entity.Command.Name {
					cfg, err := resolved.Command()
					if err != nil {
						return err
					}
					return render(cfg)
				}
				cfg, err := resolved.Agent()
				if err != nil {
					return err
				}
				return render(cfg)
			}

			format, err := outputFormat()
			if err != nil {
				return err
			}
			if format == presenter.FormatTable {
				return renderSection(fmt.Sprintf("%s %s", kind, args[0]), resolvedTable{resolved})
			}
			return presenter.Render(resolved, format)
		},
	}
	cmd.Flags().Bool("typed", false, "Decode the fields into the known settings")
	return cmd
}

func newSourcesCmd(kind entity.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "sources <name>",
		Short: fmt.Sprintf("Show where %s is configured", article(kind)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			sources, err := m.Sources(cmd.Context(), kind, args[0])
			if err != nil {
				return err
			}

			format, err := outputFormat()
			if err != nil {
				return err
			}
			if format == presenter.FormatTable {
				return renderSection(fmt.Sprintf("Sources of %s %s", kind, args[0]), sourcesTable{sources})
			}
			return presenter.Render(sources, format)
		},
	}
}

func newListCmd(kind entity.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %ss from Markdown files and JSON layers", kind),
		Long: fmt.Sprintf(`List every %[1]s defined by a Markdown file or a JSON entry.

Examples:
  opencfg %[1]s list
  opencfg %[1]s list --filter 'review*'
  opencfg %[1]s list -o json`, kind),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, _ := cmd.Flags().GetString("filter")

			m, err := newManager()
			if err != nil {
				return err
			}
			summaries, err := m.List(cmd.Context(), kind, filter)
			if err != nil {
				return err
			}

			format, err := outputFormat()
			if err != nil {
				return err
			}
			if format == presenter.FormatTable {
				if len(summaries) == 0 {
					presenter.Info(fmt.Sprintf("No %ss found", kind))
					return nil
				}
				return presenter.Render(summaryTable(summaries), format)
			}
			return presenter.Render(summaries, format)
		},
	}
	cmd.Flags().StringP("filter", "f", "", "Only list names matching this glob pattern")
	return cmd
}

// renderSection writes a titled table
func renderSection(title string, t presenter.Tabular) error {
	presenter.Section(title)
	return presenter.Render(t, presenter.FormatTable)
}

func article(kind entity.Kind) string {
	if strings.ContainsAny(kind.Name[:1], "aeiou") {
		return "an " + kind.Name
	}
	return "a " + kind.Name
}

// resolvedTable lists effective fields and the record each one comes from
type resolvedTable struct {
	*entity.Resolved
}

func (t resolvedTable) Header() []string {
	return []string{"FIELD", "VALUE", "FROM"}
}

func (t resolvedTable) Rows() [][]string {
	inJSON := map[string]bool{}
	for _, f := range t.Sources.JSON.Fields {
		inJSON[f] = true
	}

	names := make([]string, 0, len(t.Fields))
	for name := range t.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		from := "markdown"
		if inJSON[name] {
			from = "json"
		}
		rows = append(rows, []string{name, presenter.CellValue(t.Fields[name]), from})
	}
	return rows
}

type sourcesTable struct {
	*entity.Sources
}

func (t sourcesTable) Header() []string {
	return []string{"RECORD", "EXISTS", "SCOPE", "PATH", "FIELDS"}
}

func (t sourcesTable) Rows() [][]string {
	info := func(name string, s entity.SourceInfo) []string {
		return []string{name, strconv.FormatBool(s.Exists), string(s.Scope), s.Path, strings.Join(s.Fields, ", ")}
	}
	location := func(name string, l entity.Location) []string {
		return []string{name, strconv.FormatBool(l.Exists), "", l.Path, ""}
	}
	return [][]string{
		info("markdown", t.MD),
		info("json", t.JSON),
		location("project markdown", t.ProjectMD),
		location("user markdown", t.UserMD),
	}
}

type summaryTable []entity.Summary

func (t summaryTable) Header() []string {
	return []string{"NAME", "SOURCE", "SCOPE", "DESCRIPTION", "PATH"}
}

func (t summaryTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, s := range t {
		rows = append(rows, []string{s.Name, string(s.Source), string(s.Scope), s.Description, s.Path})
	}
	return rows
}
