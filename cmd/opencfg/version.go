package main

import (
	"github.com/spf13/cobra"

	"github.com/jingkaihe/opencfg/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return render(version.Get())
	},
}
