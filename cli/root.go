// Package cli implements the gurionrock command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd returns the gurionrock command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "gurionrock",
		Short: "GurionRock sensor fusion simulator",
		Long:  "gurionrock runs the GurionRock perception simulation on the in-process actor bus and reports the landmark map it builds.",
		// usage on every runtime error is noise
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("gurionrock version %s\n", version))

	root.AddCommand(NewRunCmd(), NewValidateCmd(), NewRunsCmd())

	return root
}
