package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/next-trace/scg-mics/internal/config"
	"github.com/next-trace/scg-mics/internal/simulation"
)

// NewValidateCmd creates the "validate" subcommand.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config>",
		Short: "Check a configuration and its data files without running",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return loadError(err)
	}

	w, err := simulation.LoadWorld(cfg)
	if err != nil {
		return loadError(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "configuration OK: %d cameras, %d LiDAR workers, %d LiDAR scans, %d ticks of %s\n",
		len(w.Cameras), len(w.Workers), w.LiDarDB.Len(), cfg.Duration, cfg.Tick())

	for _, key := range w.MissingCameraData {
		fmt.Fprintf(out, "warning: no data for camera_key %q\n", key)
	}

	return nil
}
