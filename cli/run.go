package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	cbus "github.com/next-trace/scg-mics/contract/bus"
	"github.com/next-trace/scg-mics/internal/config"
	"github.com/next-trace/scg-mics/internal/report"
	"github.com/next-trace/scg-mics/internal/simulation"
	"github.com/next-trace/scg-mics/messagebus"
)

// DefaultOutputName is written next to the configuration file unless
// --output says otherwise.
const DefaultOutputName = "output_file.json"

// NewRunCmd creates the "run" subcommand.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <config>",
		Short: "Run a simulation and write its report",
		Args:  cobra.ExactArgs(1),
		RunE:  runRun,
	}

	cmd.Flags().StringP("output", "o", "", "Report path (default: "+DefaultOutputName+" next to the configuration)")
	cmd.Flags().Duration("tick", 0, "Override the configured tick interval, e.g. 10ms")
	cmd.Flags().String("store", "", "SQLite DSN to record the run in, e.g. file:runs.db")
	cmd.Flags().String("tap", "", "Export bus traffic: nats://..., kafka://broker/topic or amqp://...")
	cmd.Flags().Int("tap-buffer", 0, "Traffic records buffered before dropping (0: default)")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().Bool("metrics-summary", false, "Print an OpenTelemetry metrics summary to stderr after the run")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	path := args[0]
	logger := newLogger(cmd, cmd.ErrOrStderr())

	cfg, err := config.Load(path)
	if err != nil {
		return loadError(err)
	}

	var (
		opts    = []simulation.Option{simulation.WithLogger(logger)}
		busOpts []messagebus.BusOption
	)

	if tick, _ := cmd.Flags().GetDuration("tick"); tick > 0 {
		opts = append(opts, simulation.WithTickTime(tick))
	}

	if raw, _ := cmd.Flags().GetString("tap"); raw != "" {
		tc, err := parseTap(raw)
		if err != nil {
			return exitError(exitValidation, err)
		}

		pub, cleanup, err := tc.open()
		defer cleanup()

		if err != nil {
			return exitError(exitRuntime, err)
		}

		busOpts = append(busOpts, messagebus.WithTap(pub, cbus.PublishOptions{}))
		if n, _ := cmd.Flags().GetInt("tap-buffer"); n > 0 {
			busOpts = append(busOpts, messagebus.WithTapBuffer(n))
		}
	}

	var in instruments

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = in.shutdown(ctx)
	}()

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		if err := in.servePrometheus(addr, logger); err != nil {
			return exitError(exitRuntime, err)
		}
	}

	var summarize func(context.Context) error

	if on, _ := cmd.Flags().GetBool("metrics-summary"); on {
		if summarize, err = in.collectOTel(cmd.ErrOrStderr()); err != nil {
			return exitError(exitRuntime, err)
		}
	}

	busOpts = append(busOpts, messagebus.WithMetrics(in.busMetrics()))
	opts = append(opts, simulation.WithBusOptions(busOpts...), simulation.WithActorMetrics(in.actorMetrics()))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim := simulation.New(cfg, opts...)

	res, err := sim.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return exitError(exitInterrupted, err)
		}

		return loadError(err)
	}

	out := outputPath(cmd, path)
	if err := report.WriteJSON(out, res.Output); err != nil {
		return exitError(exitRuntime, err)
	}

	if dsn, _ := cmd.Flags().GetString("store"); dsn != "" {
		if err := saveRun(cmd.Context(), dsn, res); err != nil {
			return exitError(exitRuntime, err)
		}
	}

	if summarize != nil {
		if err := summarize(cmd.Context()); err != nil {
			logger.Warn("metrics summary failed", slog.Any("err", err))
		}
	}

	status := "completed"
	if res.Output.Crashed() {
		status = fmt.Sprintf("crashed (%s: %s)", res.Output.FaultySensor, res.Output.Error)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "run %s %s: %d landmarks after %d ticks, report written to %s\n",
		res.RunID, status, res.Output.NumLandmarks, res.Output.SystemRuntime, out)

	return nil
}

func outputPath(cmd *cobra.Command, configPath string) string {
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		return out
	}

	return filepath.Join(filepath.Dir(configPath), DefaultOutputName)
}

func saveRun(ctx context.Context, dsn string, res simulation.Result) error {
	store, err := report.Open(dsn)
	if err != nil {
		return err
	}

	return errors.Join(store.SaveRun(ctx, res.RunID, res.Output), store.Close())
}
