package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	promadapter "github.com/next-trace/scg-mics/adapters/prometheus"
	"github.com/next-trace/scg-mics/metrics"
	micsotel "github.com/next-trace/scg-mics/otel"
)

// instruments is the set of metric backends enabled for a run.
type instruments struct {
	bus   []metrics.BusMetrics
	actor []metrics.ActorMetrics
	stop  []func(context.Context) error
}

func (in *instruments) busMetrics() metrics.BusMetrics { return metrics.MultiBusMetrics(in.bus...) }
func (in *instruments) actorMetrics() metrics.ActorMetrics {
	return metrics.MultiActorMetrics(in.actor...)
}

func (in *instruments) shutdown(ctx context.Context) error {
	var errs []error
	for _, stop := range in.stop {
		errs = append(errs, stop(ctx))
	}

	return errors.Join(errs...)
}

// servePrometheus exposes the bus and actor metrics on addr under /metrics.
func (in *instruments) servePrometheus(addr string, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	pm := promadapter.NewMetrics(reg)
	in.bus = append(in.bus, pm.Bus)
	in.actor = append(in.actor, pm.Actor)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", slog.Any("err", err))
		}
	}()

	logger.Info("serving metrics", slog.String("addr", ln.Addr().String()))
	in.stop = append(in.stop, srv.Shutdown)

	return nil
}

// collectOTel records metrics through the OpenTelemetry SDK and returns a
// function that writes a summary of them to w.
func (in *instruments) collectOTel(w io.Writer) (func(context.Context) error, error) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := mp.Meter("github.com/next-trace/scg-mics")

	bm, err := micsotel.NewBusMetrics(meter)
	if err != nil {
		return nil, err
	}

	am, err := micsotel.NewActorMetrics(meter)
	if err != nil {
		return nil, err
	}

	in.bus = append(in.bus, bm)
	in.actor = append(in.actor, am)
	in.stop = append(in.stop, mp.Shutdown)

	return func(ctx context.Context) error {
		var rm metricdata.ResourceMetrics
		if err := reader.Collect(ctx, &rm); err != nil {
			return fmt.Errorf("collect metrics: %w", err)
		}

		writeSummary(w, &rm)

		return nil
	}, nil
}

// writeSummary prints one line per metric: counter totals, histogram counts
// and the last gauge values.
func writeSummary(w io.Writer, rm *metricdata.ResourceMetrics) {
	var lines []string

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch d := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range d.DataPoints {
					total += dp.Value
				}

				lines = append(lines, fmt.Sprintf("%s total=%d", m.Name, total))
			case metricdata.Histogram[float64]:
				lines = append(lines, histogramLine(m.Name, d.DataPoints))
			case metricdata.Histogram[int64]:
				lines = append(lines, histogramLine(m.Name, d.DataPoints))
			case metricdata.Gauge[int64]:
				lines = append(lines, fmt.Sprintf("%s series=%d", m.Name, len(d.DataPoints)))
			}
		}
	}

	sort.Strings(lines)

	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

func histogramLine[N int64 | float64](name string, dps []metricdata.HistogramDataPoint[N]) string {
	var (
		count uint64
		sum   N
	)

	for _, dp := range dps {
		count += dp.Count
		sum += dp.Sum
	}

	return fmt.Sprintf("%s count=%d sum=%v", name, count, sum)
}
