package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments for the gamification core.
type Metrics struct {
	awards               metric.Int64Counter
	xpGranted            metric.Int64Counter
	ledgerEvents         metric.Int64Counter
	cappedGrants         metric.Int64Counter
	reconcileRuns        metric.Int64Counter
	reconcileCorrections metric.Int64Counter
	sotwElections        metric.Int64Counter
	jobDuration          metric.Float64Histogram
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "ischkul"
	}
	meter := provider.Meter(name)

	awards, err := meter.Int64Counter("ischkul_xp_awards_total")
	if err != nil {
		return nil, err
	}
	xpGranted, err := meter.Int64Counter("ischkul_xp_granted_total")
	if err != nil {
		return nil, err
	}
	ledgerEvents, err := meter.Int64Counter("ischkul_xp_ledger_events_total")
	if err != nil {
		return nil, err
	}
	cappedGrants, err := meter.Int64Counter("ischkul_xp_capped_grants_total")
	if err != nil {
		return nil, err
	}
	reconcileRuns, err := meter.Int64Counter("ischkul_reconcile_runs_total")
	if err != nil {
		return nil, err
	}
	reconcileCorrections, err := meter.Int64Counter("ischkul_reconcile_corrections_total")
	if err != nil {
		return nil, err
	}
	sotwElections, err := meter.Int64Counter("ischkul_sotw_elections_total")
	if err != nil {
		return nil, err
	}
	jobDuration, err := meter.Float64Histogram("ischkul_scheduler_job_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		awards:               awards,
		xpGranted:            xpGranted,
		ledgerEvents:         ledgerEvents,
		cappedGrants:         cappedGrants,
		reconcileRuns:        reconcileRuns,
		reconcileCorrections: reconcileCorrections,
		sotwElections:        sotwElections,
		jobDuration:          jobDuration,
	}, nil
}

// IncAward records one processed award call for the given activity type.
func (m *Metrics) IncAward(ctx context.Context, activityType string, granted int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("activity_type", activityType))
	m.awards.Add(ctx, 1, attrs)
	if granted > 0 {
		m.xpGranted.Add(ctx, granted, attrs)
	}
}

// IncLedgerEvent records one durable ledger write.
func (m *Metrics) IncLedgerEvent(ctx context.Context, activityType string) {
	if m == nil {
		return
	}
	m.ledgerEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("activity_type", activityType)))
}

// IncCappedGrant records a minor-class grant clipped by the daily cap.
func (m *Metrics) IncCappedGrant(ctx context.Context) {
	if m == nil {
		return
	}
	m.cappedGrants.Add(ctx, 1)
}

// IncReconcile records a reconcile run and whether it corrected drift.
func (m *Metrics) IncReconcile(ctx context.Context, corrected bool) {
	if m == nil {
		return
	}
	m.reconcileRuns.Add(ctx, 1)
	if corrected {
		m.reconcileCorrections.Add(ctx, 1)
	}
}

// IncSOTWElection records the lazy creation of a weekly winner snapshot.
func (m *Metrics) IncSOTWElection(ctx context.Context) {
	if m == nil {
		return
	}
	m.sotwElections.Add(ctx, 1)
}

// ObserveJobDuration records scheduler job latency.
func (m *Metrics) ObserveJobDuration(ctx context.Context, job string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("job", job)))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported metrics exporter protocol %q", protocol)
	}
}
