package observability

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/sharedexperiences-backend/internal/platform/envutil"
	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
	ExporterNone   = "none"

	instrumentationName = "github.com/yungbote/sharedexperiences-backend"
	defaultServiceName  = "sharedexperiences"
)

type OtelConfig struct {
	ServiceName string
	Environment string
	Version     string
}

// tracingSettings is the OTEL_* environment, read once per InitOTel.
type tracingSettings struct {
	Enabled  bool
	Exporter string
	Endpoint string
	Headers  map[string]string
	Insecure bool
	Ratio    float64
}

func loadTracingSettings() tracingSettings {
	s := tracingSettings{
		Enabled:  envutil.Bool("OTEL_ENABLED", false),
		Endpoint: envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Headers:  parseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
		Insecure: envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		Ratio:    clampRatio(envutil.Float("OTEL_SAMPLER_RATIO", 0.1)),
	}
	s.Exporter = strings.ToLower(envutil.String("OTEL_EXPORTER", ""))
	if s.Exporter == "" {
		// An endpoint implies OTLP; otherwise spans go to stdout.
		s.Exporter = ExporterStdout
		if s.Endpoint != "" {
			s.Exporter = ExporterOTLP
		}
	}
	return s
}

func clampRatio(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// parseHeaders reads "k=v,k2=v2", skipping malformed or empty pairs.
func parseHeaders(raw string) map[string]string {
	var out map[string]string
	for _, part := range strings.Split(raw, ",") {
		key, val, ok := strings.Cut(part, "=")
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		if !ok || key == "" || val == "" {
			continue
		}
		if out == nil {
			out = map[string]string{}
		}
		out[key] = val
	}
	return out
}

func (s tracingSettings) exporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	switch s.Exporter {
	case ExporterNone:
		return nil, nil
	case ExporterStdout:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ExporterOTLP:
		if s.Endpoint == "" {
			return nil, fmt.Errorf("otlp exporter needs OTEL_EXPORTER_OTLP_ENDPOINT")
		}
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(s.Endpoint)}
		if s.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(s.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(s.Headers))
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown OTEL_EXPORTER %q", s.Exporter)
	}
}

var (
	otelOnce     sync.Once
	otelShutdown func(context.Context) error
)

// InitOTel installs the global tracer provider and propagators once per
// process. It returns nil when tracing is disabled. Exporter and resource
// errors are logged and tracing continues without export.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	otelOnce.Do(func() {
		settings := loadTracingSettings()
		if !settings.Enabled {
			return
		}
		if log == nil {
			log = logger.Nop()
		}
		name := strings.TrimSpace(cfg.ServiceName)
		if name == "" {
			name = defaultServiceName
		}
		res, err := resource.New(ctx, resource.WithAttributes(
			semconv.ServiceNameKey.String(name),
			semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
			attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
		))
		if err != nil {
			log.Warn("otel resource init failed (continuing)", "error", err)
		}

		opts := []sdktrace.TracerProviderOption{
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(settings.Ratio))),
			sdktrace.WithResource(res),
		}
		exp, err := settings.exporter(ctx)
		if err != nil {
			log.Warn("otel exporter init failed (continuing)", "exporter", settings.Exporter, "error", err)
		}
		if exp != nil {
			opts = append(opts, sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)))
		}
		tp := sdktrace.NewTracerProvider(opts...)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		otelShutdown = tp.Shutdown
		log.Info("otel tracing initialized",
			"service", name,
			"exporter", settings.Exporter,
			"ratio", settings.Ratio,
		)
	})
	return otelShutdown
}

// StartSpan opens a span on the global provider. It is a no-op span when
// tracing is disabled.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}
