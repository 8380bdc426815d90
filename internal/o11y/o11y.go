// Package o11y wires OpenTelemetry tracing and metrics export, enabled only when a service name is
// configured so the daemon stays dependency-free in local/dev runs.
package o11y

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// Opts configures the OTEL exporters and the resource attributes attached to every span and metric.
type Opts struct {
	ServiceName     string
	CollectorUrl    string
	CollectorHeader map[string]string
	InsecureMode    bool

	ChainID *big.Int
	Address common.Address
}

// IsEnabled reports whether observability export is configured at all.
func IsEnabled(serviceName string) bool {
	return serviceName != ""
}

func dialOption(insecureMode bool) grpc.DialOption {
	if insecureMode {
		return grpc.WithTransportCredentials(insecure.NewCredentials())
	}
	return grpc.WithTransportCredentials(credentials.NewTLS(nil))
}

func newResource(opts *Opts) *resource.Resource {
	r, _ := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceNameKey.String(opts.ServiceName),
			semconv.ServiceInstanceIDKey.String(opts.Address.Hex()),
		),
	)
	return r
}

// InitTracer installs a global OTEL TracerProvider exporting spans via OTLP/gRPC. The returned function
// flushes and shuts the provider down.
func InitTracer(opts *Opts) func() {
	conn, err := grpc.Dial(opts.CollectorUrl, dialOption(opts.InsecureMode))
	if err != nil {
		return func() {}
	}

	exporter, err := otlptrace.New(context.Background(), otlptracegrpc.NewClient(
		otlptracegrpc.WithGRPCConn(conn),
		otlptracegrpc.WithHeaders(opts.CollectorHeader),
	))
	if err != nil {
		return func() {}
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(newResource(opts)),
	)
	otel.SetTracerProvider(provider)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(ctx)
	}
}

// InitMetrics installs a global OTEL MeterProvider exporting metrics via OTLP/gRPC on a periodic reader.
func InitMetrics(opts *Opts) func() {
	conn, err := grpc.Dial(opts.CollectorUrl, dialOption(opts.InsecureMode))
	if err != nil {
		return func() {}
	}

	exporter, err := otlpmetricgrpc.New(context.Background(),
		otlpmetricgrpc.WithGRPCConn(conn),
		otlpmetricgrpc.WithHeaders(opts.CollectorHeader),
	)
	if err != nil {
		return func() {}
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(newResource(opts)),
	)
	otel.SetMeterProvider(provider)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(ctx)
	}
}

// Meter returns a named meter off the global MeterProvider, for components that record counters or
// gauges without needing their own provider reference.
func Meter(name string) metric.Meter {
	return otel.GetMeterProvider().Meter(name)
}
