// Package observability installs the OpenTelemetry tracer provider shared by
// inbound requests (otelgin), outbound backend calls and GORM, and holds the
// span helpers the backend client uses.
package observability

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"google.golang.org/grpc/credentials"

	"github.com/tbourn/planner-admin/internal/config"
)

const (
	instrumentationName = "github.com/tbourn/planner-admin"
	serviceNamespace    = "planner"

	// AttrCorrelationID is the span attribute carrying X-Correlation-ID.
	AttrCorrelationID = attribute.Key("planner.correlation_id")
	// AttrErrorKind classifies a failed backend call (network, server, ...).
	AttrErrorKind = attribute.Key("planner.error_kind")
)

// Test seams.
var (
	newOTLPClient = otlptracegrpc.NewClient

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		return resource.New(
			ctx,
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceNamespace(serviceNamespace),
				semconv.ServiceVersion(version),
			),
		)
	}
)

// SetupOTel configures tracing and returns a shutdown function. Disabled
// tracing keeps the global no-op provider and a no-op shutdown. The W3C
// propagator is installed on success either way so backend calls forward the
// incoming trace context; on error the globals are left untouched.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, version string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		setPropagator()
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	exp, err := newOTLPExporterFn(ctx, newOTLPClient(opts...))
	if err != nil {
		return nil, err
	}
	res, err := newServiceResourceFn(ctx, cfg.ServiceName, version)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	setPropagator()
	return tp.Shutdown, nil
}

func setPropagator() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
}

// StartBackendSpan opens a client span for one backend call. route is the
// templated path ("/item-types/:id"), url the concrete one.
func StartBackendSpan(ctx context.Context, method, route, url, correlationID string) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName+"/apiclient").Start(ctx, method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(method),
			semconv.URLFull(url),
			attribute.String("http.route", route),
			AttrCorrelationID.String(correlationID),
		),
	)
}

// InjectHeaders writes the trace context of ctx into h.
func InjectHeaders(ctx context.Context, h http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(h))
}

// RecordResponse stamps the backend's status code on span.
func RecordResponse(span trace.Span, status int) {
	span.SetAttributes(semconv.HTTPResponseStatusCode(status))
}

// MarkFailed records a failed backend call on span. status 0 means no
// response was received.
func MarkFailed(span trace.Span, err error, kind string, status int) {
	if status > 0 {
		RecordResponse(span, status)
	}
	span.SetAttributes(AttrErrorKind.String(kind))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
