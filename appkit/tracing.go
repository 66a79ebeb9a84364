package appkit

import (
	"context"

	"github.com/aws-observability/aws-otel-go/exporters/xrayudp"
	"github.com/cockroachdb/errors"
	lambdadetector "go.opentelemetry.io/contrib/detectors/aws/lambda"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewTracerProvider builds a tracer provider with the exporter selected
// by OTEL_EXPORTER:
//   - "stdout": pretty-printed spans on stdout (default, local use)
//   - "xrayudp": export directly to the Lambda X-Ray daemon
//
// The X-Ray ID generator and propagator are used in both cases so trace
// ids remain valid when spans end up in X-Ray.
func NewTracerProvider(ctx context.Context, env Environment) (*sdktrace.TracerProvider, propagation.TextMapPropagator, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch env.OtelExporter {
	case "stdout", "":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "xrayudp":
		exporter, err = xrayudp.NewSpanExporter(ctx)
	default:
		return nil, nil, errors.Newf("unsupported OTEL_EXPORTER: %q (supported: stdout, xrayudp)", env.OtelExporter)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating span exporter")
	}

	opts := []sdktrace.TracerProviderOption{
		// Lambda may freeze the container between invocations; export
		// synchronously so spans are not lost in unflushed batches.
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithIDGenerator(xray.NewIDGenerator()),
	}
	if res, detectErr := lambdadetector.NewResourceDetector().Detect(ctx); detectErr == nil {
		opts = append(opts, sdktrace.WithResource(res))
	}

	return sdktrace.NewTracerProvider(opts...), xray.Propagator{}, nil
}
