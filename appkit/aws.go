package appkit

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Control-plane orchestration issues long bursts of calls against
// heavily throttled APIs, so the retryer is raised well above the SDK
// defaults. Throttling-class errors retry with exponential backoff; all
// other errors surface immediately.
const (
	awsMaxAttempts = 10
	awsMaxBackoff  = 20 * time.Second
)

// NewAWSConfig loads the default AWS SDK configuration with the shared
// throttling-backoff retryer. region and profile override the ambient
// values when non-empty.
func NewAWSConfig(ctx context.Context, region, profile string) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryer(func() aws.Retryer {
			return retry.NewStandard(func(o *retry.StandardOptions) {
				o.MaxAttempts = awsMaxAttempts
				o.MaxBackoff = awsMaxBackoff
			})
		}),
	}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, errors.Wrap(err, "loading AWS configuration")
	}
	return cfg, nil
}

// InstrumentAWSConfig appends OpenTelemetry middleware so every SDK call
// produces a span.
func InstrumentAWSConfig(cfg *aws.Config, tp trace.TracerProvider, prop propagation.TextMapPropagator) {
	otelaws.AppendMiddlewares(&cfg.APIOptions,
		otelaws.WithTracerProvider(tp),
		otelaws.WithTextMapPropagator(prop),
	)
}
