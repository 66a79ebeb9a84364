package appkit

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Providers supplies the runtime dependencies every fx-assembled binary
// needs: environment, logger, tracer provider, and an instrumented
// aws.Config. Tracer shutdown is registered on the fx lifecycle.
func Providers() fx.Option {
	return fx.Options(
		fx.Provide(
			ParseEnv,
			func(env Environment) (*zap.Logger, error) {
				return NewLogger(env.LogLevel)
			},
			func(env Environment) (*sdktrace.TracerProvider, propagation.TextMapPropagator, error) {
				return NewTracerProvider(context.Background(), env)
			},
			func(tp *sdktrace.TracerProvider) trace.TracerProvider { return tp },
			provideAWSConfig,
		),
		fx.Invoke(func(lc fx.Lifecycle, tp *sdktrace.TracerProvider) {
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					return tp.Shutdown(ctx)
				},
			})
		}),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
	)
}

func provideAWSConfig(tp trace.TracerProvider, prop propagation.TextMapPropagator) (aws.Config, error) {
	cfg, err := NewAWSConfig(context.Background(), "", "")
	if err != nil {
		return aws.Config{}, err
	}
	InstrumentAWSConfig(&cfg, tp, prop)
	return cfg, nil
}

// WithAWSClient provides an AWS client built from the shared aws.Config.
func WithAWSClient[T any](factory func(aws.Config) T) fx.Option {
	return fx.Provide(factory)
}

// New assembles an fx application from the shared providers and the
// given options.
func New(opts ...fx.Option) *fx.App {
	return fx.New(append([]fx.Option{Providers()}, opts...)...)
}
