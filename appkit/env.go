package appkit

import (
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Environment holds process-level configuration shared by all binaries.
// The accelerator configuration itself comes from the configuration
// files, not the environment.
type Environment struct {
	ServiceName  string        `env:"SERVICE_NAME" envDefault:"groundwork"`
	LogLevel     zapcore.Level `env:"LOG_LEVEL" envDefault:"info"`
	OtelExporter string        `env:"OTEL_EXPORTER" envDefault:"stdout"`

	// S3 source of the accelerator configuration, used by the Lambda
	// and by --config-bucket flows.
	ConfigBucket string `env:"GW_CONFIG_BUCKET"`
	ConfigPrefix string `env:"GW_CONFIG_PREFIX"`
}

// ParseEnv parses the process environment.
func ParseEnv() (Environment, error) {
	var e Environment
	if err := env.Parse(&e); err != nil {
		return e, errors.Wrap(err, "parsing environment")
	}
	return e, nil
}
