// Package appkit assembles the shared application runtime: environment
// parsing, the zap logger, OpenTelemetry tracing, and AWS SDK
// configuration with retry and instrumentation defaults. Binaries wire
// these explicitly; the Lambda entry point composes them with fx.
package appkit
