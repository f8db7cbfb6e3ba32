package telemetry

// Config holds OpenTelemetry configuration for the engine.
type Config struct {
	// Enabled indicates whether tracing is enabled.
	Enabled bool

	// ServiceName is the name of the service reported to the trace backend.
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// SampleRate is the trace sampling rate (0.0 to 1.0).
	// 1.0 means sample all traces, 0.5 means sample 50%.
	SampleRate float64

	// PrettyPrint controls whether the stdout exporter indents its JSON
	// output. Useful for local debugging, noisy in production logs.
	PrettyPrint bool
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "hybridcache",
		ServiceVersion: "dev",
		SampleRate:     1.0,
	}
}
