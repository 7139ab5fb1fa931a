package demosite

// Config holds configuration for the demo site server.
type Config struct {
	// Port is the port on which the demo site listens.
	Port int

	// InitialVersion is the starting revision for all pages (default: 1).
	InitialVersion int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:           9999,
		InitialVersion: 1,
	}
}
