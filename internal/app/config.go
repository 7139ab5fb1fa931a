package app

import (
	"os"

	"github.com/raysh454/tenji/internal/scanner"
	"github.com/raysh454/tenji/internal/utils"
)

// Config contains the runtime configuration shared by the CLI and the API
// server. Keep this small; add fields as wiring requires them.
type Config struct {
	// StorageRoot is the base path for baselines and reports.
	StorageRoot string

	// Scanner configuration
	ScannerCfg scanner.Config

	// Spider bounds for whole-site scans.
	SpiderMaxDepth int
	SpiderMaxPages int

	// FailOnRegression controls the gate's exit policy.
	FailOnRegression bool

	// OpenRouterAPIKey enables the AI report summary when set. Populated
	// from OPENROUTER_API_KEY by DefaultConfig.
	OpenRouterAPIKey string

	// Url parsing options
	URLCfg utils.CanonicalizeOptions
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	return &Config{
		StorageRoot:      "~/.config/tenji",
		ScannerCfg:       scanner.DefaultConfig(),
		SpiderMaxDepth:   4,
		SpiderMaxPages:   50,
		FailOnRegression: true,
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		URLCfg: utils.CanonicalizeOptions{
			DropTrackingParams: false,
			StripTrailingSlash: true,
			DefaultScheme:      "http",
		},
	}
}
