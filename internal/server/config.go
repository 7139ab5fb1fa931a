package server

import (
	"github.com/raysh454/tenji/internal/app"
	"github.com/raysh454/tenji/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address for the API server (the CLI uses
	// the orchestrator in-process and does not require the network).
	ListenAddr string

	// AppConfig is the shared runtime configuration; nil uses defaults.
	AppConfig *app.Config

	// Logger overrides the server's logger; nil uses a stdout logger.
	Logger logging.Logger
}
