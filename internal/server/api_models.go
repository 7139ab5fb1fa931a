package server

import "github.com/raysh454/tenji/internal/model"

// SaveBaselineRequest stores an uploaded scan document under a label.
type SaveBaselineRequest struct {
	Label string            `json:"label" example:"main"`
	Scan  *model.ScanResult `json:"scan"`
}

// DiffRequest carries two inline scan documents to diff synchronously.
type DiffRequest struct {
	Base *model.ScanResult `json:"base"`
	Head *model.ScanResult `json:"head"`
}

// StartScanJobRequest starts an asynchronous whole-site scan.
type StartScanJobRequest struct {
	Origin string `json:"origin" example:"http://localhost:9999"`
}

// StartGateJobRequest starts an asynchronous scan gated against a baseline.
type StartGateJobRequest struct {
	Baseline string `json:"baseline" example:"main"`
	Origin   string `json:"origin" example:"http://localhost:9999"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
