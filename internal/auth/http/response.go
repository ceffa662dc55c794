package http

import (
	"net/http"

	"github.com/teamlapse/socialauth/pkg/httpx"
)

// ErrorResponse is the JSON error shape for the API endpoints. Browser-
// facing login failures use the redirect channel instead.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func writeError(w http.ResponseWriter, code int, err, description string) {
	httpx.WriteJSON(w, code, ErrorResponse{Error: err, Description: description})
}

// HealthResponse is returned by the livez and readyz probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
}
