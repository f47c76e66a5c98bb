// Package health serves the liveness probe.
package health

import (
	"encoding/json"
	"net/http"

	"github.com/janisto/huma-hello/internal/platform/timeutil"
)

// Response is the health payload.
type Response struct {
	Status    string        `json:"status"`
	Timestamp timeutil.Time `json:"timestamp"`
}

// Handler reports the process as healthy.
func Handler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(Response{Status: "healthy", Timestamp: timeutil.Now()})
}
