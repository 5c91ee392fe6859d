package transfer

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jaywantadh/chunkstore/internal/chunker"
)

const (
	ChunkPath       = "/chunk"
	HealthPath      = "/health"
	MetricsPath     = "/metrics"
	RecordPath      = "/record"
	RequestIDHeader = "X-Request-Id"
	ContentTypeRaw  = "application/octet-stream"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	NodeID string `json:"node_id,omitempty"`
}

// ChunkURL returns the resource URL of addr under baseURL.
func ChunkURL(baseURL string, addr chunker.Address) string {
	return strings.TrimRight(baseURL, "/") + ChunkPath + "/" + addr.String()
}

func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		// headers are already out, nothing useful to do on failure
		_ = json.NewEncoder(w).Encode(data)
	}
}

func WriteErrorResponse(w http.ResponseWriter, statusCode int, errorMsg string) {
	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: errorMsg,
		Code:    statusCode,
	}
	WriteJSONResponse(w, statusCode, response)
}
