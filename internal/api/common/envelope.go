package common

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Messages of the two error envelopes the API emits.
const (
	UnauthorizedMessage  = "Unauthorized"
	InternalErrorMessage = "Internal Server Error"
)

// ErrorBody is the error member of an error envelope
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ResultEnvelope carries a successful result and echoes the request id
type ResultEnvelope struct {
	Result any             `json:"result"`
	ID     json.RawMessage `json:"id"`
}

// ErrorEnvelope carries a failure and echoes the request id
type ErrorEnvelope struct {
	Error ErrorBody       `json:"error"`
	ID    json.RawMessage `json:"id"`
}

// WriteJSONResponse writes data as JSON with the given status code
func WriteJSONResponse(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// WriteResult writes a 200 result envelope
func WriteResult(w http.ResponseWriter, result any, id json.RawMessage) {
	WriteJSONResponse(w, ResultEnvelope{Result: result, ID: id}, http.StatusOK)
}

// WriteUnauthorized writes the fixed 401 envelope. Its id is always null.
func WriteUnauthorized(w http.ResponseWriter) {
	WriteJSONResponse(w, ErrorEnvelope{
		Error: ErrorBody{Code: http.StatusUnauthorized, Message: UnauthorizedMessage},
	}, http.StatusUnauthorized)
}

// WriteInternalError writes the fixed 500 envelope
func WriteInternalError(w http.ResponseWriter, id json.RawMessage) {
	WriteJSONResponse(w, ErrorEnvelope{
		Error: ErrorBody{Code: http.StatusInternalServerError, Message: InternalErrorMessage},
		ID:    id,
	}, http.StatusInternalServerError)
}
