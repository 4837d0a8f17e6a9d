package rest

import (
	"context"
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// internalError logs err and answers with the generic 500 body; internal
// details never reach the client.
func (s *Server) internalError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	s.logger.Error(ctx, msg, "error", err.Error(), "request_id", requestIDFrom(ctx))
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}
