package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/vbonduro/eatai/internal/domain"
	"github.com/vbonduro/eatai/internal/logging"
)

const (
	ownerHeader = "X-Owner-ID"

	maxBodyBytes = 64 << 10

	// statusClientClosedRequest is recorded when the caller went away before
	// the response was ready. Nothing is written to the client.
	statusClientClosedRequest = 499
)

var errRateLimited = errors.New("too many recipe requests, try again shortly")

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context(), s.logger).Error("failed to write response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses. Recipe adapter failures
// are logged by the recipe service; only unexpected errors are logged here.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.FromContext(r.Context(), s.logger)

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid request", Message: verr.Message, Field: verr.Field})
	case errors.Is(err, domain.ErrValidation):
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid request", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		s.writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrConflict):
		s.writeJSON(w, r, http.StatusConflict, errorResponse{Error: "already exists", Message: err.Error()})
	case errors.Is(err, errRateLimited):
		w.Header().Set("Retry-After", "60")
		s.writeJSON(w, r, http.StatusTooManyRequests, errorResponse{Error: "rate limited", Message: err.Error()})
	case errors.Is(err, domain.ErrCancelled):
		logger.Info("request abandoned by client", "error", err)
		w.WriteHeader(statusClientClosedRequest)
	case errors.Is(err, domain.ErrTimeout):
		s.writeJSON(w, r, http.StatusGatewayTimeout, errorResponse{Error: "Recipe generation timed out", Message: err.Error()})
	case errors.Is(err, domain.ErrParse):
		s.writeJSON(w, r, http.StatusBadGateway, errorResponse{Error: "Invalid recipe response", Message: err.Error()})
	case errors.Is(err, domain.ErrUpstream):
		s.writeJSON(w, r, http.StatusBadGateway, errorResponse{Error: "Recipe generation failed", Message: err.Error()})
	default:
		logger.Error("request failed", "error", err)
		s.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Something went wrong"})
	}
}

// decodeJSON reads a single JSON object from the request body into v.
// Unknown fields are ignored.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.NewValidationError("body", "request body is required")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return domain.NewValidationError(typeErr.Field, "must be a %s", typeErr.Type)
		}
		return domain.NewValidationError("body", "malformed JSON: %v", err)
	}
	return nil
}

// ownerID resolves the caller's owner from X-Owner-ID, falling back to the
// configured default.
func (s *Server) ownerID(r *http.Request) (int64, error) {
	raw := r.Header.Get(ownerHeader)
	if raw == "" {
		return s.opts.DefaultOwnerID, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(ownerHeader, "must be a positive integer")
	}
	return id, nil
}

// parseID extracts the {id} path variable and returns it as int64.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("id", "invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

func deletedResponse(id int64) map[string]any {
	return map[string]any{"deleted": true, "id": id}
}
