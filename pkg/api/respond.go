package api

import (
	"encoding/json"
	"errors"
	"net/http"

	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
	"github.com/matzehuels/dungeonforge/pkg/graph"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code       dferrors.Code     `json:"code"`
	Message    string            `json:"message"`
	Violations []graph.Violation `json:"violations,omitempty"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code dferrors.Code) int {
	switch code {
	case dferrors.ErrCodeInvalidInput,
		dferrors.ErrCodeInvalidGraph,
		dferrors.ErrCodeInvalidGenerator,
		dferrors.ErrCodeInvalidParameter,
		dferrors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case dferrors.ErrCodeNotFound, dferrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case dferrors.ErrCodeSimulationCancelled:
		return http.StatusConflict
	case dferrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case dferrors.ErrCodeStorage, dferrors.ErrCodeCache:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := dferrors.GetCode(err)
	if code == "" {
		code = dferrors.ErrCodeInternal
	}
	detail := errorDetail{Code: code, Message: dferrors.UserMessage(err)}
	var verr *graph.ValidationError
	if errors.As(err, &verr) {
		detail.Violations = verr.Violations
	}

	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{Error: detail})
}

// decode reads a JSON request body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return dferrors.Wrap(dferrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}
