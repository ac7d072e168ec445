package server

import (
	"net/http"

	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/observability"
)

// ErrorBody is the JSON shape of a failed request.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code and a user-facing message.
type ErrorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// errInputReference marks NOT_FOUND errors raised while reading a request
// input, such as a record naming an unknown tensor. Those are the client's
// document being wrong, not a missing resource.
const errInputReference = "input references an unknown id"

// asInputError re-labels NOT_FOUND from input processing so [statusFor]
// reports it as 422 rather than 404.
func asInputError(err error) error {
	if errors.GetCode(err) == errors.ErrCodeNotFound {
		return errors.Wrap(errors.ErrCodeMalformedRecord, err, errInputReference)
	}
	return err
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPath, errors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errors.ErrCodeMalformedRecord, errors.ErrCodeShapeMismatch, errors.ErrCodeCycleDetected:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}

	observability.HTTP().OnError(r.Context(), r.Method, routePattern(r), err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: errors.UserMessage(err)}})
}
