// internal/app/system/httpjson/httpjson.go
package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/trainhub/internal/app/system/authz"
	"go.uber.org/zap"
)

// Error codes returned in the JSON error envelope. Handlers map store and
// policy sentinels onto these; clients branch on code, not message.
const (
	CodeBadRequest             = "bad_request"
	CodeValidationFailed       = "validation_failed"
	CodeUnauthorized           = "unauthorized"
	CodePermissionDenied       = "permission_denied"
	CodeSelfActionForbidden    = "self_action_forbidden"
	CodeNotFound               = "not_found"
	CodeConflict               = "conflict"
	CodeStateTransitionInvalid = "state_transition_invalid"
	CodeInvariantViolation     = "invariant_violation"
	CodeInvalidPolicy          = "invalid_policy"
	CodeRateLimited            = "rate_limited"
	CodeInternal               = "internal_error"
)

// ErrorDetail is the body of every non-2xx response.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Error ErrorDetail `json:"error"`
}

// Respond writes v as JSON with the given status. A nil v writes just the
// status (used for 204).
func Respond(w http.ResponseWriter, status int, v any) {
	if v == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write json response", zap.Error(err))
	}
}

// Error writes a JSON error envelope.
func Error(w http.ResponseWriter, status int, code, message string) {
	Respond(w, status, errorEnvelope{Error: ErrorDetail{Code: code, Message: message}})
}

// FieldErrors writes a 422 validation envelope with per-field messages.
func FieldErrors(w http.ResponseWriter, message string, fields map[string]string) {
	Respond(w, http.StatusUnprocessableEntity, errorEnvelope{
		Error: ErrorDetail{Code: CodeValidationFailed, Message: message, Fields: fields},
	})
}

// BadRequest writes a 400 with code bad_request.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, CodeBadRequest, message)
}

// NotFound writes a 404 with code not_found.
func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "not found"
	}
	Error(w, http.StatusNotFound, CodeNotFound, message)
}

// Unauthorized writes a 401 for requests with no usable identity.
func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, CodeUnauthorized, "sign in required")
}

// Forbidden writes a 403 with code permission_denied.
func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = "permission denied"
	}
	Error(w, http.StatusForbidden, CodePermissionDenied, message)
}

// Internal logs err and writes a generic 500. The error text never reaches
// the client.
func Internal(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	if log == nil {
		log = zap.L()
	}
	log.Error(op, zap.Error(err))
	Error(w, http.StatusInternalServerError, CodeInternal, "internal error")
}

// AuthzError maps the shared authorization sentinels. Returns false when err
// is not one of them, so callers can continue their own mapping.
func AuthzError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, authz.ErrSelfActionForbidden):
		Error(w, http.StatusForbidden, CodeSelfActionForbidden, "operation may not target yourself")
		return true
	case errors.Is(err, authz.ErrPermissionDenied):
		Forbidden(w, "")
		return true
	}
	return false
}

// Decode reads a JSON request body into dst, capping the body at maxBytes.
// Unknown fields are rejected so typos surface as 400s instead of silently
// dropped input.
func Decode(r *http.Request, dst any, maxBytes int64) error {
	body := http.MaxBytesReader(nil, r.Body, maxBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// Trailing garbage after the first value is still a malformed body.
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
