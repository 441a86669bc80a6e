package action

import (
	"net/http"
	"time"
)

// ErrorType tags the failure shapes the action can return.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeDatabase   ErrorType = "database"
	ErrorTypePermission ErrorType = "permission"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Valid reports whether t is one of the four known failure tags.
func (t ErrorType) Valid() bool {
	switch t {
	case ErrorTypeValidation, ErrorTypeDatabase, ErrorTypePermission, ErrorTypeUnknown:
		return true
	}
	return false
}

// Failure is the error record of a failed submission. Validation failures
// carry Fields; the other types carry Message.
type Failure struct {
	Type    ErrorType
	Message string
	Fields  map[string][]string
}

// Result is the outcome of one submission: either Success is true and
// SubmissionID/SubmittedAt are set, or Error describes the failure.
type Result struct {
	Success      bool
	SubmissionID string
	SubmittedAt  time.Time
	Error        *Failure
}

// Succeeded builds a success result.
func Succeeded(id string, at time.Time) Result {
	return Result{Success: true, SubmissionID: id, SubmittedAt: at}
}

// ValidationFailed builds a validation failure keyed by field name.
func ValidationFailed(fields map[string][]string) Result {
	return Result{Error: &Failure{Type: ErrorTypeValidation, Fields: fields}}
}

// DatabaseFailed builds a database failure.
func DatabaseFailed(message string) Result {
	return Result{Error: &Failure{Type: ErrorTypeDatabase, Message: message}}
}

// PermissionDenied builds a permission failure.
func PermissionDenied(message string) Result {
	return Result{Error: &Failure{Type: ErrorTypePermission, Message: message}}
}

// UnknownFailure builds an unknown failure.
func UnknownFailure(message string) Result {
	return Result{Error: &Failure{Type: ErrorTypeUnknown, Message: message}}
}

// Type returns the failure tag, or "" for successful results.
func (r Result) Type() ErrorType {
	if r.Success || r.Error == nil {
		return ""
	}
	return r.Error.Type
}

// StatusCode maps the result onto an HTTP status.
func (r Result) StatusCode() int {
	switch r.Type() {
	case "":
		if r.Success {
			return http.StatusOK
		}
		return http.StatusInternalServerError
	case ErrorTypeValidation:
		return http.StatusUnprocessableEntity
	case ErrorTypePermission:
		return http.StatusForbidden
	case ErrorTypeDatabase:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
