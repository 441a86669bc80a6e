package action

import (
	perrors "github.com/jmgilman/go/errors"
)

// Messages shown to users. Causes stay in the logs.
const (
	GenericMessage    = "Something went wrong while submitting the form. Please try again."
	DatabaseMessage   = "We could not save your profile right now. Please try again later."
	PermissionMessage = "You do not have permission to submit this form."
	DuplicateEmail    = "This email is already registered"
)

// fieldsKey is the PlatformError context key holding per-field messages.
const fieldsKey = "fields"

// NewValidationError wraps per-field messages in a PlatformError.
func NewValidationError(fields map[string][]string) perrors.PlatformError {
	err := perrors.New(perrors.CodeInvalidInput, "submission failed validation")
	return perrors.WithContext(err, fieldsKey, fields)
}

// FieldErrors extracts the per-field messages from a validation error.
func FieldErrors(err error) map[string][]string {
	var platformErr perrors.PlatformError
	if !perrors.As(err, &platformErr) {
		return nil
	}
	fields, _ := platformErr.Context()[fieldsKey].(map[string][]string)
	return fields
}

// Classify maps an error onto the four-way failure taxonomy. Database and
// permission messages come from the outermost PlatformError, so callers wrap
// causes with a user-safe message. Anything else, plain errors included, is
// an unknown failure carrying GenericMessage.
func Classify(err error) Result {
	if err == nil {
		return UnknownFailure(GenericMessage)
	}
	switch perrors.GetCode(err) {
	case perrors.CodeInvalidInput, perrors.CodeSchemaFailed:
		fields := FieldErrors(err)
		if len(fields) == 0 {
			fields = map[string][]string{"": {messageOf(err, GenericMessage)}}
		}
		return ValidationFailed(fields)
	case perrors.CodeDatabase, perrors.CodeTimeout, perrors.CodeUnavailable:
		return DatabaseFailed(messageOf(err, DatabaseMessage))
	case perrors.CodeForbidden, perrors.CodeUnauthorized:
		return PermissionDenied(messageOf(err, PermissionMessage))
	default:
		return UnknownFailure(GenericMessage)
	}
}

func messageOf(err error, fallback string) string {
	var platformErr perrors.PlatformError
	if perrors.As(err, &platformErr) && platformErr.Message() != "" {
		return platformErr.Message()
	}
	return fallback
}
