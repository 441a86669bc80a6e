package action_test

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	perrors "github.com/jmgilman/go/errors"

	"github.com/goliatone/go-profileform/pkg/action"
)

func TestEncodeResultWireShape(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name   string
		result action.Result
		want   string
		status int
	}{
		{
			name:   "success",
			result: action.Succeeded("abc", at),
			want:   `{"success":true,"submissionId":"abc","timestamp":"2026-05-01T12:30:00Z"}`,
			status: http.StatusOK,
		},
		{
			name:   "validation",
			result: action.ValidationFailed(map[string][]string{"email": {"Email is required"}}),
			want:   `{"success":false,"error":{"type":"validation","errors":{"email":["Email is required"]}}}`,
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "database",
			result: action.DatabaseFailed("db down"),
			want:   `{"success":false,"error":{"type":"database","message":"db down"}}`,
			status: http.StatusServiceUnavailable,
		},
		{
			name:   "permission",
			result: action.PermissionDenied("nope"),
			want:   `{"success":false,"error":{"type":"permission","message":"nope"}}`,
			status: http.StatusForbidden,
		},
		{
			name:   "unknown",
			result: action.UnknownFailure("oops"),
			want:   `{"success":false,"error":{"type":"unknown","message":"oops"}}`,
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			if err := action.EncodeResult(&buf, tt.result); err != nil {
				t.Fatalf("encode: %v", err)
			}
			if got := strings.TrimSpace(buf.String()); got != tt.want {
				t.Fatalf("wire mismatch\nwant %s\ngot  %s", tt.want, got)
			}
			if got := tt.result.StatusCode(); got != tt.status {
				t.Fatalf("status = %d, want %d", got, tt.status)
			}

			decoded, err := action.DecodeResult(&buf)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(tt.result, decoded); diff != "" {
				t.Fatalf("decoded mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeResultRejectsMalformedBodies(t *testing.T) {
	t.Parallel()

	bodies := map[string]string{
		"not json":        `<html>`,
		"missing success": `{"error":{"type":"database","message":"x"}}`,
		"missing error":   `{"success":false}`,
		"unknown type":    `{"success":false,"error":{"type":"teapot","message":"x"}}`,
		"bad timestamp":   `{"success":true,"timestamp":"yesterday"}`,
	}
	for name, body := range bodies {
		if _, err := action.DecodeResult(strings.NewReader(body)); !errors.Is(err, action.ErrMalformedResult) {
			t.Fatalf("%s: expected ErrMalformedResult, got %v", name, err)
		}
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	fields := map[string][]string{"name": {"Name is required"}}
	tests := []struct {
		name string
		err  error
		want action.Result
	}{
		{name: "nil", err: nil, want: action.UnknownFailure(action.GenericMessage)},
		{name: "plain", err: errors.New("kaput"), want: action.UnknownFailure(action.GenericMessage)},
		{name: "validation", err: action.NewValidationError(fields), want: action.ValidationFailed(fields)},
		{
			name: "schema failure without fields",
			err:  perrors.New(perrors.CodeSchemaFailed, "payload rejected"),
			want: action.ValidationFailed(map[string][]string{"": {"payload rejected"}}),
		},
		{name: "database", err: perrors.New(perrors.CodeDatabase, "saving failed"), want: action.DatabaseFailed("saving failed")},
		{name: "unavailable", err: perrors.New(perrors.CodeUnavailable, ""), want: action.DatabaseFailed(action.DatabaseMessage)},
		{name: "forbidden", err: perrors.New(perrors.CodeForbidden, "read only"), want: action.PermissionDenied("read only")},
		{name: "unauthorized", err: perrors.New(perrors.CodeUnauthorized, ""), want: action.PermissionDenied(action.PermissionMessage)},
		{name: "internal", err: perrors.New(perrors.CodeInternal, "secret detail"), want: action.UnknownFailure(action.GenericMessage)},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, action.Classify(tt.err)); diff != "" {
			t.Fatalf("%s: mismatch (-want +got):\n%s", tt.name, diff)
		}
	}
}
