package testsupport

import (
	"bytes"
	"io"
	"net/url"
	"os"
	"testing"

	"github.com/goliatone/go-profileform/pkg/model"
)

// ValidProfile returns a profile that passes every rule of the profile form.
func ValidProfile() model.Profile {
	return model.Profile{
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
		Age:   36,
		Bio:   "Mathematician and writer.",
	}
}

// ValidValues returns ValidProfile as form values.
func ValidValues() url.Values {
	return ValidProfile().Values()
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// CaptureTemplateOutput runs render against a buffer and returns both the
// returned string and what was written.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
