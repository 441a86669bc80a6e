package template_test

import (
	"embed"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-profileform/pkg/render/template/gotemplate"
	"github.com/goliatone/go-profileform/pkg/testsupport"
)

//go:embed testdata/templates/*.tpl
var embeddedTemplates embed.FS

func TestGoTemplateEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)
	assertRender(t, engine, "hello", map[string]any{"name": "Ada"}, "hello.golden")
}

func TestGoTemplateEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"site": map[string]any{"title": "Profile form", "env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}
	assertRender(t, engine, "use-global", nil, "use-global.golden")
}

func TestGoTemplateEngine_RenderDataOverridesGlobals(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{"name": "Global"}); err != nil {
		t.Fatalf("global context: %v", err)
	}
	assertRender(t, engine, "hello", map[string]any{"name": "Ada"}, "hello.golden")

	got, err := engine.RenderTemplate("hello", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(got, "Hello Global!") {
		t.Fatalf("expected global fallback, got %q", got)
	}
}

func TestGoTemplateEngine_EscapesValues(t *testing.T) {
	engine := newEngine(t)
	data := struct {
		Bio string `json:"bio"`
	}{Bio: "<b>bold</b> & more"}
	assertRender(t, engine, "escape.tpl", data, "escape.golden")
}

func TestGoTemplateEngine_ReloadPicksUpDiskChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.tpl")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	engine, err := gotemplate.New(gotemplate.WithBaseDir(dir))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if got, _ := engine.RenderTemplate("page", nil); got != "v1" {
		t.Fatalf("first render = %q", got)
	}

	if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
		t.Fatalf("rewrite template: %v", err)
	}
	if got, _ := engine.RenderTemplate("page", nil); got != "v1" {
		t.Fatalf("expected cached render, got %q", got)
	}

	engine.Reload()
	if got, _ := engine.RenderTemplate("page", nil); got != "v2" {
		t.Fatalf("render after reload = %q", got)
	}
}

func TestGoTemplateEngine_RequiresSource(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatalf("expected error without base dir or fs")
	}
}

func TestGoTemplateEngine_MissingTemplate(t *testing.T) {
	engine := newEngine(t)
	if _, err := engine.RenderTemplate("does-not-exist", nil); err == nil {
		t.Fatalf("expected error for missing template")
	}
}

func assertRender(t *testing.T, engine *gotemplate.Engine, name string, data any, golden string) {
	t.Helper()

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate(name, data, w)
	})

	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", golden))
	if result != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("render template mismatch writer\nwant: %q\n got: %q", want, written)
	}
}

func newEngine(t *testing.T) *gotemplate.Engine {
	t.Helper()

	templatesFS, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}

	engine, err := gotemplate.New(gotemplate.WithFS(templatesFS))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}
