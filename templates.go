package profileform

import (
	"io/fs"

	"github.com/goliatone/go-profileform/pkg/render"
)

// EmbeddedTemplates exposes the built-in page templates so callers can copy
// or extend them without importing the render package directly.
func EmbeddedTemplates() fs.FS {
	return render.TemplatesFS()
}
