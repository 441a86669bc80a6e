package template

import (
	"io"
)

// TemplateRenderer is the seam the page renderer relies on. Implementations
// resolve template names against their own loaders. Values passed to
// GlobalContext are visible to every render and lose to per-render data.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	GlobalContext(data any) error
}

// Reloader is implemented by renderers that cache parsed templates and can
// drop them when the sources change on disk.
type Reloader interface {
	Reload()
}
