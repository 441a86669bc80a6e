// Package profileform renders the profile form page and exposes the pieces
// needed to serve it: embedded templates, browser assets and the submit
// action.
package profileform

import (
	"context"

	"github.com/goliatone/go-profileform/pkg/action"
	"github.com/goliatone/go-profileform/pkg/formstate"
	"github.com/goliatone/go-profileform/pkg/openapi"
	"github.com/goliatone/go-profileform/pkg/render"
)

// PageData aliases render.PageData for callers rendering the page directly.
type PageData = render.PageData

// Result aliases the typed outcome of a submission.
type Result = action.Result

// NewPage exposes the page constructor from the top-level module.
func NewPage(options ...render.Option) (*render.Page, error) {
	return render.NewPage(options...)
}

// GenerateHTML renders the page in its initial state: empty fields, no
// banner and client validation on.
func GenerateHTML(ctx context.Context, options ...render.Option) ([]byte, error) {
	form, err := openapi.ProfileForm(ctx)
	if err != nil {
		return nil, err
	}
	page, err := render.NewPage(options...)
	if err != nil {
		return nil, err
	}
	return page.Render(ctx, formstate.New(form).PageData())
}

// GenerateHTMLFromState renders the page for an existing state, for example
// after a submission completed.
func GenerateHTMLFromState(ctx context.Context, state *formstate.State, options ...render.Option) ([]byte, error) {
	page, err := render.NewPage(options...)
	if err != nil {
		return nil, err
	}
	return page.Render(ctx, state.PageData())
}
