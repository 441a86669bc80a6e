package render

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-profileform/pkg/model"
	rendertemplate "github.com/goliatone/go-profileform/pkg/render/template"
	gotemplate "github.com/goliatone/go-profileform/pkg/render/template/gotemplate"
	"github.com/goliatone/go-profileform/pkg/validation"
)

const (
	defaultTitle        = "Your profile"
	defaultSubmitLabel  = "Save profile"
	defaultPendingLabel = "Saving…"
	timestampLayout     = "2006-01-02 15:04:05 MST"
)

// Option configures a Page.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	theme            *Theme
	title            string
	submitLabel      string
	pendingLabel     string
	location         *time.Location
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithTheme replaces the default theme.
func WithTheme(t *Theme) Option {
	return func(cfg *config) {
		if t != nil {
			cfg.theme = t
		}
	}
}

// WithTitle overrides the page heading. The form summary is used otherwise.
func WithTitle(title string) Option {
	return func(cfg *config) {
		cfg.title = strings.TrimSpace(title)
	}
}

// WithSubmitLabels overrides the idle and pending submit button labels.
func WithSubmitLabels(idle, pending string) Option {
	return func(cfg *config) {
		if idle = strings.TrimSpace(idle); idle != "" {
			cfg.submitLabel = idle
		}
		if pending = strings.TrimSpace(pending); pending != "" {
			cfg.pendingLabel = pending
		}
	}
}

// WithLocation sets the zone used for the human readable success timestamp.
func WithLocation(loc *time.Location) Option {
	return func(cfg *config) {
		if loc != nil {
			cfg.location = loc
		}
	}
}

// PageData is everything the page shows for one render.
type PageData struct {
	Form             model.FormModel
	Values           map[string]string
	FieldErrors      map[string][]string
	Banner           []string
	SubmittedAt      time.Time
	Pending          bool
	ClientValidation bool
	Variant          string
	// Action overrides the form endpoint.
	Action    string
	ToggleURL string
	// Hidden adds hidden inputs to the form.
	Hidden map[string]string
}

// Page renders the profile form page.
type Page struct {
	templates rendertemplate.TemplateRenderer
	theme     *Theme
	title     string
	location  *time.Location
}

// NewPage constructs a Page applying any provided options.
func NewPage(options ...Option) (*Page, error) {
	cfg := config{
		templateFS:   TemplatesFS(),
		submitLabel:  defaultSubmitLabel,
		pendingLabel: defaultPendingLabel,
		location:     time.UTC,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(gotemplate.WithFS(cfg.templateFS))
		if err != nil {
			return nil, fmt.Errorf("render: configure template renderer: %w", err)
		}
		renderer = engine
	}
	// Labels are the same for every render.
	if err := renderer.GlobalContext(map[string]any{
		"submit_label":  cfg.submitLabel,
		"pending_label": cfg.pendingLabel,
	}); err != nil {
		return nil, fmt.Errorf("render: template globals: %w", err)
	}

	if cfg.theme == nil {
		t, err := NewTheme(nil)
		if err != nil {
			return nil, err
		}
		cfg.theme = t
	}

	return &Page{
		templates: renderer,
		theme:     cfg.theme,
		title:     cfg.title,
		location:  cfg.location,
	}, nil
}

// ContentType is the media type of Render output.
func (p *Page) ContentType() string {
	return "text/html; charset=utf-8"
}

// Theme returns the theme the page renders with.
func (p *Page) Theme() *Theme {
	return p.theme
}

// Reload drops cached templates when the renderer supports it.
func (p *Page) Reload() {
	if reloader, ok := p.templates.(rendertemplate.Reloader); ok {
		reloader.Reload()
	}
}

// Render executes the page template for data. The output is also written to
// every writer in out.
func (p *Page) Render(ctx context.Context, data PageData, out ...io.Writer) ([]byte, error) {
	if p == nil || p.templates == nil {
		return nil, fmt.Errorf("render: template renderer is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, err := p.theme.Config(data.Variant)
	if err != nil {
		return nil, err
	}
	name := cfg.Partials[PartialPage]
	if name == "" {
		name = "page.tpl"
	}

	view := p.view(data)
	view["theme"] = map[string]any{
		"name":           cfg.Theme,
		"variant":        cfg.Variant,
		"stylesheet":     cfg.AssetURL(stylesheetAssetID),
		"script":         cfg.AssetURL(scriptAssetID),
		"css_vars_style": CSSVarsStyle(cfg.CSSVars),
	}

	result, err := p.templates.RenderTemplate(name, view, out...)
	if err != nil {
		return nil, fmt.Errorf("render: render page: %w", err)
	}
	return []byte(result), nil
}

func (p *Page) view(data PageData) map[string]any {
	form := data.Form

	title := p.title
	if title == "" {
		title = form.Summary
	}
	if title == "" {
		title = defaultTitle
	}

	method := strings.ToLower(form.Method)
	if method == "" {
		method = strings.ToLower(http.MethodPost)
	}
	action := data.Action
	if action == "" {
		action = form.Endpoint
	}

	mapped := MapErrorPayload(form, data.FieldErrors)
	banner := MergeFormErrors(data.Banner, mapped.Form...)

	switchValue := "off"
	if data.ClientValidation {
		switchValue = "on"
	}
	var hidden []map[string]any
	for _, h := range SortedHiddenFields(MergeHiddenFields(data.Hidden, Hidden(ClientValidationField, switchValue))) {
		hidden = append(hidden, map[string]any{"name": h.Name, "value": h.Value})
	}

	fields := make([]map[string]any, 0, len(form.Fields))
	for _, field := range form.Fields {
		fields = append(fields, p.fieldView(field, data, mapped.Fields[field.Name]))
	}

	view := map[string]any{
		"title":                title,
		"description":          form.Description,
		"banner":               banner,
		"method":               method,
		"action":               action,
		"client_validation":    data.ClientValidation,
		"pending":              data.Pending,
		"toggle_url":           data.ToggleURL,
		"fields":               fields,
		"hidden_fields":        hidden,
		"submitted_at":         "",
		"submitted_at_display": "",
	}
	if !data.SubmittedAt.IsZero() {
		view["submitted_at"] = data.SubmittedAt.UTC().Format(time.RFC3339)
		view["submitted_at_display"] = data.SubmittedAt.In(p.location).Format(timestampLayout)
	}
	return view
}

func (p *Page) fieldView(field model.Field, data PageData, errs []string) map[string]any {
	label := field.Label
	if label == "" {
		label = model.DefaultLabeler(field.Name)
	}

	// Rules are always present so the runtime can restore the native
	// attributes when client validation is switched on.
	var attrs, rules []map[string]any
	for _, attr := range validation.HTMLAttributes(field) {
		entry := map[string]any{"name": attr.Name, "value": attr.Value}
		rules = append(rules, entry)
		if data.ClientValidation {
			attrs = append(attrs, entry)
		}
	}

	return map[string]any{
		"name":        field.Name,
		"label":       label,
		"required":    field.Required,
		"multiline":   field.Multiline(),
		"input_type":  validation.InputType(field),
		"value":       data.Values[field.Name],
		"placeholder": field.Placeholder,
		"description": field.Description,
		"attrs":       attrs,
		"rules":       rules,
		"invalid":     len(errs) > 0,
		"errors":      errs,
	}
}
