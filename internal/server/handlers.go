package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/elnormous/contenttype"

	"github.com/goliatone/go-profileform/pkg/action"
	"github.com/goliatone/go-profileform/pkg/client"
	"github.com/goliatone/go-profileform/pkg/formstate"
	"github.com/goliatone/go-profileform/pkg/openapi"
	"github.com/goliatone/go-profileform/pkg/render"
)

const (
	clientValidationParam = "clientValidation"
	variantParam          = "variant"
	variantField          = "_variant"
)

var (
	htmlMediaType = contenttype.NewMediaType("text/html")
	jsonMediaType = contenttype.NewMediaType("application/json")
	// HTML first so wildcards and missing Accept headers get the page.
	offeredMediaTypes = []contenttype.MediaType{htmlMediaType, jsonMediaType}
)

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	state := formstate.New(s.action.Form())
	state.SetClientValidation(parseSwitch(r.URL.Query().Get(clientValidationParam), s.cfg.Page.ClientValidation))
	s.renderState(w, r, state, http.StatusOK)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.logger.WarnContext(r.Context(), "parse form", slog.String("error", err.Error()))
		s.respond(w, r, nil, action.UnknownFailure(action.GenericMessage), http.StatusBadRequest)
		return
	}

	result := s.action.Submit(r.Context(), action.Request{
		Values:  r.PostForm,
		Header:  r.Header,
		Cookies: r.Cookies(),
	})
	s.respond(w, r, r.PostForm, result, result.StatusCode())
}

// respond answers with JSON for the browser runtime and API callers, and
// with the re-rendered page for plain form posts.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, values url.Values, result action.Result, status int) {
	if wantsJSON(r) {
		var buf bytes.Buffer
		if err := action.EncodeResult(&buf, result); err != nil {
			s.logger.ErrorContext(r.Context(), "encode result", slog.String("error", err.Error()))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(buf.Bytes())
		return
	}

	state := formstate.New(s.action.Form())
	state.SetClientValidation(parseSwitch(values.Get(render.ClientValidationField), s.cfg.Page.ClientValidation))
	for _, name := range state.Form().FieldNames() {
		_ = state.SetField(name, values.Get(name))
	}
	state.Begin()
	state.Apply(result)
	s.renderState(w, r, state, status)
}

func (s *Server) renderState(w http.ResponseWriter, r *http.Request, state *formstate.State, status int) {
	data := state.PageData()
	data.Variant = s.variant(r)
	if data.Variant != "" {
		data.Hidden = render.MergeHiddenFields(data.Hidden, render.Hidden(variantField, data.Variant))
	}
	data.ToggleURL = toggleURL(data.Variant, s.cfg.Page.ThemeVariant, data.ClientValidation)

	var buf bytes.Buffer
	if _, err := s.page.Render(r.Context(), data, &buf); err != nil {
		s.logger.ErrorContext(r.Context(), "render page", slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", s.page.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openapi.DocumentBytes())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// variant reads the query on page loads and the hidden field on form posts.
func (s *Server) variant(r *http.Request) string {
	v := r.URL.Query().Get(variantParam)
	if v == "" && r.PostForm != nil {
		v = r.PostForm.Get(variantField)
	}
	if v != "" && s.page.Theme().HasVariant(v) {
		return v
	}
	return s.cfg.Page.ThemeVariant
}

func wantsJSON(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == client.RequestedWith {
		return true
	}
	accepted, _, err := contenttype.GetAcceptableMediaType(r, offeredMediaTypes)
	if err != nil {
		return false
	}
	return accepted.Type == jsonMediaType.Type && accepted.Subtype == jsonMediaType.Subtype
}

func parseSwitch(raw string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes":
		return true
	case "off", "false", "0", "no":
		return false
	default:
		return fallback
	}
}

// toggleURL links to the page with client validation flipped, for browsers
// without JavaScript.
func toggleURL(variant, defaultVariant string, enabled bool) string {
	query := url.Values{}
	if variant != "" && variant != defaultVariant {
		query.Set(variantParam, variant)
	}
	if enabled {
		query.Set(clientValidationParam, "off")
	} else {
		query.Set(clientValidationParam, "on")
	}
	return "/?" + query.Encode()
}
