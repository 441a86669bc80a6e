package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-profileform/internal/config"
	"github.com/goliatone/go-profileform/internal/devreload"
	"github.com/goliatone/go-profileform/pkg/action"
	"github.com/goliatone/go-profileform/pkg/render"
	"github.com/goliatone/go-profileform/pkg/store"
)

// Runtime is a server built from configuration together with the resources
// it owns.
type Runtime struct {
	Server *Server
	Store  store.Store
	Page   *render.Page
	// Watcher is set when template watching is enabled.
	Watcher *devreload.Watcher
}

// Close releases the store.
func (rt *Runtime) Close() error {
	if rt == nil || rt.Store == nil {
		return nil
	}
	return rt.Store.Close()
}

// FromConfig opens the store, builds the action with the configured guards
// and the page renderer, and wires them into a Server.
func FromConfig(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	st, err := store.Open(ctx, store.Config{Driver: cfg.Store.Driver, DSN: cfg.Store.DSN})
	if err != nil {
		return nil, fmt.Errorf("server: open store: %w", err)
	}

	guards := []action.Guard{action.ReadOnly(cfg.Action.ReadOnly, cfg.Action.ReadOnlyMessage)}
	if cfg.Action.JWTSecret != "" {
		guards = append(guards, action.TokenGuard(cfg.Action.JWTSecret))
	}
	act, err := action.New(st, action.WithGuards(guards...), action.WithLogger(logger))
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	pageOpts := []render.Option{render.WithLocation(cfg.Location())}
	if cfg.Page.TemplatesDir != "" {
		pageOpts = append(pageOpts, render.WithTemplatesDir(cfg.Page.TemplatesDir))
	}
	if cfg.Page.Title != "" {
		pageOpts = append(pageOpts, render.WithTitle(cfg.Page.Title))
	}
	page, err := render.NewPage(pageOpts...)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	srv, err := New(cfg, act, page, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	rt := &Runtime{Server: srv, Store: st, Page: page}
	if cfg.Page.WatchTemplates && cfg.Page.TemplatesDir != "" {
		rt.Watcher, err = devreload.New(cfg.Page.TemplatesDir, page, devreload.WithLogger(logger))
		if err != nil {
			_ = st.Close()
			return nil, err
		}
	}
	return rt, nil
}
