package render

import (
	"fmt"
	"path"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Theme variants shipped with the default manifest.
const (
	ThemeName         = "profileform"
	VariantLight      = "light"
	VariantDark       = "dark"
	PartialPage       = "page"
	stylesheetAssetID = "stylesheet"
	scriptAssetID     = "script"
)

// DefaultThemeManifest describes the built-in look of the page. Tokens become
// CSS custom properties.
func DefaultThemeManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    ThemeName,
		Version: "1.0.0",
		Tokens: map[string]string{
			"pf-bg":           "#f8fafc",
			"pf-surface":      "#ffffff",
			"pf-text":         "#0f172a",
			"pf-muted":        "#475569",
			"pf-border":       "#cbd5e1",
			"pf-accent":       "#2563eb",
			"pf-danger":       "#b91c1c",
			"pf-danger-bg":    "#fef2f2",
			"pf-success":      "#15803d",
			"pf-success-bg":   "#f0fdf4",
			"pf-radius":       "0.5rem",
			"pf-font-family":  "system-ui, sans-serif",
			"pf-field-gap":    "1.25rem",
			"pf-focus-ring":   "0 0 0 3px rgba(37, 99, 235, 0.35)",
			"pf-content-size": "36rem",
		},
		Templates: map[string]string{
			PartialPage: "page.tpl",
		},
		Assets: theme.Assets{
			Prefix: "/assets",
			Files: map[string]string{
				stylesheetAssetID: "profileform.css",
				scriptAssetID:     "profileform.js",
			},
		},
		Variants: map[string]theme.Variant{
			VariantDark: {
				Tokens: map[string]string{
					"pf-bg":         "#0f172a",
					"pf-surface":    "#1e293b",
					"pf-text":       "#e2e8f0",
					"pf-muted":      "#94a3b8",
					"pf-border":     "#334155",
					"pf-accent":     "#60a5fa",
					"pf-danger":     "#fca5a5",
					"pf-danger-bg":  "#450a0a",
					"pf-success":    "#86efac",
					"pf-success-bg": "#052e16",
				},
			},
		},
	}
}

// Theme resolves a manifest and its variants into renderer configuration.
type Theme struct {
	manifest *theme.Manifest
}

// NewTheme validates manifest by registering it with a go-theme registry.
// A nil manifest selects DefaultThemeManifest.
func NewTheme(manifest *theme.Manifest) (*Theme, error) {
	if manifest == nil {
		manifest = DefaultThemeManifest()
	}
	registry := theme.NewRegistry()
	if err := registry.Register(manifest); err != nil {
		return nil, fmt.Errorf("render: register theme %q: %w", manifest.Name, err)
	}
	return &Theme{manifest: manifest}, nil
}

// Variants lists the selectable variants, the base variant first.
func (t *Theme) Variants() []string {
	out := []string{VariantLight}
	var rest []string
	for name := range t.manifest.Variants {
		if name != VariantLight {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// HasVariant reports whether variant can be selected. The empty string
// selects the base tokens.
func (t *Theme) HasVariant(variant string) bool {
	if variant == "" || variant == VariantLight {
		return true
	}
	_, ok := t.manifest.Variants[variant]
	return ok
}

// Config merges the base manifest with variant overrides.
func (t *Theme) Config(variant string) (*theme.RendererConfig, error) {
	if !t.HasVariant(variant) {
		return nil, fmt.Errorf("render: theme %q has no variant %q", t.manifest.Name, variant)
	}
	if variant == "" {
		variant = VariantLight
	}

	tokens := copyStrings(t.manifest.Tokens)
	partials := copyStrings(t.manifest.Templates)
	assets := copyStrings(t.manifest.Assets.Files)
	prefix := t.manifest.Assets.Prefix

	if v, ok := t.manifest.Variants[variant]; ok {
		tokens = mergeStrings(tokens, v.Tokens)
		partials = mergeStrings(partials, v.Templates)
		assets = mergeStrings(assets, v.Assets.Files)
		if v.Assets.Prefix != "" {
			prefix = v.Assets.Prefix
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		cssVars["--"+strings.TrimPrefix(key, "--")] = value
	}

	return &theme.RendererConfig{
		Theme:    t.manifest.Name,
		Variant:  variant,
		Tokens:   tokens,
		CSSVars:  cssVars,
		Partials: partials,
		AssetURL: func(key string) string {
			file, ok := assets[key]
			if !ok || file == "" {
				return ""
			}
			if strings.Contains(file, "://") || strings.HasPrefix(file, "/") {
				return file
			}
			return path.Join("/", prefix, file)
		},
	}, nil
}

// CSSVarsStyle renders custom properties as a sorted declaration list.
func CSSVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s: %s;", key, sanitizeCSSValue(vars[key]))
	}
	return b.String()
}

// sanitizeCSSValue drops characters that could close the declaration block.
func sanitizeCSSValue(value string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '{', '}', ';':
			return -1
		}
		return r
	}, value)
}

func copyStrings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func mergeStrings(base, overrides map[string]string) map[string]string {
	for key, value := range overrides {
		base[key] = value
	}
	return base
}
