package profileform

import (
	"embed"
	"io/fs"
)

//go:embed assets/*.js assets/*.css
var embeddedAssets embed.FS

// Asset names served under the theme asset prefix.
const (
	StylesheetName    = "profileform.css"
	RuntimeScriptName = "profileform.js"
)

// AssetsFS exposes the browser runtime and stylesheet the page links to.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(profileform.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return embeddedAssets
	}
	return sub
}
