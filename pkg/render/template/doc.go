// Package template defines the template renderer contract used by the page
// renderer. The pongo2-backed implementation lives in the gotemplate
// subpackage.
package template
