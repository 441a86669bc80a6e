// Package model defines the typed form model shared by the server action, the
// page renderer and the clients. Fields are declared in the embedded OpenAPI
// document (see pkg/openapi) and converted into FormModel values; validation
// rules expose canonical identifiers (min/max, minLength/maxLength, pattern)
// with string parameters so the same constraints can be evaluated on the
// server and emitted as HTML attributes for in-browser validation.
package model
