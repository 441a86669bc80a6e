// Package openapi loads the OpenAPI document that declares the profile server
// action and converts its request body into a model.FormModel. The document is
// the single source of field order, labels and constraints: the validator and
// the page renderer both work from the form model built here.
package openapi
