// Package validation evaluates form model rules against submitted values.
//
// Rules are compiled into go-playground/validator tag expressions and
// evaluated one by one so every failing rule contributes a message. The same
// compiled rules back HTMLAttributes, which the page renderer uses for
// in-browser validation.
package validation
