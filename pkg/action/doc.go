// Package action implements the server action behind the profile form.
//
// A submission is decoded, sanitized, checked by guards, validated against
// the form model and stored. The outcome is a Result that is either a
// success or one of four tagged failures (validation, database, permission,
// unknown). Internally failures are jmgilman/go/errors PlatformErrors and
// Classify maps their codes onto the taxonomy.
package action
