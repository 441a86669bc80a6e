// Package formstate tracks what the profile form shows between submissions:
// the current values, field errors, the banner, the last success timestamp
// and whether a submission is in flight.
//
// A State is shared by every client of the form (the browser page rendered
// by the server, the Go client, the terminal prompts) so the result of a
// submission is applied the same way everywhere.
package formstate
