// Package errdefs classifies publish failures. An InputError is rendered by
// the pipeline as a user-actionable message quoting the offending host, path
// or project; every other error surfaces as a generic step failure.
package errdefs
