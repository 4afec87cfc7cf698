// Package settings holds the run configuration shared by every stage: the
// Global Context (overall input and output directories) and a per-stage bag of
// free-form key/value settings.
//
// A single Store is created at startup and passed by reference to the
// components that need it. Bags are created lazily on first access and never
// validate key names; command construction ignores keys it does not know.
// Project documents persist a Store together with the ordered list of staged
// stage names in TOML, YAML, or JSON.
package settings
