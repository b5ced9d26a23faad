// Package config loads and validates the queue runtime configuration.
//
// Resolution order: built-in defaults, then an optional JSON or YAML file,
// then WPQ_* environment variables. A file that explicitly sets a field to
// its zero value (for example timeLimitSeconds: 0) keeps that value; only
// absent fields fall back to defaults.
package config
