// Package config handles configuration loading, parsing, and validation
// from various sources (defaults, an optional YAML file, environment
// variables prefixed with SCRY_). It provides type-safe access to the server,
// database, auth, scheduler and catalog settings.
package config
