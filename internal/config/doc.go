// Package config loads the service configuration from defaults, an optional
// config.yaml and SCRY_-prefixed environment variables, and validates it.
package config
