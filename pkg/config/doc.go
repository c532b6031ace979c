// Package config loads trackd configuration from defaults, an optional
// YAML file, and TRACKD_* environment overrides, in that order.
package config
