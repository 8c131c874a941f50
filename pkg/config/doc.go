// Package config loads guacadm configuration from a YAML file with
// environment variable overrides.
package config
