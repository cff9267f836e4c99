// Package config provides application configuration loaded from environment
// variables (prefix PULSE) merged with an optional YAML file. Environment
// values take precedence over file values; defaults cover local development.
package config
