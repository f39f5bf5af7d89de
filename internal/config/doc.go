// Package config loads the optional YAML configuration file. CLI flags
// override anything set here.
package config
