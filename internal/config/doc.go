// Package config provides the configuration of a map run: the CLI options,
// the optional .aimap.yaml file and its lookup, and validation.
package config
