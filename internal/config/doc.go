// Package config loads the projgen configuration file and environment
// overrides and produces the registry configuration. Missing configuration
// is not an error: the defaults serve a zero-setup workflow.
package config
