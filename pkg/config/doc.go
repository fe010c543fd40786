// Package config provides YAML configuration loading for the apcore
// runtime: engine timing, rule sources, event log backends, retention,
// and telemetry. Loading applies defaults, then optional environment
// overrides, then validation.
package config
