// Package source provides rule sources for the engine: loading rule
// documents from YAML files on disk or from memory, and watching the
// filesystem for hot reload.
package source
