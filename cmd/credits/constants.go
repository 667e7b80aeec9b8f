package main

// Default limits for CLI commands.
const (
	DefaultSearchLimit = 20
	DefaultListLimit   = 50
	DefaultExportLimit = 0
)

// metricsNamespace prefixes every exported metric name.
const metricsNamespace = "credits"

// Valid export formats.
var validFormats = []string{"json", "csv"}

// Valid --kind values.
var validKinds = []string{"any", "person", "group"}
