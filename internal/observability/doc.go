// Package observability provides structured logging and Prometheus metrics
// for the credits tooling.
//
// Loggers travel through context.Context (zerolog.Ctx); services that find
// no logger in their context log nothing. Metrics live on a private registry
// so that short-lived CLI runs can dump them to a node-exporter textfile.
package observability
