// Package observability provides structured logging with credential
// scrubbing and Prometheus metrics for administration operations.
package observability
