// Package metrics defines trackd's Prometheus collectors. Metrics are
// registered at init and exposed via Handler when the watch command is
// started with a metrics address.
package metrics
