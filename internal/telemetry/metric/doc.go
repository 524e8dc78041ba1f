// Package metric provides Prometheus metrics for respkv.
//
//   - prometheus.go: the metrics registry and the /metrics handler
//   - collector.go: a collector that reads store statistics at scrape time
//
// Metrics include command counts and latencies, connection gauges,
// protocol error counters and key counts. The registry is private to the
// process; nothing is registered with the Prometheus default registry.
package metric
