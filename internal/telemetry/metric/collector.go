package metric

import "github.com/prometheus/client_golang/prometheus"

// StoreStatsFunc reports the number of keys held and the number of keys
// removed by lazy expiry so far.
type StoreStatsFunc func() (keys int, expired uint64)

// StoreCollector reads store statistics at scrape time, so the store does
// not need to know about metrics.
type StoreCollector struct {
	stats   StoreStatsFunc
	keys    *prometheus.Desc
	expired *prometheus.Desc
}

// NewStoreCollector creates a collector over stats.
func NewStoreCollector(stats StoreStatsFunc) *StoreCollector {
	return &StoreCollector{
		stats: stats,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "keys"),
			"Keys held by the store, including expired keys not yet read.",
			nil, nil,
		),
		expired: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "expired_keys_total"),
			"Keys removed by lazy expiry.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.expired
}

// Collect implements prometheus.Collector.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	keys, expired := c.stats()
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(keys))
	ch <- prometheus.MustNewConstMetric(c.expired, prometheus.CounterValue, float64(expired))
}
