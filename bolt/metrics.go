package bolt

import (
	"github.com/prometheus/client_golang/prometheus"
	bolt "go.etcd.io/bbolt"
)

var _ prometheus.Collector = (*Adapter)(nil)

var (
	writesDesc = prometheus.NewDesc(
		"boltdb_writes_total",
		"Total number of boltdb writes",
		nil, nil)

	readsDesc = prometheus.NewDesc(
		"boltdb_reads_total",
		"Total number of boltdb reads",
		nil, nil)

	itemsDesc = prometheus.NewDesc(
		"stash_items",
		"Number of items stored in the bucket",
		[]string{"bucket"}, nil)
)

// Describe returns all descriptions of the collector.
func (a *Adapter) Describe(ch chan<- *prometheus.Desc) {
	ch <- writesDesc
	ch <- readsDesc
	ch <- itemsDesc
}

// Collect returns the current state of all metrics of the collector.
func (a *Adapter) Collect(ch chan<- prometheus.Metric) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.db == nil {
		return
	}

	stats := a.db.Stats()
	ch <- prometheus.MustNewConstMetric(
		readsDesc,
		prometheus.CounterValue,
		float64(stats.TxN),
	)
	ch <- prometheus.MustNewConstMetric(
		writesDesc,
		prometheus.CounterValue,
		float64(stats.TxStats.Write),
	)

	_ = a.db.View(func(tx *bolt.Tx) error {
		var n int
		if b := tx.Bucket(a.bucket); b != nil {
			n = b.Stats().KeyN
		}
		ch <- prometheus.MustNewConstMetric(
			itemsDesc,
			prometheus.GaugeValue,
			float64(n),
			a.config.Bucket,
		)
		return nil
	})
}
