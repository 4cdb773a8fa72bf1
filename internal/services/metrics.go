package services

import "github.com/prometheus/client_golang/prometheus"

// Ingestion outcomes recorded in ingest_requests_total.
const (
	outcomeOK          = "ok"
	outcomeFetchFailed = "fetch_failed"
	outcomeStoreFailed = "storage_failed"
	outcomeParseFailed = "parse_failed"
)

var (
	// ingestTotal counts pipeline runs by terminal outcome.
	ingestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_requests_total",
			Help: "Ingestion pipeline runs by outcome.",
		},
		[]string{"outcome"},
	)

	// ingestAssetBytes records downloaded asset sizes by kind (video|thumbnail).
	ingestAssetBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_asset_bytes",
			Help:    "Size of downloaded assets in bytes.",
			Buckets: prometheus.ExponentialBuckets(16<<10, 4, 9), // 16KiB..1GiB
		},
		[]string{"kind"},
	)

	// feedItems records how many items each feed render contained.
	feedItems = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_items_rendered",
			Help:    "Number of items in each rendered feed document.",
			Buckets: []float64{0, 1, 5, 10, 15, 20},
		},
	)
)

func init() {
	prometheus.MustRegister(ingestTotal, ingestAssetBytes, feedItems)
}
