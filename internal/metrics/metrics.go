package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ingestionMetrics holds Prometheus metrics for the ingestion and RAG
// subsystems. Registration is lazy so tests importing this package do not
// pollute the default registry until a metric is actually recorded.
type ingestionMetrics struct {
	once sync.Once

	commitsIngested  prometheus.Counter
	commitsSkipped   prometheus.Counter
	summariesFailed  prometheus.Counter
	filesEmbedded    prometheus.Counter
	filesSkipped     prometheus.Counter
	ragQueries       prometheus.Counter
	ragStreamErrors  prometheus.Counter
	commitDuration   prometheus.Histogram
	snapshotDuration prometheus.Histogram
}

var m ingestionMetrics

func (im *ingestionMetrics) init() {
	im.once.Do(func() {
		im.commitsIngested = prometheus.NewCounter(prometheus.CounterOpts{Name: "codojo_commits_ingested_total", Help: "Commit records persisted"})
		im.commitsSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "codojo_commits_skipped_total", Help: "Commits skipped as already processed"})
		im.summariesFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "codojo_summaries_failed_total", Help: "Summaries replaced with the failure sentinel"})
		im.filesEmbedded = prometheus.NewCounter(prometheus.CounterOpts{Name: "codojo_files_embedded_total", Help: "Source files embedded and persisted"})
		im.filesSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "codojo_files_skipped_total", Help: "Source files skipped after a summary or embed failure"})
		im.ragQueries = prometheus.NewCounter(prometheus.CounterOpts{Name: "codojo_rag_queries_total", Help: "RAG questions answered"})
		im.ragStreamErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "codojo_rag_stream_errors_total", Help: "Answer streams terminated by an error"})

		buckets := []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}
		im.commitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "codojo_commit_ingestion_seconds", Help: "Duration of one commit ingestion run", Buckets: buckets})
		im.snapshotDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "codojo_snapshot_indexing_seconds", Help: "Duration of one repository indexing run", Buckets: buckets})

		prometheus.MustRegister(
			im.commitsIngested, im.commitsSkipped, im.summariesFailed,
			im.filesEmbedded, im.filesSkipped,
			im.ragQueries, im.ragStreamErrors,
			im.commitDuration, im.snapshotDuration,
		)
	})
}

// Record helpers used by the pipelines.

func RecordCommitsIngested(n int) { m.init(); m.commitsIngested.Add(float64(n)) }
func RecordCommitsSkipped(n int)  { m.init(); m.commitsSkipped.Add(float64(n)) }
func RecordSummaryFailed()        { m.init(); m.summariesFailed.Inc() }
func RecordFileEmbedded()         { m.init(); m.filesEmbedded.Inc() }
func RecordFileSkipped()          { m.init(); m.filesSkipped.Inc() }
func RecordRAGQuery()             { m.init(); m.ragQueries.Inc() }
func RecordRAGStreamError()       { m.init(); m.ragStreamErrors.Inc() }

func RecordCommitIngestionDuration(d time.Duration) {
	m.init()
	m.commitDuration.Observe(d.Seconds())
}

func RecordSnapshotIndexingDuration(d time.Duration) {
	m.init()
	m.snapshotDuration.Observe(d.Seconds())
}
