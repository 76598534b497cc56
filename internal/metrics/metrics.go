package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Index cache metrics
	indexOpensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frameforge_index_opens_total",
		Help: "Index cache resolutions by backend, role and outcome",
	}, []string{"backend", "role", "outcome"})

	indexRebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frameforge_index_rebuilds_total",
		Help: "Index caches deleted and rebuilt after a backend mismatch",
	}, []string{"backend", "role"})

	indexScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "frameforge_index_scan_duration_seconds",
		Help:    "Duration of full container scans",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17m
	}, []string{"backend"})

	indexedFrames = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "frameforge_indexed_frames",
		Help: "Frame count of the opened index",
	}, []string{"role"})

	// Picture type probing
	pictureTypeProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frameforge_picture_type_probes_total",
		Help: "Picture type lookups that reached the index",
	}, []string{"role"})

	pictureTypeCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frameforge_picture_type_cache_hits_total",
		Help: "Picture type lookups answered from the per-run cache",
	}, []string{"role"})

	// Selection
	deinterlaceDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frameforge_deinterlace_decisions_total",
		Help: "Normalization decisions by action",
	}, []string{"action"})

	snapDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "frameforge_b_frame_snap_distance_frames",
		Help:    "Frames skipped forward to reach a B picture",
		Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1 to 128 frames
	})

	corruptEncodesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frameforge_corrupt_encodes_total",
		Help: "Runs that exhausted the encode without finding a B picture",
	})

	// Pipeline
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "frameforge_stage_duration_seconds",
		Help:    "Duration of each pipeline stage",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4m
	}, []string{"stage"})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "frameforge_runs_total",
		Help: "Pipeline runs by result",
	}, []string{"result"})
)

// RecordIndexOpen records one index cache resolution.
func RecordIndexOpen(backend, role, outcome string) {
	indexOpensTotal.WithLabelValues(backend, role, outcome).Inc()
}

// RecordIndexRebuild records a delete-and-rebuild after a mismatch.
func RecordIndexRebuild(backend, role string) {
	indexRebuildsTotal.WithLabelValues(backend, role).Inc()
}

// ObserveIndexScan records the duration of a full container scan.
func ObserveIndexScan(backend string, d time.Duration) {
	indexScanDuration.WithLabelValues(backend).Observe(d.Seconds())
}

// SetIndexedFrames records the frame count of an opened index.
func SetIndexedFrames(role string, frames int) {
	indexedFrames.WithLabelValues(role).Set(float64(frames))
}

// RecordPictureTypeProbe records a picture type lookup.
func RecordPictureTypeProbe(role string, cached bool) {
	if cached {
		pictureTypeCacheHitsTotal.WithLabelValues(role).Inc()
		return
	}
	pictureTypeProbesTotal.WithLabelValues(role).Inc()
}

// RecordDeinterlaceDecision records a normalization action.
func RecordDeinterlaceDecision(action string) {
	deinterlaceDecisionsTotal.WithLabelValues(action).Inc()
}

// ObserveSnapDistance records how far a candidate moved to reach a B picture.
func ObserveSnapDistance(frames int) {
	snapDistance.Observe(float64(frames))
}

// RecordCorruptEncode records a run that failed the B picture scan.
func RecordCorruptEncode() {
	corruptEncodesTotal.Inc()
}

// ObserveStage records the duration of a pipeline stage.
func ObserveStage(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRun records the result of a pipeline run.
func RecordRun(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	runsTotal.WithLabelValues(result).Inc()
}

// WriteTextfile writes all registered metrics in the text exposition
// format, for pickup by the node_exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
