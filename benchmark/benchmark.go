// Package benchmark - Measures end-to-end inference latency over a set of photos.
package benchmark

import (
	"context"
	"image"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/fishcareyolo/mina/diagnosis"
	"github.com/fishcareyolo/mina/logging"
)

// ErrNoPhotos is returned when a scenario runs before any photo is loaded.
var ErrNoPhotos = errors.New("no photos loaded")

// Predictor is the part of inference.Engine the benchmark drives.
type Predictor interface {
	Predict(ctx context.Context, img image.Image) (diagnosis.InferenceResult, error)
}

// Scenario is one benchmark configuration.
type Scenario struct {
	Name string `json:"name"`
	// Timed runs; photos are used round-robin.
	Iterations int `json:"iterations"`
	// Untimed runs before measuring.
	WarmupRuns int `json:"warmup_runs"`
}

// PerformanceMetrics captures the outcome of one scenario.
type PerformanceMetrics struct {
	Scenario        Scenario      `json:"scenario"`
	Timestamp       time.Time     `json:"timestamp"`
	TotalDuration   time.Duration `json:"total_duration"`
	MeanLatency     time.Duration `json:"mean_latency"`
	P50Latency      time.Duration `json:"p50_latency"`
	P95Latency      time.Duration `json:"p95_latency"`
	MaxLatency      time.Duration `json:"max_latency"`
	FramesPerSecond float64       `json:"frames_per_second"`
	MemoryStats     MemoryMetrics `json:"memory_stats"`
	DetectionCount  int           `json:"detection_count"`
	ErrorRate       float64       `json:"error_rate"`
}

// MemoryMetrics captures memory usage statistics
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
}

// Suite runs scenarios against one predictor.
type Suite struct {
	predictor Predictor
	logger    *zap.SugaredLogger
	mu        sync.RWMutex
	photos    []Photo
	results   []PerformanceMetrics
}

// NewSuite creates a benchmark suite.
func NewSuite(predictor Predictor, logger *zap.SugaredLogger) *Suite {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Suite{predictor: predictor, logger: logger}
}

// AddPhotos appends photos to the corpus.
func (s *Suite) AddPhotos(photos ...Photo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos = append(s.photos, photos...)
}

// Run executes one scenario and records its metrics.
//
// A failed prediction counts toward ErrorRate and the run continues; a
// cancelled context stops it.
func (s *Suite) Run(ctx context.Context, scenario Scenario) (*PerformanceMetrics, error) {
	s.mu.RLock()
	photos := slices.Clone(s.photos)
	s.mu.RUnlock()

	if len(photos) == 0 {
		return nil, ErrNoPhotos
	}
	if scenario.Iterations <= 0 {
		return nil, errors.Errorf("scenario %q needs at least one iteration", scenario.Name)
	}

	for i := 0; i < scenario.WarmupRuns; i++ {
		if _, err := s.predictor.Predict(ctx, photos[i%len(photos)].Image); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Debugw("warmup run failed", "scenario", scenario.Name, "error", err)
		}
	}

	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	var (
		latencies  = make([]time.Duration, 0, scenario.Iterations)
		detections int
		failures   int
	)
	start := time.Now()
	for i := 0; i < scenario.Iterations; i++ {
		photo := photos[i%len(photos)]

		runStart := time.Now()
		result, err := s.predictor.Predict(ctx, photo.Image)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures++
			s.logger.Warnw("prediction failed", "scenario", scenario.Name, "photo", photo.Path, "error", err)
			continue
		}
		latencies = append(latencies, time.Since(runStart))
		detections += len(result.Detections)
	}
	total := time.Since(start)

	var endMem runtime.MemStats
	runtime.ReadMemStats(&endMem)

	metrics := PerformanceMetrics{
		Scenario:        scenario,
		Timestamp:       start,
		TotalDuration:   total,
		FramesPerSecond: float64(len(latencies)) / total.Seconds(),
		DetectionCount:  detections,
		ErrorRate:       float64(failures) / float64(scenario.Iterations),
		MemoryStats: MemoryMetrics{
			AllocBytes:      endMem.Alloc,
			TotalAllocBytes: endMem.TotalAlloc - startMem.TotalAlloc,
			SysBytes:        endMem.Sys,
			NumGC:           endMem.NumGC - startMem.NumGC,
			HeapAllocBytes:  endMem.HeapAlloc,
		},
	}
	if len(latencies) > 0 {
		slices.Sort(latencies)
		metrics.MeanLatency = lo.Sum(latencies) / time.Duration(len(latencies))
		metrics.P50Latency = percentile(latencies, 0.50)
		metrics.P95Latency = percentile(latencies, 0.95)
		metrics.MaxLatency = latencies[len(latencies)-1]
	}

	s.mu.Lock()
	s.results = append(s.results, metrics)
	s.mu.Unlock()

	s.logger.Infow("scenario complete",
		"scenario", scenario.Name,
		"fps", metrics.FramesPerSecond,
		"p95", metrics.P95Latency,
		"errorRate", metrics.ErrorRate,
	)
	return &metrics, nil
}

// Results returns copies of every recorded result.
func (s *Suite) Results() []PerformanceMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.results)
}

// percentile picks the nearest-rank value from sorted latencies.
func percentile(sorted []time.Duration, p float64) time.Duration {
	rank := int(p*float64(len(sorted))+0.999999) - 1
	return sorted[max(0, min(rank, len(sorted)-1))]
}
