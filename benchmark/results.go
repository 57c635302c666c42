package benchmark

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// SaveResults writes the results as benchmark_results_<time>.json and a
// benchmark_summary_<time>.csv next to it, and returns both paths.
func SaveResults(dir string, results []PerformanceMetrics, now time.Time) (jsonPath, csvPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", errors.Wrap(err, "failed to create output directory")
	}

	stamp := now.Format("2006-01-02_15-04-05")
	jsonPath = filepath.Join(dir, fmt.Sprintf("benchmark_results_%s.json", stamp))
	csvPath = filepath.Join(dir, fmt.Sprintf("benchmark_summary_%s.csv", stamp))

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", "", errors.Wrap(err, "failed to marshal results")
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", errors.Wrap(err, "failed to write results file")
	}
	if err := saveSummaryCSV(csvPath, results); err != nil {
		return "", "", errors.Wrap(err, "failed to save summary CSV")
	}
	return jsonPath, csvPath, nil
}

func saveSummaryCSV(path string, results []PerformanceMetrics) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, file.Close()) }()

	w := csv.NewWriter(file)
	rows := [][]string{{"scenario", "iterations", "fps", "mean_ms", "p50_ms", "p95_ms", "max_ms", "detections", "error_rate"}}
	for _, r := range results {
		rows = append(rows, []string{
			r.Scenario.Name,
			strconv.Itoa(r.Scenario.Iterations),
			strconv.FormatFloat(r.FramesPerSecond, 'f', 2, 64),
			millis(r.MeanLatency),
			millis(r.P50Latency),
			millis(r.P95Latency),
			millis(r.MaxLatency),
			strconv.Itoa(r.DetectionCount),
			strconv.FormatFloat(r.ErrorRate, 'f', 4, 64),
		})
	}
	return w.WriteAll(rows)
}

func millis(d time.Duration) string {
	return strconv.FormatFloat(float64(d.Nanoseconds())/1e6, 'f', 2, 64)
}
