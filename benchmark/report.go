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
)

var csvHeader = []string{
	"scenario", "resolution", "width", "height", "iterations", "fps",
	"mean_ms", "p50_ms", "p95_ms", "max_ms", "detections", "error_rate", "alloc_mb",
}

// SaveResults writes the results as a JSON document and a CSV summary into dir.
//
// Arguments:
//   - dir: The output directory. It is created when missing.
//   - results: The scenario results.
//
// Returns:
//   - string: The JSON file path.
//   - string: The CSV file path.
//   - error: An error if a file cannot be written.
func SaveResults(dir string, results []Result) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", errors.Wrap(err, "create output directory")
	}

	stamp := time.Now().Format("2006-01-02_15-04-05")
	jsonPath := filepath.Join(dir, fmt.Sprintf("benchmark_results_%s.json", stamp))
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", "", errors.Wrap(err, "marshal results")
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return "", "", errors.Wrap(err, "write results")
	}

	csvPath := filepath.Join(dir, fmt.Sprintf("benchmark_summary_%s.csv", stamp))
	if err := writeCSV(csvPath, results); err != nil {
		return "", "", errors.Wrap(err, "write summary")
	}
	return jsonPath, csvPath, nil
}

func writeCSV(path string, results []Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		if err := w.Write(csvRow(r)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func csvRow(r Result) []string {
	ms := func(d time.Duration) string { return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64) }
	return []string{
		r.Scenario.Name,
		r.Resolution.Name,
		strconv.Itoa(r.Resolution.Pixels.Width),
		strconv.Itoa(r.Resolution.Pixels.Height),
		strconv.Itoa(r.Iterations),
		strconv.FormatFloat(r.FPS, 'f', 2, 64),
		ms(r.Mean),
		ms(r.P50),
		ms(r.P95),
		ms(r.Max),
		strconv.Itoa(r.Detections),
		strconv.FormatFloat(r.ErrorRate(), 'f', 4, 64),
		strconv.FormatFloat(float64(r.Memory.AllocBytes)/(1024*1024), 'f', 2, 64),
	}
}
