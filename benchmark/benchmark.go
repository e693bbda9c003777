// Package benchmark - Latency and throughput measurements of the detection pipeline.
package benchmark

import (
	"context"
	"image"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/models/postprocess"
	"github.com/nvr-ai/go-detect/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
	"gopkg.in/yaml.v3"
)

// Predictor is the pipeline under test. *detector.Detector satisfies it.
type Predictor interface {
	Predict(ctx context.Context, im gocv.Mat) ([]postprocess.Result, error)
}

// Scenario is one benchmark configuration.
type Scenario struct {
	Name string `yaml:"name" json:"name"`
	// Resolution is a camera resolution alias ("720p") or "WIDTHxHEIGHT". Frames are resized to it.
	Resolution string `yaml:"resolution" json:"resolution"`
	Iterations int    `yaml:"iterations" json:"iterations"`
	WarmupRuns int    `yaml:"warmup_runs" json:"warmup_runs"`
}

// ScenarioSet is a named list of scenarios, as stored in a scenario file.
type ScenarioSet struct {
	Name      string     `yaml:"name"`
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadScenarioSet reads a YAML scenario file.
func LoadScenarioSet(path string) (*ScenarioSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read scenario file %s", path)
	}
	var set ScenarioSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, errors.Wrapf(err, "parse scenario file %s", path)
	}
	if len(set.Scenarios) == 0 {
		return nil, errors.Errorf("scenario file %s has no scenarios", path)
	}
	return &set, nil
}

// QuickScenarios returns a short run over the common camera resolutions.
func QuickScenarios() []Scenario {
	var scenarios []Scenario
	for _, alias := range []string{"vga", "720p", "1080p"} {
		scenarios = append(scenarios, Scenario{Name: "quick-" + alias, Resolution: alias, Iterations: 20, WarmupRuns: 3})
	}
	return scenarios
}

// MemoryMetrics captures memory usage during a scenario.
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
	NumGC           uint32 `json:"num_gc"`
}

// Result holds the measurements of one scenario.
type Result struct {
	Scenario   Scenario          `json:"scenario"`
	Resolution images.Resolution `json:"resolution"`
	Timestamp  time.Time         `json:"timestamp"`
	Iterations int               `json:"iterations"`
	Errors     int               `json:"errors"`
	Detections int               `json:"detections"`
	Total      time.Duration     `json:"total"`
	Mean       time.Duration     `json:"mean"`
	P50        time.Duration     `json:"p50"`
	P95        time.Duration     `json:"p95"`
	Max        time.Duration     `json:"max"`
	FPS        float64           `json:"fps"`
	Memory     MemoryMetrics     `json:"memory"`
}

// ErrorRate returns the share of iterations that failed.
func (r Result) ErrorRate() float64 {
	if r.Iterations == 0 {
		return 0
	}
	return float64(r.Errors) / float64(r.Iterations)
}

// Suite runs scenarios against a predictor over a fixed set of source frames.
type Suite struct {
	predictor Predictor
	logger    logrus.FieldLogger

	mu      sync.Mutex
	sources []gocv.Mat
	results []Result
}

// NewSuite creates a suite for p. A nil logger selects the logrus standard logger.
func NewSuite(p Predictor, logger logrus.FieldLogger) *Suite {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Suite{predictor: p, logger: logger}
}

// AddFrame adds a copy of a BGR frame to the source set.
func (s *Suite) AddFrame(frame gocv.Mat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, frame.Clone())
}

// LoadImages decodes every image in dir into the source set.
func (s *Suite) LoadImages(dir string) error {
	files, err := util.ListImageFiles(dir)
	if err != nil {
		return err
	}
	for _, f := range files {
		mat, err := images.Load(f.Path)
		if err != nil {
			return err
		}
		s.AddFrame(mat)
		mat.Close()
	}
	if len(files) == 0 {
		return errors.Errorf("no images found in %s", dir)
	}
	return nil
}

// Results returns the results of every scenario run so far.
func (s *Suite) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out
}

// Close releases the source frames.
func (s *Suite) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.sources {
		m.Close()
	}
	s.sources = nil
}

// CapScenarios lowers every scenario resolution that exceeds the largest source frame to the
// highest camera resolution the frames cover, so frames are never upscaled. Scenarios with an
// unparsable resolution, or with no camera resolution small enough, are returned unchanged.
func (s *Suite) CapScenarios(scenarios []Scenario) []Scenario {
	s.mu.Lock()
	var width, height int
	for _, src := range s.sources {
		width = max(width, src.Cols())
		height = max(height, src.Rows())
	}
	s.mu.Unlock()

	out := make([]Scenario, len(scenarios))
	copy(out, scenarios)
	if width == 0 || height == 0 {
		return out
	}

	limit, ok := images.HighestResolutionWithin(width, height)
	if !ok {
		return out
	}
	for i, sc := range out {
		res, err := images.ParseResolution(sc.Resolution)
		if err != nil || (res.Pixels.Width <= width && res.Pixels.Height <= height) {
			continue
		}
		s.logger.WithFields(logrus.Fields{
			"scenario": sc.Name,
			"from":     res.String(),
			"to":       limit.String(),
		}).Info("resolution capped at source frame size")
		out[i].Resolution = limit.Alias
	}
	return out
}

// RunScenario executes one scenario.
//
// Source frames are resized to the scenario resolution once, outside the timed section. Warmup
// runs are not measured and their errors are ignored.
//
// Arguments:
//   - ctx: Passed to every prediction. Cancellation stops the run.
//   - sc: The scenario.
//
// Returns:
//   - Result: The measurements.
//   - error: An error if the scenario is invalid, there are no source frames, or ctx is done.
func (s *Suite) RunScenario(ctx context.Context, sc Scenario) (Result, error) {
	if sc.Iterations <= 0 {
		return Result{}, errors.Errorf("scenario %s: iterations must be positive", sc.Name)
	}
	res, err := images.ParseResolution(sc.Resolution)
	if err != nil {
		return Result{}, errors.Wrapf(err, "scenario %s", sc.Name)
	}

	frames, err := s.framesAt(res)
	if err != nil {
		return Result{}, errors.Wrapf(err, "scenario %s", sc.Name)
	}
	defer func() {
		for _, f := range frames {
			f.Close()
		}
	}()

	for i := 0; i < sc.WarmupRuns; i++ {
		_, _ = s.predictor.Predict(ctx, frames[i%len(frames)])
	}

	var startMem runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&startMem)

	result := Result{Scenario: sc, Resolution: res, Timestamp: time.Now(), Iterations: sc.Iterations}
	latencies := make([]time.Duration, 0, sc.Iterations)
	start := time.Now()
	for i := 0; i < sc.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		t := time.Now()
		detections, err := s.predictor.Predict(ctx, frames[i%len(frames)])
		latencies = append(latencies, time.Since(t))
		if err != nil {
			result.Errors++
			continue
		}
		result.Detections += len(detections)
	}
	result.Total = time.Since(start)

	var endMem runtime.MemStats
	runtime.ReadMemStats(&endMem)
	result.Memory = MemoryMetrics{
		AllocBytes:      endMem.Alloc,
		TotalAllocBytes: endMem.TotalAlloc - startMem.TotalAlloc,
		HeapAllocBytes:  endMem.HeapAlloc,
		NumGC:           endMem.NumGC - startMem.NumGC,
	}

	summarize(&result, latencies)

	s.logger.WithFields(logrus.Fields{
		"scenario":   sc.Name,
		"resolution": res.String(),
		"fps":        result.FPS,
		"p95":        result.P95,
		"errors":     result.Errors,
	}).Info("scenario complete")

	s.mu.Lock()
	s.results = append(s.results, result)
	s.mu.Unlock()
	return result, nil
}

// RunAll executes scenarios in order. A failing scenario is logged and skipped.
func (s *Suite) RunAll(ctx context.Context, scenarios []Scenario) []Result {
	var out []Result
	for _, sc := range scenarios {
		r, err := s.RunScenario(ctx, sc)
		if err != nil {
			s.logger.WithError(err).WithField("scenario", sc.Name).Warn("scenario failed")
			if ctx.Err() != nil {
				break
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *Suite) framesAt(res images.Resolution) ([]gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sources) == 0 {
		return nil, errors.New("no source frames")
	}

	size := image.Pt(res.Pixels.Width, res.Pixels.Height)
	frames := make([]gocv.Mat, len(s.sources))
	for i, src := range s.sources {
		frames[i] = gocv.NewMat()
		if src.Cols() == size.X && src.Rows() == size.Y {
			src.CopyTo(&frames[i])
			continue
		}
		gocv.Resize(src, &frames[i], size, 0, 0, gocv.InterpolationArea)
	}
	return frames, nil
}

func summarize(r *Result, latencies []time.Duration) {
	if len(latencies) == 0 {
		return
	}
	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, l := range sorted {
		sum += l
	}
	r.Mean = sum / time.Duration(len(sorted))
	r.P50 = percentile(sorted, 50)
	r.P95 = percentile(sorted, 95)
	r.Max = sorted[len(sorted)-1]
	if r.Total > 0 {
		r.FPS = float64(r.Iterations) / r.Total.Seconds()
	}
}

// percentile returns the nearest-rank percentile of sorted latencies.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
