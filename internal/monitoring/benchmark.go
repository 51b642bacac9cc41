package monitoring

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

const (
	defaultIterations = 10
	bytesToMB         = 1024 * 1024
)

// Scenario describes one evaluation workload to benchmark.
type Scenario struct {
	Name        string
	Description string
	Rows        int
	Partitions  int
	Iterations  int
	Parallel    bool
	Op          func() error
}

// Result holds the measurements for one scenario.
type Result struct {
	Scenario        Scenario      `json:"scenario"`
	Duration        time.Duration `json:"duration"`
	AverageDuration time.Duration `json:"average_duration"`
	MinDuration     time.Duration `json:"min_duration"`
	MaxDuration     time.Duration `json:"max_duration"`
	MemoryAllocated int64         `json:"memory_allocated"`
	Allocations     int64         `json:"allocations"`
	OpsPerSec       float64       `json:"ops_per_sec"`
	Success         bool          `json:"success"`
	ErrorMessage    string        `json:"error_message,omitempty"`
}

// Suite runs a set of scenarios and renders a report.
type Suite struct {
	scenarios []Scenario
	results   []Result
}

// NewSuite creates an empty benchmark suite.
func NewSuite() *Suite {
	return &Suite{
		scenarios: make([]Scenario, 0),
		results:   make([]Result, 0),
	}
}

// Add appends a scenario to the suite.
func (s *Suite) Add(scenario Scenario) {
	s.scenarios = append(s.scenarios, scenario)
}

// AddQuick appends a scenario with default iteration count.
func (s *Suite) AddQuick(name, description string, op func() error) {
	s.Add(Scenario{
		Name:        name,
		Description: description,
		Iterations:  defaultIterations,
		Op:          op,
	})
}

// Run executes all scenarios in order and returns the results.
func (s *Suite) Run() []Result {
	s.results = make([]Result, 0, len(s.scenarios))

	for _, scenario := range s.scenarios {
		s.results = append(s.results, s.runScenario(scenario))
	}

	return s.results
}

func (s *Suite) runScenario(scenario Scenario) Result {
	if scenario.Iterations <= 0 {
		scenario.Iterations = 1
	}

	durations := make([]time.Duration, 0, scenario.Iterations)
	var totalDuration time.Duration
	var memBefore, memAfter runtime.MemStats
	success := true
	errorMessage := ""

	// GC before measuring so the allocation delta reflects the scenario.
	runtime.GC()
	runtime.ReadMemStats(&memBefore)

	for i := range scenario.Iterations {
		start := time.Now()

		if err := scenario.Op(); err != nil {
			success = false
			errorMessage = fmt.Sprintf("iteration %d failed: %v", i+1, err)
			break
		}

		duration := time.Since(start)
		durations = append(durations, duration)
		totalDuration += duration
	}

	runtime.GC()
	runtime.ReadMemStats(&memAfter)

	var avgDuration, minDuration, maxDuration time.Duration
	if len(durations) > 0 {
		avgDuration = totalDuration / time.Duration(len(durations))
		minDuration = durations[0]
		maxDuration = durations[0]

		for _, d := range durations {
			if d < minDuration {
				minDuration = d
			}
			if d > maxDuration {
				maxDuration = d
			}
		}
	}

	opsPerSec := 0.0
	if avgDuration > 0 {
		opsPerSec = 1.0 / avgDuration.Seconds()
	}

	return Result{
		Scenario:        scenario,
		Duration:        totalDuration,
		AverageDuration: avgDuration,
		MinDuration:     minDuration,
		MaxDuration:     maxDuration,
		MemoryAllocated: int64(memAfter.TotalAlloc - memBefore.TotalAlloc), //nolint:gosec // Safe memory calculation
		Allocations:     int64(memAfter.Mallocs - memBefore.Mallocs),       //nolint:gosec // Safe memory calculation
		OpsPerSec:       opsPerSec,
		Success:         success,
		ErrorMessage:    errorMessage,
	}
}

// Results returns the results of the last Run.
func (s *Suite) Results() []Result {
	return s.results
}

// Clear removes all scenarios and results.
func (s *Suite) Clear() {
	s.scenarios = s.scenarios[:0]
	s.results = s.results[:0]
}

// Report renders the last Run as a markdown report.
func (s *Suite) Report() string {
	if len(s.results) == 0 {
		return "# Evaluation Benchmark Report\n\nNo benchmark results available.\n"
	}

	var report strings.Builder

	report.WriteString("# Evaluation Benchmark Report\n\n")
	fmt.Fprintf(&report, "Generated: %s\n\n", time.Now().Format(time.RFC3339))

	s.writeSummaryTable(&report)
	s.writeComparison(&report)

	return report.String()
}

func (s *Suite) writeSummaryTable(report *strings.Builder) {
	report.WriteString("## Summary\n\n")
	report.WriteString("| Scenario | Rows | Partitions | Iterations | Avg Duration | Ops/Sec | Memory (MB) | Status |\n")
	report.WriteString("|----------|------|------------|------------|--------------|---------|-------------|--------|\n")

	for _, result := range s.results {
		status := "ok"
		if !result.Success {
			status = "FAILED: " + result.ErrorMessage
		}

		fmt.Fprintf(report, "| %s | %d | %d | %d | %v | %.2f | %.2f | %s |\n",
			result.Scenario.Name,
			result.Scenario.Rows,
			result.Scenario.Partitions,
			result.Scenario.Iterations,
			result.AverageDuration,
			result.OpsPerSec,
			float64(result.MemoryAllocated)/bytesToMB,
			status)
	}

	report.WriteString("\n")
}

// writeComparison reports the serial/parallel speedup when the suite
// contains at least one successful scenario of each kind.
func (s *Suite) writeComparison(report *strings.Builder) {
	var serial, parallel *Result

	for i := range s.results {
		r := &s.results[i]
		if !r.Success || r.AverageDuration <= 0 {
			continue
		}
		if r.Scenario.Parallel {
			if parallel == nil || r.AverageDuration < parallel.AverageDuration {
				parallel = r
			}
		} else if serial == nil || r.AverageDuration < serial.AverageDuration {
			serial = r
		}
	}

	if serial == nil || parallel == nil {
		return
	}

	report.WriteString("## Parallel Speedup\n\n")
	speedup := float64(serial.AverageDuration) / float64(parallel.AverageDuration)
	fmt.Fprintf(report, "%s vs %s: %.2fx\n\n", parallel.Scenario.Name, serial.Scenario.Name, speedup)
}
