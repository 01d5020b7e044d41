// Package main provides a performance benchmarking tool for the srcmeasure CLI.
// It measures execution times for a set of root definitions, treating the first
// run against an empty mirror store as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - srcmeasure binary installed and available in PATH
// - A definitions tree checked out locally
//
// Usage: go run benchmark/main.go <definitions-dir> <root>...
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the timings of one command on one root.
type BenchmarkResult struct {
	Root        string
	Command     string
	NoMirrorAvg string // Fresh mirror store on every run
	ColdTime    string // First run against a shared mirror store
	WarmAvg     string // Later runs against the shared mirror store
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	DefinitionsDir string
	Roots          []string
	Timeout        time.Duration
	FreshRuns      int
	SharedRuns     int
	LineCounter    string
}

func main() {
	if len(os.Args) < 3 {
		fmt.Printf("Usage: %s <definitions-dir> <root>...\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		DefinitionsDir: os.Args[1],
		Roots:          os.Args[2:],
		Timeout:        30 * time.Minute,
		FreshRuns:      2,
		SharedRuns:     4,
		LineCounter:    "native",
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the srcmeasure binary and the definitions tree exist.
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("srcmeasure"); err != nil {
		return fmt.Errorf("srcmeasure binary not found in PATH")
	}
	info, err := os.Stat(config.DefinitionsDir)
	if err != nil {
		return fmt.Errorf("definitions tree not found at %s: %w", config.DefinitionsDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", config.DefinitionsDir)
	}
	return nil
}

// runBenchmarks executes the walk and measure suites for every root.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d roots, %v timeout, fresh: %d runs, shared: %d runs\n",
		len(config.Roots), config.Timeout, config.FreshRuns, config.SharedRuns)

	for _, root := range config.Roots {
		fmt.Printf("Benchmarking %s\n", root)
		results = append(results, runBenchmarkSuite(config, root, "walk"))
		results = append(results, runBenchmarkSuite(config, root, "measure"))
	}

	return results
}

// runBenchmarkSuite runs the fresh-mirror and shared-mirror phases for a command.
func runBenchmarkSuite(config BenchmarkConfig, root, command string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, root)

	// Phase 1: every run starts from an empty mirror store
	var fresh []float64
	for range config.FreshRuns {
		mirrorDir, err := os.MkdirTemp("", "srcmeasure-bench-mirror-*")
		if err != nil {
			fmt.Printf("  Warning: cannot create mirror dir: %v\n", err)
			continue
		}
		if secs, ok := runOnce(config, root, command, mirrorDir); ok {
			fresh = append(fresh, secs)
		}
		_ = os.RemoveAll(mirrorDir)
	}

	// Phase 2: one mirror store reused across runs
	mirrorDir, err := os.MkdirTemp("", "srcmeasure-bench-mirror-*")
	var shared []float64
	if err == nil {
		for range config.SharedRuns {
			if secs, ok := runOnce(config, root, command, mirrorDir); ok {
				shared = append(shared, secs)
			}
		}
		_ = os.RemoveAll(mirrorDir)
	}

	coldTime := "TIMEOUT"
	var warm []float64
	if len(shared) > 0 {
		coldTime = fmt.Sprintf("%.3fs", shared[0])
		warm = shared[1:]
	}

	result := BenchmarkResult{
		Root:        root,
		Command:     command,
		NoMirrorAvg: average(fresh),
		ColdTime:    coldTime,
		WarmAvg:     average(warm),
	}
	fmt.Printf("  Fresh average: %s, Cold time: %s, Warm average: %s\n", result.NoMirrorAvg, result.ColdTime, result.WarmAvg)
	return result
}

// runOnce executes srcmeasure once and reports the elapsed seconds on success.
func runOnce(config BenchmarkConfig, root, command, mirrorDir string) (float64, bool) {
	scratchDir, err := os.MkdirTemp("", "srcmeasure-bench-scratch-*")
	if err != nil {
		return 0, false
	}
	defer func() { _ = os.RemoveAll(scratchDir) }()

	args := []string{
		"--definitions", config.DefinitionsDir,
		"--mirror-dir", mirrorDir,
		"--scratch-dir", scratchDir,
		"--line-counter", config.LineCounter,
		"--color", "no",
		"--output-file", filepath.Join(scratchDir, "results.csv"),
	}
	if command == "walk" {
		args = append([]string{"walk", root}, args...)
	} else {
		args = append([]string{root}, args...)
	}

	start := time.Now()
	cmd := exec.Command("srcmeasure", args...)

	done := make(chan bool)
	var output []byte
	var cmdErr error

	go func() {
		output, cmdErr = cmd.CombinedOutput()
		done <- true
	}()

	select {
	case <-done:
		if cmdErr == nil && isSuccess(output, command) {
			return time.Since(start).Seconds(), true
		}
		fmt.Printf("  Run failed: %v\n", cmdErr)
	case <-time.After(config.Timeout):
		_ = cmd.Process.Kill()
		<-done
	}
	return 0, false
}

// average formats the mean of times, or TIMEOUT when nothing succeeded.
func average(times []float64) string {
	if len(times) == 0 {
		return "TIMEOUT"
	}
	var sum float64
	for _, t := range times {
		sum += t
	}
	return fmt.Sprintf("%.3fs", sum/float64(len(times)))
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte, command string) bool {
	if command == "walk" {
		return true
	}
	return strings.Contains(string(output), "work items from")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("srcmeasure_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"root", "cmd", "fresh_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Root, result.Command, result.NoMirrorAvg, result.ColdTime, result.WarmAvg}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "walk", "Walk:")
	printCommandSummary(results, "measure", "Measure:")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-32s: Fresh: %s, Cold: %s, Warm: %s\n", result.Root, result.NoMirrorAvg, result.ColdTime, result.WarmAvg)
		}
	}
}
