package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// baselineImpl is the Go-heap variant every pooled variant is compared with.
const baselineImpl = "make"

// BenchmarkResult represents a parsed benchmark result.
type BenchmarkResult struct {
	Name        string
	Operation   string
	Impl        string // "local", "interleaved" or "make"
	Size        string
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// ComparisonResult compares one pooled variant with the baseline at one size.
type ComparisonResult struct {
	Operation   string
	Impl        string
	Size        string
	PoolNs      float64
	BaselineNs  float64
	Speedup     float64
	PoolMem     int64
	BaselineMem int64
	PoolAllocs  int64
	NoBaseline  bool
}

var (
	inputFile = flag.String(
		"input",
		"",
		"Input file with benchmark output (stdin if not specified)",
	)
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

func main() {
	flag.Parse()

	var in io.Reader = os.Stdin
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	results := parseBenchmarks(bufio.NewScanner(in))
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(results))
	}

	comparisons := generateComparisons(results)
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Generated %d comparisons\n", len(comparisons))
	}

	report := generateMarkdownReport(comparisons, time.Now())

	if *outputFile == "" {
		fmt.Fprint(os.Stdout, report)
		return
	}
	if err := os.WriteFile(*outputFile, []byte(report), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
		os.Exit(1)
	}
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
	}
}

// Regex to parse benchmark output lines
// BenchmarkAllocFree/local/64-8    10000000    52.4 ns/op    0 B/op    0 allocs/op
var benchmarkRegex = regexp.MustCompile(
	`^(Benchmark\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+B/op)?(?:\s+([\d.]+)\s+allocs/op)?`,
)

func parseBenchmarks(scanner *bufio.Scanner) []BenchmarkResult {
	var results []BenchmarkResult

	for scanner.Scan() {
		line := scanner.Text()

		// Accept `go test -json` events as well as plain output
		var testEvent map[string]any
		if err := json.Unmarshal([]byte(line), &testEvent); err == nil {
			if output, ok := testEvent["Output"].(string); ok {
				line = output
			}
		}

		matches := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}

		name := matches[1]
		iterations, _ := strconv.Atoi(matches[2])
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)
		var bytesPerOp, allocsPerOp int64
		if matches[4] != "" {
			bytesPerOp, _ = strconv.ParseInt(matches[4], 10, 64)
		}
		if matches[5] != "" {
			allocsPerOp, _ = strconv.ParseInt(matches[5], 10, 64)
		}

		// Format: Benchmark<Operation>/<impl>/<size>-<procs>
		parts := strings.Split(name, "/")
		if len(parts) != 3 {
			continue
		}
		results = append(results, BenchmarkResult{
			Name:        name,
			Operation:   strings.TrimPrefix(parts[0], "Benchmark"),
			Impl:        parts[1],
			Size:        trimProcs(parts[2]),
			Iterations:  iterations,
			NsPerOp:     nsPerOp,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}

	return results
}

// trimProcs removes the -GOMAXPROCS suffix from the last name element.
func trimProcs(s string) string {
	if i := strings.LastIndex(s, "-"); i > 0 {
		return s[:i]
	}
	return s
}

func generateComparisons(results []BenchmarkResult) []ComparisonResult {
	type key struct {
		operation string
		size      string
	}

	grouped := make(map[key]map[string]BenchmarkResult)
	for _, result := range results {
		k := key{result.Operation, result.Size}
		if grouped[k] == nil {
			grouped[k] = make(map[string]BenchmarkResult)
		}
		grouped[k][result.Impl] = result
	}

	var comparisons []ComparisonResult
	for k, impls := range grouped {
		base, hasBase := impls[baselineImpl]
		for impl, r := range impls {
			if impl == baselineImpl {
				continue
			}
			comp := ComparisonResult{
				Operation:  k.operation,
				Impl:       impl,
				Size:       k.size,
				PoolNs:     r.NsPerOp,
				PoolMem:    r.BytesPerOp,
				PoolAllocs: r.AllocsPerOp,
				NoBaseline: !hasBase,
			}
			if hasBase && r.NsPerOp > 0 {
				comp.BaselineNs = base.NsPerOp
				comp.BaselineMem = base.BytesPerOp
				comp.Speedup = base.NsPerOp / r.NsPerOp
			}
			comparisons = append(comparisons, comp)
		}
	}

	// Sort by operation, then numeric size, then impl
	sort.Slice(comparisons, func(i, j int) bool {
		a, b := comparisons[i], comparisons[j]
		if a.Operation != b.Operation {
			return a.Operation < b.Operation
		}
		if a.Size != b.Size {
			as, aerr := strconv.Atoi(a.Size)
			bs, berr := strconv.Atoi(b.Size)
			if aerr == nil && berr == nil {
				return as < bs
			}
			return a.Size < b.Size
		}
		return a.Impl < b.Impl
	})

	return comparisons
}

func generateMarkdownReport(comparisons []ComparisonResult, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("# Allocator Benchmark Report\n\n")
	fmt.Fprintf(&sb, "Generated: %s\n\n", now.Format("2006-01-02 15:04:05"))

	poolFaster, baselineFaster, comparable := 0, 0, 0
	totalSpeedup := 0.0
	for _, comp := range comparisons {
		if comp.NoBaseline {
			continue
		}
		comparable++
		totalSpeedup += comp.Speedup
		if comp.Speedup > 1.0 {
			poolFaster++
		} else if comp.Speedup < 1.0 {
			baselineFaster++
		}
	}
	avgSpeedup := 0.0
	if comparable > 0 {
		avgSpeedup = totalSpeedup / float64(comparable)
	}

	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- **Total comparisons**: %d\n", len(comparisons))
	fmt.Fprintf(&sb, "- **With a %s baseline**: %d\n", baselineImpl, comparable)
	fmt.Fprintf(&sb, "  - pool faster: %d\n", poolFaster)
	fmt.Fprintf(&sb, "  - %s faster: %d\n", baselineImpl, baselineFaster)
	fmt.Fprintf(&sb, "  - Average speedup: **%.2fx**\n\n", avgSpeedup)

	sb.WriteString("## Detailed Results\n\n")
	sb.WriteString("| Operation | Size | Placement | pool (ns/op) | make (ns/op) | Speedup | Memory (B/op) | Allocs |\n")
	sb.WriteString("|-----------|------|-----------|--------------|--------------|---------|---------------|--------|\n")

	for _, comp := range comparisons {
		if comp.NoBaseline {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | *N/A* | *N/A* | %s | %s |\n",
				comp.Operation, comp.Size, comp.Impl,
				formatNumber(comp.PoolNs),
				formatBytes(comp.PoolMem),
				formatNumber(float64(comp.PoolAllocs)),
			)
			continue
		}
		indicator, style := "✓", "**"
		if comp.Speedup < 1.0 {
			indicator, style = "✗", ""
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s%.2fx%s %s | %s vs %s | %s |\n",
			comp.Operation, comp.Size, comp.Impl,
			formatNumber(comp.PoolNs),
			formatNumber(comp.BaselineNs),
			style, comp.Speedup, style, indicator,
			formatBytes(comp.PoolMem),
			formatBytes(comp.BaselineMem),
			formatNumber(float64(comp.PoolAllocs)),
		)
	}

	sb.WriteString("\n## Notes\n\n")
	sb.WriteString("- **Speedup > 1.0**: the pooled allocator is faster ✓\n")
	sb.WriteString("- **Speedup < 1.0**: `make` is faster ✗\n")
	sb.WriteString("- Sizes above 2048 bypass the pool and hit the backing store\n")

	return sb.String()
}

// formatNumber abbreviates n with K and M suffixes.
func formatNumber(n float64) string {
	switch {
	case n >= 1e6:
		return strconv.FormatFloat(n/1e6, 'f', 2, 64) + "M"
	case n >= 1e3:
		return strconv.FormatFloat(n/1e3, 'f', 1, 64) + "K"
	}
	return strconv.FormatFloat(n, 'f', 0, 64)
}

// formatBytes renders a per-op byte count in B, KB or MB.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return strconv.FormatFloat(float64(b)/(1<<20), 'f', 2, 64) + "MB"
	case b >= 1<<10:
		return strconv.FormatFloat(float64(b)/(1<<10), 'f', 1, 64) + "KB"
	}
	return strconv.FormatInt(b, 10) + "B"
}
