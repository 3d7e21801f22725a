// Command orusbench runs N independent orusc invocations concurrently, each
// isolated in its own OS process, and reports aggregated wall-clock numbers.
// This is spec.md §5's documented concurrency model for host-level
// parallelism: every VM instance lives in its own process, sharing no guest
// memory with any other; the parent only waits for completion.
//
// Usage:
//
//	orusbench [flags] <source.orus>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		runs       = flag.Int("n", 10, "Number of isolated runs")
		parallel   = flag.Int("parallel", 4, "Maximum concurrent child processes")
		orusc      = flag.String("orusc", "orusc", "Path to the orusc binary")
		entry      = flag.String("entry", "main", "Entry-point function name")
		configPath = flag.String("config", "", "Optional TOML config file, forwarded to each child")
	)
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: orusbench [flags] <source.orus>")
		os.Exit(1)
	}
	source := flag.Arg(0)

	durations, err := runAll(*orusc, source, *entry, *configPath, *runs, *parallel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	printSummary(durations)
}

// runAll launches n child orusc processes, at most parallel concurrently,
// and returns each completed child's wall-clock duration. A failure in any
// child aborts the remaining ones and returns the first error, matching
// errgroup's cancel-on-first-error contract.
func runAll(orusc, source, entry, configPath string, n, parallel int) ([]time.Duration, error) {
	durations := make([]time.Duration, n)
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(parallel)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			args := []string{"-emit=run", "-entry=" + entry}
			if configPath != "" {
				args = append(args, "-config="+configPath)
			}
			args = append(args, source)

			cmd := exec.CommandContext(ctx, orusc, args...)
			start := time.Now()
			out, err := cmd.CombinedOutput()
			durations[i] = time.Since(start)
			if err != nil {
				return fmt.Errorf("run %d: %w: %s", i, err, out)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return durations, nil
}

// summary is the aggregated view over one batch of runs.
type summary struct {
	runs  int
	min   time.Duration
	max   time.Duration
	avg   time.Duration
	total time.Duration
}

// summarize reduces a batch of per-run durations to min/max/avg/total. It
// does not care how each duration was obtained, which keeps it testable
// without actually forking child processes.
func summarize(durations []time.Duration) summary {
	sorted := append([]time.Duration(nil), durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	return summary{
		runs:  len(sorted),
		min:   sorted[0],
		max:   sorted[len(sorted)-1],
		avg:   total / time.Duration(len(sorted)),
		total: total,
	}
}

func printSummary(durations []time.Duration) {
	s := summarize(durations)
	fmt.Printf("runs=%d\n", s.runs)
	fmt.Printf("min=%s\n", s.min)
	fmt.Printf("max=%s\n", s.max)
	fmt.Printf("avg=%s\n", s.avg)
	fmt.Printf("total=%s\n", s.total)
}
