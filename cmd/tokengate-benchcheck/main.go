// Command tokengate-benchcheck compares two `go test -bench` outputs and fails
// when a tracked engine benchmark regresses past the threshold.
//
//	go test -run '^$' -bench . -count 5 . > new.txt
//	tokengate-benchcheck --baseline old.txt --candidate new.txt
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

const defaultThreshold = 0.30

// tracked lists the benchmarks and units that gate a change.
var tracked = map[string][]string{
	"BenchmarkAuthenticate":         {"ns/op", "allocs/op"},
	"BenchmarkAuthenticateParallel": {"ns/op"},
	"BenchmarkReissue":              {"ns/op"},
	"BenchmarkLoginLogout":          {"ns/op"},
}

// samples maps benchmark name to unit to observed values.
type samples map[string]map[string][]float64

type row struct {
	benchmark string
	unit      string
	baseline  float64
	candidate float64
	delta     float64
}

func main() {
	if err := newCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var (
		baselinePath  string
		candidatePath string
		threshold     float64
	)

	cmd := &cobra.Command{
		Use:   "tokengate-benchcheck",
		Short: "Fail on benchmark regressions between two runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if threshold < 0 {
				return errors.New("--threshold must be >= 0")
			}
			baseline, err := parseFile(baselinePath)
			if err != nil {
				return fmt.Errorf("parse baseline: %w", err)
			}
			candidate, err := parseFile(candidatePath)
			if err != nil {
				return fmt.Errorf("parse candidate: %w", err)
			}

			rows, failures := compare(baseline, candidate, threshold)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "benchmark unit baseline candidate delta")
			for _, r := range rows {
				fmt.Fprintf(out, "%s %s %.3f %.3f %+0.2f%%\n", r.benchmark, r.unit, r.baseline, r.candidate, r.delta*100)
			}
			if len(failures) > 0 {
				for _, f := range failures {
					fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", f)
				}
				return fmt.Errorf("%d benchmark check(s) failed", len(failures))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&baselinePath, "baseline", "", "baseline benchmark output")
	cmd.Flags().StringVar(&candidatePath, "candidate", "", "candidate benchmark output")
	cmd.Flags().Float64Var(&threshold, "threshold", defaultThreshold, "maximum allowed regression ratio (0.30 = +30%)")
	_ = cmd.MarkFlagRequired("baseline")
	_ = cmd.MarkFlagRequired("candidate")
	return cmd
}

func compare(baseline, candidate samples, threshold float64) ([]row, []string) {
	names := make([]string, 0, len(tracked))
	for name := range tracked {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		rows     []row
		failures []string
	)
	for _, name := range names {
		for _, unit := range tracked[name] {
			base, cand := baseline[name][unit], candidate[name][unit]
			if len(base) == 0 || len(cand) == 0 {
				failures = append(failures, fmt.Sprintf("missing samples for %s %s", name, unit))
				continue
			}
			b, c := median(base), median(cand)
			if b <= 0 {
				// allocs/op of zero cannot regress by ratio; any allocation is a failure.
				if c > 0 {
					failures = append(failures, fmt.Sprintf("%s %s went from 0 to %.0f", name, unit, c))
				}
				rows = append(rows, row{benchmark: name, unit: unit, baseline: b, candidate: c})
				continue
			}
			r := row{benchmark: name, unit: unit, baseline: b, candidate: c, delta: (c - b) / b}
			rows = append(rows, r)
			if r.delta > threshold {
				failures = append(failures, fmt.Sprintf("%s %s regressed by %+0.2f%% (limit %+0.2f%%)", name, unit, r.delta*100, threshold*100))
			}
		}
	}
	return rows, failures
}

func parseFile(path string) (samples, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(f)
}

// parse reads benchmark result lines: name, iterations, then value/unit pairs.
func parse(r io.Reader) (samples, error) {
	out := samples{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || !strings.HasPrefix(fields[0], "Benchmark") {
			continue
		}
		name := trimProcs(fields[0])
		if _, ok := tracked[name]; !ok {
			continue
		}
		if out[name] == nil {
			out[name] = map[string][]float64{}
		}
		for i := 2; i+1 < len(fields); i += 2 {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				continue
			}
			out[name][fields[i+1]] = append(out[name][fields[i+1]], v)
		}
	}
	return out, scanner.Err()
}

// trimProcs drops the -GOMAXPROCS suffix go test appends.
func trimProcs(raw string) string {
	if idx := strings.LastIndexByte(raw, '-'); idx > 0 {
		if _, err := strconv.Atoi(raw[idx+1:]); err == nil {
			return raw[:idx]
		}
	}
	return raw
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
