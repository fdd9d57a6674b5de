package main

import (
	"strings"
	"testing"
)

const baselineOut = `goos: linux
goarch: amd64
pkg: github.com/MrEthical07/tokengate
BenchmarkAuthenticate-8           	  500000	      2000 ns/op	     900 B/op	      14 allocs/op
BenchmarkAuthenticate-8           	  500000	      2200 ns/op	     900 B/op	      14 allocs/op
BenchmarkAuthenticateParallel-8   	 2000000	       600 ns/op
BenchmarkReissue-8                	   20000	     50000 ns/op
BenchmarkLoginLogout-8            	   10000	    100000 ns/op
BenchmarkMetricsInc-8             	100000000	        10 ns/op
PASS
`

func TestParse(t *testing.T) {
	s, err := parse(strings.NewReader(baselineOut))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := s["BenchmarkAuthenticate"]["ns/op"]; len(got) != 2 || got[0] != 2000 || got[1] != 2200 {
		t.Fatalf("unexpected ns/op samples %v", got)
	}
	if got := s["BenchmarkAuthenticate"]["allocs/op"]; len(got) != 2 || got[0] != 14 {
		t.Fatalf("unexpected allocs/op samples %v", got)
	}
	if _, ok := s["BenchmarkMetricsInc"]; ok {
		t.Fatal("untracked benchmark should be skipped")
	}
}

func TestCompare(t *testing.T) {
	base, _ := parse(strings.NewReader(baselineOut))

	same, _ := parse(strings.NewReader(baselineOut))
	if _, failures := compare(base, same, defaultThreshold); len(failures) != 0 {
		t.Fatalf("identical runs should pass, got %v", failures)
	}

	slower := strings.Replace(baselineOut, "50000 ns/op", "90000 ns/op", 1)
	cand, _ := parse(strings.NewReader(slower))
	_, failures := compare(base, cand, defaultThreshold)
	if len(failures) != 1 || !strings.Contains(failures[0], "BenchmarkReissue ns/op regressed") {
		t.Fatalf("expected one reissue regression, got %v", failures)
	}

	missing := strings.Replace(baselineOut, "BenchmarkLoginLogout", "BenchmarkOther", 1)
	cand, _ = parse(strings.NewReader(missing))
	_, failures = compare(base, cand, defaultThreshold)
	if len(failures) != 1 || !strings.Contains(failures[0], "missing samples for BenchmarkLoginLogout") {
		t.Fatalf("expected missing-sample failure, got %v", failures)
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{3, 1, 2}); got != 2 {
		t.Fatalf("odd median = %v", got)
	}
	if got := median([]float64{4, 1, 3, 2}); got != 2.5 {
		t.Fatalf("even median = %v", got)
	}
	if got := median(nil); got != 0 {
		t.Fatalf("empty median = %v", got)
	}
}
