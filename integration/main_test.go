//go:build integration
// +build integration

package integration

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/faith-chronicle/integration/runner"
)

const casesDir = "cases"

var caseFlag = flag.String("case", "", "Comma-separated test cases to run (from integration/cases/)")
var errFlag = flag.String("err", "continue", "Error handling mode: 'continue' (run all steps) or 'exit' (stop on first failure)")
var runsFlag = flag.Int("runs", 1, "Number of times to run each test suite (card draws are random)")
var characterFlag = flag.String("character", "", "Override character for all test cases (e.g., 'DAVID', 'ESTHER')")

func TestMain(m *testing.M) {
	fmt.Printf("Running Faith Chronicle Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", apiBaseURL())
	os.Exit(m.Run())
}

// TestIntegrationSuites plays every case under cases/ once.
func TestIntegrationSuites(t *testing.T) {
	files, err := filepath.Glob(filepath.Join(casesDir, "*.json"))
	if err != nil {
		t.Fatalf("Failed to discover test files: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("No test files found in cases directory")
	}

	jobs := loadJobs(t, files)
	if len(jobs) == 0 {
		t.Fatal("No valid test suites loaded")
	}

	tally := runJobs(t, newRunner(runner.ErrorHandlingContinue), jobs, 1)
	t.Log(tally.summary(1))
	if tally.failures > 0 {
		t.Fatalf("Integration tests failed")
	}
}

// TestSingleSuite runs the cases named by -case, optionally several times.
func TestSingleSuite(t *testing.T) {
	flag.Parse()
	if *caseFlag == "" {
		t.Skip("Skipping single suite test (use -case flag to run)")
	}
	if *errFlag != string(runner.ErrorHandlingExit) && *errFlag != string(runner.ErrorHandlingContinue) {
		t.Fatalf("Invalid -err flag value: %s (must be 'exit' or 'continue')", *errFlag)
	}
	if *runsFlag < 1 {
		t.Fatalf("Number of runs must be >= 1, got: %d", *runsFlag)
	}

	var files []string
	for _, name := range strings.Split(*caseFlag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !strings.HasSuffix(name, ".json") {
			name += ".json"
		}
		files = append(files, filepath.Join(casesDir, name))
	}
	if len(files) == 0 {
		t.Fatalf("No valid test cases found in -case flag: %s", *caseFlag)
	}

	// Several runs always continue so the statistics are complete.
	mode := runner.ErrorHandlingMode(*errFlag)
	if *runsFlag > 1 {
		mode = runner.ErrorHandlingContinue
	}

	jobs := loadJobs(t, files)
	tally := runJobs(t, newRunner(mode), jobs, *runsFlag)
	t.Log(tally.summary(*runsFlag))
	if tally.failures > 0 {
		t.Fatalf("Test suite(s) had errors")
	}
}

func newRunner(mode runner.ErrorHandlingMode) *runner.Runner {
	r := runner.NewRunner(apiBaseURL())
	r.Timeout = time.Duration(getIntEnv("TEST_TIMEOUT_SECONDS", 30)) * time.Second
	r.ErrorHandlingMode = mode
	r.CharacterOverride = *characterFlag
	r.Logger = func(format string, args ...any) {
		fmt.Printf(format+"\n", args...)
	}
	return r
}

func loadJobs(t *testing.T, files []string) []runner.TestJob {
	t.Helper()
	var jobs []runner.TestJob
	for _, file := range files {
		expanded, err := runner.LoadTestSuiteWithExpansion(file, casesDir)
		if err != nil {
			t.Errorf("Failed to load test suite %s: %v", file, err)
			continue
		}
		jobs = append(jobs, expanded...)
	}
	for _, job := range jobs {
		t.Logf("   - %s (%d steps)", job.Name, len(job.Suite.Steps))
	}
	return jobs
}

// failureDetail tracks a single failed step
type failureDetail struct {
	caseName string
	stepName string
	error    string
	run      int
}

type tally struct {
	passes   int
	failures int
	perCase  map[string][2]int // passes, failures
	order    []string
	failed   []failureDetail
}

func runJobs(t *testing.T, r *runner.Runner, jobs []runner.TestJob, runs int) *tally {
	t.Helper()
	tl := &tally{perCase: make(map[string][2]int)}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	for run := 1; run <= runs; run++ {
		if runs > 1 {
			t.Logf("=== RUN %d/%d ===", run, runs)
		}
		for i, job := range jobs {
			t.Logf("[%d/%d] Running test suite: %s", i+1, len(jobs), job.Name)

			result, err := r.RunSuite(ctx, job.Suite)
			if err != nil && result.Error == nil {
				result.Error = err
			}
			t.Logf("Game ID: %s", result.GameID)

			counts, seen := tl.perCase[job.Name]
			if !seen {
				tl.order = append(tl.order, job.Name)
			}
			if result.Error != nil {
				tl.failures++
				counts[1]++
				t.Errorf("[%d/%d] FAILED: Test suite '%s' failed: %v", i+1, len(jobs), job.Name, result.Error)
			} else {
				tl.passes++
				counts[0]++
				t.Logf("[%d/%d] PASSED: Test suite '%s' completed in %v", i+1, len(jobs), job.Name, result.Duration)
			}
			tl.perCase[job.Name] = counts

			for _, step := range result.Results {
				if step.Success {
					t.Logf("   ✓ %s (%v)", step.StepName, step.Duration)
					continue
				}
				t.Errorf("   ✗ %s: %v", step.StepName, step.Error)
				tl.failed = append(tl.failed, failureDetail{
					caseName: job.Name,
					stepName: step.StepName,
					error:    fmt.Sprint(step.Error),
					run:      run,
				})
			}
			t.Logf("--------------------------------")

			if result.Error != nil && r.ErrorHandlingMode == runner.ErrorHandlingExit {
				t.Fatalf("Test suite(s) had errors")
			}
		}
	}
	return tl
}

func (tl *tally) summary(runs int) string {
	var sb strings.Builder
	total := tl.passes + tl.failures

	sb.WriteString("\nIntegration Test Summary:\n")
	fmt.Fprintf(&sb, "   Passed: %d\n", tl.passes)
	fmt.Fprintf(&sb, "   Failed: %d\n", tl.failures)

	if runs > 1 && total > 0 {
		sb.WriteString("\nPer-suite statistics:\n")
		for _, name := range tl.order {
			c := tl.perCase[name]
			n := c[0] + c[1]
			fmt.Fprintf(&sb, "  %s: %d/%d passes (%.1f%%)\n", name, c[0], n, float64(c[0])/float64(n)*100)
			if c[0] > 0 && c[1] > 0 {
				sb.WriteString("    ⚠️  FLAKY: This test both passed and failed across runs\n")
			}
		}
	}

	if len(tl.failed) == 0 {
		return sb.String()
	}

	byCase := make(map[string][]failureDetail)
	for _, f := range tl.failed {
		byCase[f.caseName] = append(byCase[f.caseName], f)
	}
	names := make([]string, 0, len(byCase))
	for name := range byCase {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString("\nFailed steps:\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "  %s:\n", name)
		for _, f := range byCase[name] {
			fmt.Fprintf(&sb, "    ✗ %s (run %d): %s\n", f.stepName, f.run, f.error)
		}
	}
	return sb.String()
}

func apiBaseURL() string {
	if u := os.Getenv("API_BASE_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func getIntEnv(name string, defaultValue int) int {
	val, err := strconv.Atoi(os.Getenv(name))
	if err != nil {
		return defaultValue
	}
	return val
}
