package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwebster45206/critfumble/pkg/roll"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running critfumble API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 30 * time.Second},
		Timeout:           10 * time.Second,
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		subJobs, err := LoadTestSuiteWithExpansion(filepath.Join(casesDir, caseFile), casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}
		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job:     TestJob{Name: suite.Name, Suite: suite},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	var prev *roll.Result
	var failures []string
	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)

		stepResult := r.runStep(ctx, suite.Name, step, prev)
		result.Results = append(result.Results, stepResult)
		prev = stepResult.Response

		if !stepResult.Success {
			failures = append(failures, fmt.Sprintf("step %d (%s): %v", i+1, step.Name, stepResult.Error))
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
		}
	}

	result.Duration = time.Since(start)
	if len(failures) > 0 {
		result.Error = fmt.Errorf("%d step(s) failed:\n  %s", len(failures), strings.Join(failures, "\n  "))
	}
	return result, result.Error
}

func (r *Runner) runStep(ctx context.Context, suiteName string, step TestStep, prev *roll.Result) TestResult {
	start := time.Now()
	res := TestResult{TestName: suiteName, StepName: step.Name}

	req := step.Request
	if step.FollowSecondary {
		// Triggers depend on the roll, so a quiet primary skips the step.
		if prev == nil || !prev.PendingSecondary() {
			res.Success, res.Skipped = true, true
			res.Duration = time.Since(start)
			return res
		}
		value := prev.RollValue
		req = roll.Request{
			RollContext:       string(roll.ContextSecondary),
			RollType:          string(prev.SecondaryType),
			PrimaryRollValue:  &value,
			PrimaryResultText: prev.NarrativeText(),
		}
	}

	status, body, err := r.postRoll(ctx, req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	res.Response = body

	if err := checkExpectations(step.Expectations, status, body); err != nil {
		res.Error = err
		return res
	}
	res.Success = true
	return res
}

func (r *Runner) postRoll(ctx context.Context, req roll.Request) (int, *roll.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	payload, err := json.Marshal(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/v1/roll", bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("roll request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result roll.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to parse response (HTTP %d): %s", resp.StatusCode, string(data))
	}
	return resp.StatusCode, &result, nil
}

func checkExpectations(exp Expectations, status int, res *roll.Result) error {
	var errs []string

	wantStatus := http.StatusOK
	if exp.HTTPStatus != nil {
		wantStatus = *exp.HTTPStatus
	}
	if status != wantStatus {
		errs = append(errs, fmt.Sprintf("expected HTTP %d, got %d", wantStatus, status))
	}
	if exp.Status != nil && res.Status != *exp.Status {
		errs = append(errs, fmt.Sprintf("expected status %q, got %q", *exp.Status, res.Status))
	}
	if exp.Source != nil && string(res.Source) != *exp.Source {
		errs = append(errs, fmt.Sprintf("expected source %q, got %q", *exp.Source, res.Source))
	}
	if exp.DieSpec != nil && res.DieSpec != *exp.DieSpec {
		errs = append(errs, fmt.Sprintf("expected die %q, got %q", *exp.DieSpec, res.DieSpec))
	}
	if exp.RollMin != nil && res.RollValue < *exp.RollMin {
		errs = append(errs, fmt.Sprintf("roll %d below minimum %d", res.RollValue, *exp.RollMin))
	}
	if exp.RollMax != nil && res.RollValue > *exp.RollMax {
		errs = append(errs, fmt.Sprintf("roll %d above maximum %d", res.RollValue, *exp.RollMax))
	}
	for _, s := range exp.TableNameContains {
		if !strings.Contains(strings.ToLower(res.TableName), strings.ToLower(s)) {
			errs = append(errs, fmt.Sprintf("table name %q missing %q", res.TableName, s))
		}
	}
	for _, s := range exp.ErrorContains {
		if !strings.Contains(res.ErrorMessage, s) {
			errs = append(errs, fmt.Sprintf("error message %q missing %q", res.ErrorMessage, s))
		}
	}
	for _, s := range exp.NarrativeContains {
		if !strings.Contains(res.Narrative, s) {
			errs = append(errs, fmt.Sprintf("narrative %q missing %q", res.Narrative, s))
		}
	}
	if exp.ResultNotEmpty && strings.TrimSpace(res.NarrativeText()) == "" {
		errs = append(errs, "expected a result text")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
