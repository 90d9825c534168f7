package runner

import (
	"time"

	"github.com/jwebster45206/critfumble/pkg/roll"
)

// TestSuite defines an integration scenario: an ordered list of roll requests.
// A suite can instead reference other case files through Cases.
type TestSuite struct {
	Name  string     `json:"name"`
	Steps []TestStep `json:"steps,omitempty"`
	Cases []string   `json:"cases,omitempty"`
}

// IsSequence returns true if this suite sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is one roll request and its expected outcome.
// When FollowSecondary is set the request is built from the previous
// step's pending bonus roll instead of Request.
type TestStep struct {
	Name            string       `json:"name,omitempty"`
	Request         roll.Request `json:"request"`
	FollowSecondary bool         `json:"follow_secondary,omitempty"`
	Expectations    Expectations `json:"expect"`
}

// Expectations defines what to check after a step executes
type Expectations struct {
	HTTPStatus        *int     `json:"http_status,omitempty"`
	Status            *string  `json:"status,omitempty"`
	Source            *string  `json:"source,omitempty"`
	DieSpec           *string  `json:"die_spec,omitempty"`
	RollMin           *int     `json:"roll_min,omitempty"`
	RollMax           *int     `json:"roll_max,omitempty"`
	TableNameContains []string `json:"table_name_contains,omitempty"`
	ErrorContains     []string `json:"error_contains,omitempty"`
	NarrativeContains []string `json:"narrative_contains,omitempty"`
	ResultNotEmpty    bool     `json:"result_not_empty,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName string
	StepName string
	Success  bool
	Skipped  bool
	Error    error
	Duration time.Duration
	Response *roll.Result
}

// TestJob represents a test suite loaded from a case file
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
}
