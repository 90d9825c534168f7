package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jwebster45206/critfumble/pkg/roll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// stubAPI answers crits with a pending major injury and secondaries with a result.
func stubAPI(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req roll.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch {
		case req.RollContext == string(roll.ContextSecondary):
			_ = json.NewEncoder(w).Encode(roll.Result{
				Status: roll.StatusSuccess, RollValue: 4, DieSpec: "1d20",
				TableName: "major injury", SecondaryResultText: "Broken arm.",
				PrimaryRollValueForSecondary: req.PrimaryRollValue,
			})
		case req.RollType == "crit":
			_ = json.NewEncoder(w).Encode(roll.Result{
				Status: roll.StatusSuccess, RollValue: 20, DieSpec: "1d20", Source: roll.SourceSmackDown,
				TableName: "Smack Down critical hit (slashing)", ResultText: "Roll for a Major Injury.",
				IsSecondaryPrompt: true, SecondaryType: roll.TriggerMajor,
				Narrative: "A wise wizard from Lyon, Auvergne, rolled 20",
			})
		default:
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(roll.ErrorResult(fmt.Errorf("invalid primary roll type: %q", req.RollType)))
		}
	}))
}

func TestRunSuite_FollowsSecondary(t *testing.T) {
	srv := stubAPI(t)
	defer srv.Close()

	suite := TestSuite{
		Name: "crit",
		Steps: []TestStep{
			{
				Name:    "crit",
				Request: roll.Request{RollType: "crit"},
				Expectations: Expectations{
					Status: strPtr(roll.StatusSuccess), Source: strPtr("smackdown"),
					RollMin: intPtr(1), RollMax: intPtr(20),
					TableNameContains: []string{"Slashing"}, NarrativeContains: []string{"Lyon"},
				},
			},
			{
				Name:            "bonus",
				FollowSecondary: true,
				Expectations:    Expectations{DieSpec: strPtr("1d20"), ResultNotEmpty: true},
			},
		},
	}

	result, err := NewRunner(srv.URL).RunSuite(context.Background(), suite)
	require.NoError(t, err)
	require.Len(t, result.Results, 2)
	assert.False(t, result.Results[1].Skipped)
	require.NotNil(t, result.Results[1].Response.PrimaryRollValueForSecondary)
	assert.Equal(t, 20, *result.Results[1].Response.PrimaryRollValueForSecondary)
}

func TestRunSuite_ReportsFailures(t *testing.T) {
	srv := stubAPI(t)
	defer srv.Close()

	suite := TestSuite{
		Name: "bad",
		Steps: []TestStep{
			{Name: "wrong status", Request: roll.Request{RollType: "stumble"}},
			{
				Name:         "expected error",
				Request:      roll.Request{RollType: "stumble"},
				Expectations: Expectations{HTTPStatus: intPtr(http.StatusBadRequest), ErrorContains: []string{"stumble"}},
			},
		},
	}

	result, err := NewRunner(srv.URL).RunSuite(context.Background(), suite)
	require.Error(t, err)
	assert.False(t, result.Results[0].Success)
	assert.True(t, result.Results[1].Success)

	r := NewRunner(srv.URL)
	r.ErrorHandlingMode = ErrorHandlingExit
	result, err = r.RunSuite(context.Background(), suite)
	require.Error(t, err)
	assert.Len(t, result.Results, 1)
}

func TestRunSuite_SkipsQuietSecondary(t *testing.T) {
	result, err := NewRunner("http://127.0.0.1:0").RunSuite(context.Background(), TestSuite{
		Steps: []TestStep{{Name: "bonus", FollowSecondary: true}},
	})
	require.NoError(t, err)
	assert.True(t, result.Results[0].Skipped)
}

func TestLoadTestSuiteWithExpansion(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.json"), []byte(`{"name":"one","steps":[{"request":{"rollType":"crit"}}]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "all.json"), []byte(`{"name":"all","cases":["one.json","one.json"]}`), 0o644))

	jobs, err := LoadTestSuiteWithExpansion(filepath.Join(dir, "all.json"), dir)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "one", jobs[0].Name)
	assert.Equal(t, "crit", jobs[0].Suite.Steps[0].Request.RollType)

	_, err = LoadTestSuiteWithExpansion(filepath.Join(dir, "missing.json"), dir)
	assert.Error(t, err)
}
