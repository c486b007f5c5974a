package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/falconhq/falcon/internal/brain"
	"github.com/falconhq/falcon/internal/sweep"
)

type fakeRunner struct {
	report *sweep.Report
	err    error
}

func (f *fakeRunner) Run(ctx context.Context) (*sweep.Report, error) {
	return f.report, f.err
}

func TestTrigger_ReturnsReport(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{report: &sweep.Report{
		RunID:   "01TESTRUN",
		Checked: 2,
		Results: []sweep.AccountResult{
			{AccountID: "acc-1", Status: sweep.StatusChecked, Details: map[string]brain.CheckResult{
				brain.CheckPendingTasks: {Text: "ok", Actionable: false},
			}},
			{AccountID: "acc-2", Status: sweep.StatusError, Error: "query timeout"},
		},
	}}

	h := NewSweepHandler(runner, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/cron/falcon-sweep", nil)
	rec := httptest.NewRecorder()
	h.Trigger(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("expected success, got %v", body)
	}
	if body["checked"] != float64(2) {
		t.Errorf("expected checked 2, got %v", body["checked"])
	}
	results, ok := body["results"].([]any)
	if !ok || len(results) != 2 {
		t.Fatalf("expected 2 results, got %v", body["results"])
	}
}

func TestTrigger_RunFailureIs500(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("accounts table missing")}
	h := NewSweepHandler(runner, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/cron/falcon-sweep", nil)
	rec := httptest.NewRecorder()
	h.Trigger(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
