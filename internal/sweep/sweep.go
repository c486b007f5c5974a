// Package sweep runs the proactive notification pass over all opted-in
// accounts. A sweep is a total function over its account set: every account
// yields exactly one report entry, failures included, and no failure aborts
// the pass.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/falconhq/falcon/internal/brain"
	"github.com/falconhq/falcon/internal/model"
)

// Status of a single account within a sweep report.
type Status string

const (
	StatusChecked Status = "checked"
	StatusError   Status = "error"
)

// AccountSource lists the accounts the sweep covers.
type AccountSource interface {
	ListFalconAccounts(ctx context.Context) ([]model.Account, error)
}

// Sender delivers a text to a channel address. Send failures are best-effort
// from the sweep's perspective.
type Sender interface {
	Send(ctx context.Context, destination, text string) error
}

// DedupStore suppresses repeat notifications for the same account/check
// within the retention window. A nil store disables dedup entirely.
type DedupStore interface {
	MarkNotified(ctx context.Context, accountID, check string, now time.Time) (bool, error)
}

// NotificationLog persists the trace of delivered notifications.
type NotificationLog interface {
	InsertNotification(ctx context.Context, record *model.NotificationRecord) error
}

// AccountResult is one account's entry in the sweep report.
type AccountResult struct {
	AccountID string                       `json:"account"`
	Status    Status                       `json:"status"`
	Details   map[string]brain.CheckResult `json:"details,omitempty"`
	Error     string                       `json:"error,omitempty"`
}

// Report aggregates one sweep invocation. The caller persists or logs it;
// the sweep itself does not.
type Report struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Checked    int             `json:"checked"`
	Results    []AccountResult `json:"results"`
}

// Options tune the sweep.
type Options struct {
	Brain brain.Options

	// Concurrency bounds how many accounts are processed at once.
	// 1 (the default) means strictly sequential.
	Concurrency int

	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

// Sweeper runs proactive checks over all opted-in accounts.
type Sweeper struct {
	accounts AccountSource
	store    brain.Store
	sender   Sender
	dedup    DedupStore
	log      NotificationLog
	logger   *slog.Logger
	opts     Options
}

// New creates a Sweeper. dedup and log may be nil; without a dedup store the
// sweep sends on every invocation, and without a log no delivery trace is
// persisted.
func New(accounts AccountSource, store brain.Store, sender Sender, dedup DedupStore, log NotificationLog, logger *slog.Logger, opts Options) *Sweeper {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Sweeper{
		accounts: accounts,
		store:    store,
		sender:   sender,
		dedup:    dedup,
		log:      log,
		logger:   logger.With("component", "sweep"),
		opts:     opts,
	}
}

// Run executes one sweep over all opted-in accounts and returns the report.
// Only a failure to enumerate accounts fails the whole run; everything after
// that is isolated per account.
func (s *Sweeper) Run(ctx context.Context) (*Report, error) {
	started := s.opts.Now()
	runID := ulid.Make().String()

	accounts, err := s.accounts.ListFalconAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list falcon accounts: %w", err)
	}

	report := &Report{
		RunID:     runID,
		StartedAt: started,
		Checked:   len(accounts),
		Results:   make([]AccountResult, len(accounts)),
	}

	if len(accounts) == 0 {
		report.Results = []AccountResult{}
		report.FinishedAt = s.opts.Now()
		s.logger.Info("sweep finished", "run_id", runID, "checked", 0)
		return report, nil
	}

	sem := make(chan struct{}, s.opts.Concurrency)
	var wg sync.WaitGroup
	for i := range accounts {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			report.Results[i] = s.processAccount(ctx, runID, &accounts[i])
		}(i)
	}
	wg.Wait()

	report.FinishedAt = s.opts.Now()

	errored := 0
	for _, result := range report.Results {
		if result.Status == StatusError {
			errored++
		}
	}
	s.logger.Info("sweep finished",
		"run_id", runID,
		"checked", report.Checked,
		"errors", errored,
		"duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	)

	return report, nil
}

// processAccount runs the three checks for one account and delivers
// actionable results. Check failures mark the entry as errored; delivery
// failures do not.
func (s *Sweeper) processAccount(ctx context.Context, runID string, account *model.Account) AccountResult {
	b := brain.New(account, s.store, s.opts.Brain)

	checks := []struct {
		name string
		run  func(context.Context) (brain.CheckResult, error)
	}{
		{brain.CheckPendingTasks, b.CheckPendingTasks},
		{brain.CheckUpcomingBills, b.NotifyUpcomingBills},
		{brain.CheckInactivity, b.CheckInactivity},
	}

	details := make(map[string]brain.CheckResult, len(checks))
	for _, check := range checks {
		result, err := check.run(ctx)
		if err != nil {
			s.logger.Error("account check failed",
				"run_id", runID,
				"account_id", account.ID,
				"check", check.name,
				"error", err,
			)
			return AccountResult{
				AccountID: account.ID,
				Status:    StatusError,
				Error:     fmt.Sprintf("%s: %v", check.name, err),
			}
		}
		details[check.name] = result
	}

	s.deliver(ctx, runID, account, details)

	return AccountResult{
		AccountID: account.ID,
		Status:    StatusChecked,
		Details:   details,
	}
}

// deliver sends actionable check results, subject to dedup, and persists a
// notification record for what went out.
func (s *Sweeper) deliver(ctx context.Context, runID string, account *model.Account, details map[string]brain.CheckResult) {
	now := s.opts.Now()

	var sent []string
	for _, name := range []string{brain.CheckPendingTasks, brain.CheckUpcomingBills, brain.CheckInactivity} {
		result, ok := details[name]
		if !ok || !result.Actionable {
			continue
		}

		if s.dedup != nil {
			first, err := s.dedup.MarkNotified(ctx, account.ID, name, now)
			if err != nil {
				// Dedup store trouble must not block the notification.
				s.logger.Warn("dedup check failed, sending anyway",
					"run_id", runID,
					"account_id", account.ID,
					"check", name,
					"error", err,
				)
			} else if !first {
				s.logger.Debug("notification suppressed by dedup",
					"run_id", runID,
					"account_id", account.ID,
					"check", name,
				)
				continue
			}
		}

		if err := s.sender.Send(ctx, account.Phone, result.Text); err != nil {
			s.logger.Error("notification send failed",
				"run_id", runID,
				"account_id", account.ID,
				"check", name,
				"error", err,
			)
			continue
		}
		sent = append(sent, name)
	}

	if len(sent) == 0 || s.log == nil {
		return
	}

	record := &model.NotificationRecord{
		ID:        ulid.Make().String(),
		AccountID: account.ID,
		RunID:     runID,
		Checks:    sent,
		SentAt:    now,
	}
	if err := s.log.InsertNotification(ctx, record); err != nil {
		s.logger.Error("failed to persist notification record",
			"run_id", runID,
			"account_id", account.ID,
			"error", err,
		)
	}
}
