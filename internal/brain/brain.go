// Package brain derives per-account check results and replies for the
// Falcon assistant. Checks are read-only over obligation data; anything that
// marks state as notified lives with the caller, backed by a persisted
// record.
package brain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/falconhq/falcon/internal/model"
)

// Check names used in sweep reports, dedup keys and the notification log.
const (
	CheckPendingTasks  = "pending_tasks"
	CheckUpcomingBills = "upcoming_bills"
	CheckInactivity    = "inactivity"
)

// CheckResult is the outcome of a single check: a reply-ready text and
// whether the check found something worth notifying about. Never persisted.
type CheckResult struct {
	Text       string `json:"text"`
	Actionable bool   `json:"actionable"`
}

// Store is the read surface the brain needs over obligation and activity
// data.
type Store interface {
	ListDueTasks(ctx context.Context, accountID string, cutoff time.Time) ([]model.Obligation, error)
	ListPendingBills(ctx context.Context, accountID string, horizon time.Time) ([]model.Obligation, error)
	LastActivity(ctx context.Context, accountID string) (time.Time, error)
}

// Options tune the checks. Zero values fall back to sane defaults.
type Options struct {
	BillLookaheadDays   int
	InactivityThreshold time.Duration

	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

// Brain runs the assistant checks for a single account. Construct one per
// request or per sweep iteration; it holds no state across calls.
type Brain struct {
	account *model.Account
	store   Store
	opts    Options
}

// New creates a Brain for the given account.
func New(account *model.Account, store Store, opts Options) *Brain {
	if opts.BillLookaheadDays <= 0 {
		opts.BillLookaheadDays = 3
	}
	if opts.InactivityThreshold <= 0 {
		opts.InactivityThreshold = 72 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Brain{
		account: account,
		store:   store,
		opts:    opts,
	}
}

// CheckPendingTasks reports the account's tasks due today or overdue and not
// completed. Actionable iff at least one qualifies.
func (b *Brain) CheckPendingTasks(ctx context.Context) (CheckResult, error) {
	now := b.opts.Now()
	cutoff := endOfDay(now)

	tasks, err := b.store.ListDueTasks(ctx, b.account.ID, cutoff)
	if err != nil {
		return CheckResult{}, fmt.Errorf("list due tasks: %w", err)
	}

	if len(tasks) == 0 {
		return CheckResult{
			Text:       "Você está em dia! Nenhuma tarefa pendente para hoje. ✅",
			Actionable: false,
		}, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 Você tem %d tarefa(s) para hoje:\n", len(tasks))
	for _, task := range tasks {
		if task.Overdue(now) {
			fmt.Fprintf(&sb, "• %s (atrasada)\n", task.Title)
		} else {
			fmt.Fprintf(&sb, "• %s\n", task.Title)
		}
	}
	sb.WriteString("Vamos lá? 💪")

	return CheckResult{Text: sb.String(), Actionable: true}, nil
}

// NotifyUpcomingBills reports bills due within the lookahead window or
// already overdue, with per-bucket amount sums. The overdue and due-soon
// phrasings are deliberately distinct.
func (b *Brain) NotifyUpcomingBills(ctx context.Context) (CheckResult, error) {
	now := b.opts.Now()
	horizon := endOfDay(now.AddDate(0, 0, b.opts.BillLookaheadDays))

	bills, err := b.store.ListPendingBills(ctx, b.account.ID, horizon)
	if err != nil {
		return CheckResult{}, fmt.Errorf("list pending bills: %w", err)
	}

	var (
		overdue, dueSoon           []model.Obligation
		overdueTotal, dueSoonTotal decimal.Decimal
	)
	for _, bill := range bills {
		if bill.Overdue(now) {
			overdue = append(overdue, bill)
			overdueTotal = overdueTotal.Add(bill.Amount)
		} else {
			dueSoon = append(dueSoon, bill)
			dueSoonTotal = dueSoonTotal.Add(bill.Amount)
		}
	}

	if len(overdue) == 0 && len(dueSoon) == 0 {
		return CheckResult{
			Text:       fmt.Sprintf("Nenhuma conta para vencer nos próximos %d dias. 👍", b.opts.BillLookaheadDays),
			Actionable: false,
		}, nil
	}

	var sb strings.Builder
	if len(overdue) > 0 {
		fmt.Fprintf(&sb, "🚨 Você tem %d conta(s) vencida(s), total R$ %s:\n", len(overdue), overdueTotal.StringFixed(2))
		for _, bill := range overdue {
			fmt.Fprintf(&sb, "• %s — R$ %s (venceu %s)\n", bill.Title, bill.Amount.StringFixed(2), bill.DueAt.Format("02/01"))
		}
	}
	if len(dueSoon) > 0 {
		fmt.Fprintf(&sb, "📅 Conta(s) vencendo nos próximos %d dias, total R$ %s:\n", b.opts.BillLookaheadDays, dueSoonTotal.StringFixed(2))
		for _, bill := range dueSoon {
			fmt.Fprintf(&sb, "• %s — R$ %s (vence %s)\n", bill.Title, bill.Amount.StringFixed(2), bill.DueAt.Format("02/01"))
		}
	}

	return CheckResult{Text: strings.TrimRight(sb.String(), "\n"), Actionable: true}, nil
}

// CheckInactivity compares the account's last recorded activity against the
// configured threshold. An account with no recorded activity counts as
// inactive.
func (b *Brain) CheckInactivity(ctx context.Context) (CheckResult, error) {
	now := b.opts.Now()

	last, err := b.store.LastActivity(ctx, b.account.ID)
	if err != nil {
		return CheckResult{}, fmt.Errorf("last activity: %w", err)
	}

	if last.IsZero() {
		return CheckResult{
			Text:       "Sentimos sua falta! Que tal registrar sua primeira atividade hoje? 🌱",
			Actionable: true,
		}, nil
	}

	gap := now.Sub(last)
	if gap <= b.opts.InactivityThreshold {
		return CheckResult{
			Text:       "Atividade recente registrada, tudo certo por aqui.",
			Actionable: false,
		}, nil
	}

	days := int(gap.Hours() / 24)
	return CheckResult{
		Text:       fmt.Sprintf("Faz %d dia(s) que você não registra nada por aqui. Bora retomar o ritmo? 🚀", days),
		Actionable: true,
	}, nil
}

// endOfDay returns the last instant of the day containing t, in t's location.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
