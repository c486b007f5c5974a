package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/falconhq/falcon/internal/brain"
	"github.com/falconhq/falcon/internal/model"
	"github.com/falconhq/falcon/internal/repository"
	"github.com/falconhq/falcon/internal/resolver"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAccountStore backs the resolver in tests.
type fakeAccountStore struct {
	accounts map[string]*model.Account
	err      error
	lookups  int
}

func (f *fakeAccountStore) GetAccountByPhone(ctx context.Context, phone string) (*model.Account, error) {
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	if account, ok := f.accounts[phone]; ok {
		return account, nil
	}
	return nil, repository.ErrAccountNotFound
}

// fakeMessageStore backs the brain and activity recording in tests.
type fakeMessageStore struct {
	tasks      []model.Obligation
	tasksErr   error
	activities []model.ActivityEvent
}

func (f *fakeMessageStore) ListDueTasks(ctx context.Context, accountID string, cutoff time.Time) ([]model.Obligation, error) {
	return f.tasks, f.tasksErr
}

func (f *fakeMessageStore) ListPendingBills(ctx context.Context, accountID string, horizon time.Time) ([]model.Obligation, error) {
	return nil, nil
}

func (f *fakeMessageStore) LastActivity(ctx context.Context, accountID string) (time.Time, error) {
	return testNow.Add(-time.Hour), nil
}

func (f *fakeMessageStore) RecordActivity(ctx context.Context, event *model.ActivityEvent) error {
	f.activities = append(f.activities, *event)
	return nil
}

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(ctx context.Context, destination, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, destination)
	return nil
}

func brainOpts() brain.Options {
	return brain.Options{
		BillLookaheadDays:   3,
		InactivityThreshold: 72 * time.Hour,
		Now:                 func() time.Time { return testNow },
	}
}

func newHandler(accountStore *fakeAccountStore, store *fakeMessageStore, sender *fakeSender) *WebhookHandler {
	res := resolver.New(accountStore, "55")
	return NewWebhookHandler(res, store, sender, testLogger(), brainOpts())
}

func post(t *testing.T, h *WebhookHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook/falcon", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

const inboundPayload = `{
	"event": "messages.upsert",
	"instance": "falcon",
	"data": {
		"key": {"remoteJid": "5511987654321@s.whatsapp.net", "fromMe": false, "id": "MSG1"},
		"pushName": "Ana",
		"message": {"conversation": "quais minhas tarefas?"}
	}
}`

func TestReceive_ResolvesAndReplies(t *testing.T) {
	t.Parallel()

	// Stored without country code: the resolver has to strip the "55".
	accounts := &fakeAccountStore{accounts: map[string]*model.Account{
		"11987654321": {ID: "acc-1", Name: "Ana", Phone: "11987654321", FalconEnabled: true},
	}}
	store := &fakeMessageStore{tasks: []model.Obligation{{
		ID: "task-1", AccountID: "acc-1", Kind: model.KindTask,
		Title: "Estudar Go", DueAt: testNow.Add(-24 * time.Hour),
	}}}
	sender := &fakeSender{}

	rec := post(t, newHandler(accounts, store, sender), inboundPayload)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("expected success, got %v", body)
	}
	response, _ := body["response"].(string)
	if !strings.Contains(response, "Estudar Go") {
		t.Errorf("expected task summary in response, got %q", response)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(sender.sent))
	}
	if sender.sent[0] != "5511987654321" {
		t.Errorf("reply should use the provider form, got %s", sender.sent[0])
	}

	if len(store.activities) != 1 {
		t.Fatalf("expected 1 activity event, got %d", len(store.activities))
	}
	if store.activities[0].Kind != model.ActivityAssistantMessage {
		t.Errorf("unexpected activity kind %s", store.activities[0].Kind)
	}
}

func TestReceive_FromMeIgnored(t *testing.T) {
	t.Parallel()

	payload := strings.Replace(inboundPayload, `"fromMe": false`, `"fromMe": true`, 1)
	accounts := &fakeAccountStore{}
	sender := &fakeSender{}

	rec := post(t, newHandler(accounts, &fakeMessageStore{}, sender), payload)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["ignored"] != true {
		t.Errorf("expected ignored response, got %v", body)
	}
	if accounts.lookups != 0 {
		t.Errorf("echo must not hit the resolver, got %d lookups", accounts.lookups)
	}
	if len(sender.sent) != 0 {
		t.Errorf("echo must not trigger a send, got %d", len(sender.sent))
	}
}

func TestReceive_UnknownPhone(t *testing.T) {
	t.Parallel()

	accounts := &fakeAccountStore{accounts: map[string]*model.Account{}}
	sender := &fakeSender{}

	rec := post(t, newHandler(accounts, &fakeMessageStore{}, sender), inboundPayload)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "user_not_found" {
		t.Errorf("expected user_not_found, got %v", body)
	}
	if len(sender.sent) != 0 {
		t.Errorf("unknown sender must never get a reply, got %d sends", len(sender.sent))
	}
}

func TestReceive_FalconDisabled(t *testing.T) {
	t.Parallel()

	accounts := &fakeAccountStore{accounts: map[string]*model.Account{
		"11987654321": {ID: "acc-1", Phone: "11987654321", FalconEnabled: false},
	}}
	sender := &fakeSender{}

	rec := post(t, newHandler(accounts, &fakeMessageStore{}, sender), inboundPayload)

	body := decodeBody(t, rec)
	if body["status"] != "falcon_disabled" {
		t.Errorf("expected falcon_disabled, got %v", body)
	}
	if len(sender.sent) != 0 {
		t.Errorf("opted-out account must never trigger a send, got %d", len(sender.sent))
	}
}

func TestReceive_MalformedPayloads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"not json", "this is not json"},
		{"empty object", "{}"},
		{"no key", `{"data":{"message":{"conversation":"oi"}}}`},
		{"no message", `{"data":{"key":{"remoteJid":"5511987654321@s.whatsapp.net","fromMe":false}}}`},
		{"empty text", `{"data":{"key":{"remoteJid":"5511987654321@s.whatsapp.net","fromMe":false},"message":{"conversation":"   "}}}`},
		{"no digits in sender", `{"data":{"key":{"remoteJid":"status@broadcast","fromMe":false},"message":{"conversation":"oi"}}}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := &fakeSender{}
			rec := post(t, newHandler(&fakeAccountStore{}, &fakeMessageStore{}, sender), tt.body)

			if rec.Code != http.StatusOK {
				t.Fatalf("malformed payload must not be an error, got %d", rec.Code)
			}
			body := decodeBody(t, rec)
			if body["ignored"] != true {
				t.Errorf("expected ignored response, got %v", body)
			}
			if len(sender.sent) != 0 {
				t.Errorf("ignored payload must not trigger a send")
			}
		})
	}
}

func TestReceive_ExtendedTextVariant(t *testing.T) {
	t.Parallel()

	payload := `{
		"data": {
			"key": {"remoteJid": "5511987654321@s.whatsapp.net", "fromMe": false},
			"message": {"extendedTextMessage": {"text": "quanto devo?"}}
		}
	}`
	accounts := &fakeAccountStore{accounts: map[string]*model.Account{
		"11987654321": {ID: "acc-1", Phone: "11987654321", FalconEnabled: true},
	}}
	sender := &fakeSender{}

	rec := post(t, newHandler(accounts, &fakeMessageStore{}, sender), payload)

	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("expected success for extended text, got %v", body)
	}
}

func TestReceive_StoreFailureIs500(t *testing.T) {
	t.Parallel()

	accounts := &fakeAccountStore{accounts: map[string]*model.Account{
		"11987654321": {ID: "acc-1", Phone: "11987654321", FalconEnabled: true},
	}}
	store := &fakeMessageStore{tasksErr: errors.New("pq: connection refused")}
	sender := &fakeSender{}

	rec := post(t, newHandler(accounts, store, sender), inboundPayload)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if msg, _ := body["error"].(string); strings.Contains(msg, "pq:") {
		t.Errorf("internal detail leaked to caller: %q", msg)
	}
	if len(sender.sent) != 0 {
		t.Errorf("failed processing must not send, got %d", len(sender.sent))
	}
}

func TestReceive_ResolverFailureIs500(t *testing.T) {
	t.Parallel()

	accounts := &fakeAccountStore{err: errors.New("db unreachable")}

	rec := post(t, newHandler(accounts, &fakeMessageStore{}, &fakeSender{}), inboundPayload)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestReceive_SendFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	accounts := &fakeAccountStore{accounts: map[string]*model.Account{
		"11987654321": {ID: "acc-1", Phone: "11987654321", FalconEnabled: true},
	}}
	sender := &fakeSender{err: errors.New("provider timeout")}

	rec := post(t, newHandler(accounts, &fakeMessageStore{}, sender), inboundPayload)

	if rec.Code != http.StatusOK {
		t.Fatalf("reply delivery is best effort, expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("expected success despite send failure, got %v", body)
	}
}

func TestExtractDigits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address string
		want    string
	}{
		{"5511987654321@s.whatsapp.net", "5511987654321"},
		{"5511987654321", "5511987654321"},
		{"+55 11 98765-4321@c.us", "5511987654321"},
		{"status@broadcast", ""},
		{"", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.address, func(t *testing.T) {
			t.Parallel()

			if got := extractDigits(tt.address); got != tt.want {
				t.Errorf("extractDigits(%q) = %q, want %q", tt.address, got, tt.want)
			}
		})
	}
}
