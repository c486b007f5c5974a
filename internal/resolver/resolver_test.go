package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/falconhq/falcon/internal/model"
	"github.com/falconhq/falcon/internal/repository"
)

// fakeStore resolves phones from a fixed map and counts lookups.
type fakeStore struct {
	accounts map[string]*model.Account
	err      error
	lookups  []string
}

func (f *fakeStore) GetAccountByPhone(ctx context.Context, phone string) (*model.Account, error) {
	f.lookups = append(f.lookups, phone)
	if f.err != nil {
		return nil, f.err
	}
	if account, ok := f.accounts[phone]; ok {
		return account, nil
	}
	return nil, repository.ErrAccountNotFound
}

func TestResolve_ExactMatch(t *testing.T) {
	t.Parallel()

	store := &fakeStore{accounts: map[string]*model.Account{
		"5511987654321": {ID: "acc-1", Phone: "5511987654321"},
	}}
	r := New(store, "55")

	account, err := r.Resolve(context.Background(), "5511987654321")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if account.ID != "acc-1" {
		t.Errorf("expected acc-1, got %s", account.ID)
	}
	if len(store.lookups) != 1 {
		t.Errorf("expected 1 lookup, got %d", len(store.lookups))
	}
}

func TestResolve_StripsCountryCode(t *testing.T) {
	t.Parallel()

	// Stored without the country code, sender arrives with it.
	store := &fakeStore{accounts: map[string]*model.Account{
		"11987654321": {ID: "acc-1", Phone: "11987654321"},
	}}
	r := New(store, "55")

	account, err := r.Resolve(context.Background(), "5511987654321")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if account.ID != "acc-1" {
		t.Errorf("expected acc-1, got %s", account.ID)
	}

	want := []string{"5511987654321", "11987654321"}
	if len(store.lookups) != 2 || store.lookups[0] != want[0] || store.lookups[1] != want[1] {
		t.Errorf("lookups = %v, want %v", store.lookups, want)
	}
}

func TestResolve_NotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		digits string
	}{
		{"no match either form", "5511900000000"},
		{"no prefix to strip", "11900000000"},
		{"empty input", ""},
		{"digits equal to prefix", "55"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &fakeStore{accounts: map[string]*model.Account{}}
			r := New(store, "55")

			_, err := r.Resolve(context.Background(), tt.digits)
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestResolve_StoreErrorPropagates(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("connection refused")
	store := &fakeStore{err: storeErr}
	r := New(store, "55")

	_, err := r.Resolve(context.Background(), "5511987654321")
	if !errors.Is(err, storeErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("store failure must not be reported as not found")
	}
}

func TestReplyAddress(t *testing.T) {
	t.Parallel()

	r := New(&fakeStore{}, "55")
	account := &model.Account{ID: "acc-1", Phone: "11987654321"}

	if got := r.ReplyAddress(account, "5511987654321"); got != "5511987654321" {
		t.Errorf("expected provider form to win, got %s", got)
	}
	if got := r.ReplyAddress(account, ""); got != "11987654321" {
		t.Errorf("expected stored phone fallback, got %s", got)
	}
}
