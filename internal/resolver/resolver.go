// Package resolver maps inbound channel phone digits to accounts.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/falconhq/falcon/internal/model"
	"github.com/falconhq/falcon/internal/repository"
)

// ErrNotFound is returned when no account matches the phone digits.
// A miss is a normal negative result, not a failure.
var ErrNotFound = errors.New("no account for phone")

// AccountStore is the lookup surface the resolver needs.
// Implementations must return repository.ErrAccountNotFound on a miss and
// must never match more than one account.
type AccountStore interface {
	GetAccountByPhone(ctx context.Context, phone string) (*model.Account, error)
}

// Resolver resolves digits-only phone strings to accounts. Stored phones may
// or may not carry the country code, so a failed exact lookup is retried once
// with the configured prefix stripped. No fuzzy matching.
type Resolver struct {
	store       AccountStore
	countryCode string
}

// New creates a Resolver.
func New(store AccountStore, countryCode string) *Resolver {
	return &Resolver{
		store:       store,
		countryCode: countryCode,
	}
}

// Resolve maps raw phone digits to at most one account.
// Returns ErrNotFound when neither the raw digits nor the prefix-stripped
// form matches exactly one account.
func (r *Resolver) Resolve(ctx context.Context, rawDigits string) (*model.Account, error) {
	if rawDigits == "" {
		return nil, ErrNotFound
	}

	account, err := r.store.GetAccountByPhone(ctx, rawDigits)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, fmt.Errorf("phone lookup failed: %w", err)
	}

	// Retry with the default country code stripped: accounts created before
	// phone normalization store the local form.
	stripped, ok := r.stripCountryCode(rawDigits)
	if !ok {
		return nil, ErrNotFound
	}

	account, err = r.store.GetAccountByPhone(ctx, stripped)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, fmt.Errorf("phone lookup failed: %w", err)
	}

	return nil, ErrNotFound
}

// ReplyAddress returns the channel address replies should go to. The form
// the provider delivered the message from takes precedence over the stored
// phone, which may lack the country code.
func (r *Resolver) ReplyAddress(account *model.Account, rawDigits string) string {
	if rawDigits != "" {
		return rawDigits
	}
	return account.Phone
}

func (r *Resolver) stripCountryCode(digits string) (string, bool) {
	if r.countryCode == "" || !strings.HasPrefix(digits, r.countryCode) {
		return "", false
	}
	stripped := digits[len(r.countryCode):]
	if stripped == "" {
		return "", false
	}
	return stripped, true
}
