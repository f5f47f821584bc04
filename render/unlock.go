package render

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// UnlockOutcome reports what an Unlocker did.
type UnlockOutcome int

const (
	// UnlockNotFound means no credential field appeared; the document is
	// treated as not protected.
	UnlockNotFound UnlockOutcome = iota
	// UnlockApplied means the credential was entered and confirmed.
	UnlockApplied
)

func (o UnlockOutcome) String() string {
	switch o {
	case UnlockNotFound:
		return "not_found"
	case UnlockApplied:
		return "applied"
	}
	return fmt.Sprintf("UnlockOutcome(%d)", int(o))
}

// MarshalText implements encoding.TextMarshaler.
func (o UnlockOutcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Unlocker enters a credential into a loaded page.
//
// A missing credential field is reported as UnlockNotFound, not as an
// error. Errors mean the target itself misbehaved.
type Unlocker interface {
	TryUnlock(ctx context.Context, t Target, credential string) (UnlockOutcome, error)
}

// Default selectors for FieldUnlocker.
const (
	DefaultPasswordSelector = `input[type="password"]`
	DefaultConfirmSelector  = `//button[contains(., "확인")]`
)

// FieldUnlocker types the credential into a password-style input and
// presses the confirm button. Without a confirm button it presses Enter in
// the field.
type FieldUnlocker struct {
	PasswordSelector string
	ConfirmSelector  string
	// Timeout bounds the wait for the password field.
	Timeout time.Duration
	// ConfirmTimeout bounds the wait for the confirm button once the
	// password field was found.
	ConfirmTimeout time.Duration
}

func (u FieldUnlocker) withDefaults() FieldUnlocker {
	if u.PasswordSelector == "" {
		u.PasswordSelector = DefaultPasswordSelector
	}
	if u.ConfirmSelector == "" {
		u.ConfirmSelector = DefaultConfirmSelector
	}
	if u.Timeout <= 0 {
		u.Timeout = 10 * time.Second
	}
	if u.ConfirmTimeout <= 0 {
		u.ConfirmTimeout = 2 * time.Second
	}
	return u
}

// TryUnlock implements Unlocker.
func (u FieldUnlocker) TryUnlock(ctx context.Context, t Target, credential string) (UnlockOutcome, error) {
	u = u.withDefaults()

	field, err := t.FindElement(ctx, u.PasswordSelector, u.Timeout)
	if errors.Is(err, ErrElementNotFound) {
		return UnlockNotFound, nil
	}
	if err != nil {
		return UnlockNotFound, fmt.Errorf("locating credential field: %w", err)
	}
	if err := field.SendKeys(ctx, credential); err != nil {
		return UnlockNotFound, fmt.Errorf("entering credential: %w", err)
	}

	button, err := t.FindElement(ctx, u.ConfirmSelector, u.ConfirmTimeout)
	switch {
	case errors.Is(err, ErrElementNotFound):
		if err := field.SendKeys(ctx, EnterKey); err != nil {
			return UnlockNotFound, fmt.Errorf("submitting credential: %w", err)
		}
	case err != nil:
		return UnlockNotFound, fmt.Errorf("locating confirm button: %w", err)
	default:
		if err := button.Click(ctx); err != nil {
			return UnlockNotFound, fmt.Errorf("confirming credential: %w", err)
		}
	}
	return UnlockApplied, nil
}
