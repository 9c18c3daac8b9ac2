// Package notify delivers completion notifications for finished dub jobs.
package notify

import (
	"context"
	"errors"
)

// ErrNotImplemented is returned by notifiers whose delivery channel is not
// wired up yet. Callers should log and continue; a missing notification
// never fails a job.
var ErrNotImplemented = errors.New("notification channel not implemented")

// Notifier delivers a short completion message.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// Email is a placeholder email notifier.
// TODO: wire up SMTP settings once the delivery account exists.
type Email struct{}

// NewEmail creates the email notifier.
func NewEmail() *Email {
	return &Email{}
}

// Notify reports that email delivery is not available.
func (e *Email) Notify(ctx context.Context, subject, body string) error {
	return ErrNotImplemented
}
