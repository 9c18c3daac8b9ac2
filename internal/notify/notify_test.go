package notify

import (
	"context"
	"errors"
	"testing"
)

func TestEmailNotifyNotImplemented(t *testing.T) {
	err := NewEmail().Notify(context.Background(), "done", "job finished")
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("Notify() = %v, want ErrNotImplemented", err)
	}
}
