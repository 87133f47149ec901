package errors_test

import (
	"errors"
	"fmt"
	"testing"

	berr "github.com/next-trace/scg-mics/contract/errors"
)

func TestCodeAndVars(t *testing.T) {
	e := berr.Code(berr.ErrCodePublishFailed)
	if e.Error() != berr.ErrCodePublishFailed {
		t.Fatalf("unexpected error string: %s", e.Error())
	}

	// exported variables must carry their codes
	tests := []struct {
		err  error
		code string
	}{
		{berr.ErrActorNotRegistered, berr.ErrCodeActorNotRegistered},
		{berr.ErrActorUnregistered, berr.ErrCodeActorUnregistered},
		{berr.ErrHandlerFailed, berr.ErrCodeHandlerFailed},
		{berr.ErrTimeout, berr.ErrCodeTimeout},
		{berr.ErrNoSubscribers, berr.ErrCodeNoSubscribers},
		{berr.ErrTapNotConfigured, berr.ErrCodeTapNotConfigured},
		{berr.ErrPublishFailed, berr.ErrCodePublishFailed},
		{berr.ErrSerializationFailed, berr.ErrCodeSerializationFailed},
		{berr.ErrInvalidConfig, berr.ErrCodeInvalidConfig},
		{berr.ErrAlreadyStarted, berr.ErrCodeAlreadyStarted},
	}

	for _, tc := range tests {
		if !errors.Is(tc.err, berr.Code(tc.code)) {
			t.Fatalf("expected %s to be %s", tc.err, tc.code)
		}
	}
}

func TestWrappedCodesStayComparable(t *testing.T) {
	err := fmt.Errorf("await %s: %w", "camera-1", berr.ErrActorNotRegistered)
	if !errors.Is(err, berr.ErrActorNotRegistered) {
		t.Fatalf("wrapped error lost its code: %v", err)
	}

	if errors.Is(err, berr.ErrActorUnregistered) {
		t.Fatalf("distinct codes must not match")
	}
}
