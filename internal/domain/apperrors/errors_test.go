package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindMatching(t *testing.T) {
	err := fmt.Errorf("failed to get habit: %w", NotFoundf("habit %s not found", "abc"))

	if !IsNotFound(err) {
		t.Fatal("expected wrapped not-found error to match ErrNotFound")
	}
	if IsConflict(err) || IsValidation(err) || IsUnavailable(err) {
		t.Fatal("not-found error matched another kind")
	}
	if KindOf(err) != KindNotFound {
		t.Errorf("KindOf = %q, want %q", KindOf(err), KindNotFound)
	}
	if err.Error() != "failed to get habit: habit abc not found" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestUnavailableKeepsDomainErrors(t *testing.T) {
	conflict := Conflictf("already checked in")
	if got := Unavailable("insert check-in", conflict); got != conflict {
		t.Fatalf("Unavailable reclassified a domain error: %v", got)
	}

	cause := errors.New("connection refused")
	err := Unavailable("query habits", cause)
	if !IsUnavailable(err) {
		t.Fatal("expected unavailable error")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be unwrapped")
	}
	if err.Error() != "query habits: connection refused" {
		t.Errorf("unexpected message %q", err.Error())
	}

	if Unavailable("noop", nil) != nil {
		t.Error("Unavailable(nil) should be nil")
	}
}

func TestKindOfUnclassified(t *testing.T) {
	if KindOf(errors.New("boom")) != "" {
		t.Error("expected empty kind for plain error")
	}
}
