package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err    error
		kind   Kind
		status int
	}{
		{NotFound("chore not found"), KindNotFound, http.StatusNotFound},
		{fmt.Errorf("complete: %w", Forbidden("not a member")), KindForbidden, http.StatusForbidden},
		{InvalidInput("title is required"), KindInvalidInput, http.StatusBadRequest},
		{Conflict("already a member"), KindConflict, http.StatusConflict},
		{Unauthorized("no session"), KindUnauthorized, http.StatusUnauthorized},
		{errors.New("disk on fire"), KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.kind {
			t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.kind)
		}
		if got := KindOf(tt.err).Status(); got != tt.status {
			t.Errorf("status for %v = %d, want %d", tt.err, got, tt.status)
		}
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("join: %w", NotFound("group not found with this join code"))
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is to match ErrNotFound")
	}
	if errors.Is(err, ErrConflict) {
		t.Error("did not expect errors.Is to match ErrConflict")
	}
}

func TestMessageHidesInternal(t *testing.T) {
	if got := Message(errors.New("sqlite: database is locked")); got != "internal server error" {
		t.Errorf("Message = %q", got)
	}
	if got := Message(Conflict("already a member")); got != "already a member" {
		t.Errorf("Message = %q", got)
	}
}
