package session_test

import (
	"testing"

	"careercraft/jobsearch-service/internal/session"
)

var allStates = []session.State{
	session.StateIdle, session.StateSearching, session.StateReady, session.StateReadyEmpty,
}

// ── ParseState ─────────────────────────────────────────────────────────────

func TestParseState_ValidValues(t *testing.T) {
	for _, s := range []string{"idle", "searching", "ready", "ready-empty"} {
		got, err := session.ParseState(s)
		if err != nil {
			t.Errorf("ParseState(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseState(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseState_InvalidValue(t *testing.T) {
	for _, s := range []string{"", "error", "READY"} {
		if _, err := session.ParseState(s); err == nil {
			t.Errorf("ParseState(%q) expected error, got nil", s)
		}
	}
}

// ── IsTransitionAllowed ───────────────────────────────────────────────────

func TestIsTransitionAllowed_AnyStateCanStartSearching(t *testing.T) {
	for _, from := range allStates {
		if !session.IsTransitionAllowed(from, session.StateSearching) {
			t.Errorf("IsTransitionAllowed(%s → searching) should be true", from)
		}
	}
}

func TestIsTransitionAllowed_OnlySearchingSettles(t *testing.T) {
	for _, to := range []session.State{session.StateReady, session.StateReadyEmpty} {
		for _, from := range allStates {
			want := from == session.StateSearching
			if got := session.IsTransitionAllowed(from, to); got != want {
				t.Errorf("IsTransitionAllowed(%s → %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestIsTransitionAllowed_NothingReturnsToIdle(t *testing.T) {
	for _, from := range allStates {
		if session.IsTransitionAllowed(from, session.StateIdle) {
			t.Errorf("IsTransitionAllowed(%s → idle) should be false", from)
		}
	}
}
