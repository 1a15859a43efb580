package autoreply

import (
	"testing"

	types "github.com/yungbote/rentalchat-backend/internal/domain"
)

func rule(kind types.MatchKind, trigger, response string, priority int) *types.AutoReplyRule {
	return &types.AutoReplyRule{Trigger: trigger, MatchKind: kind, Response: response, Active: true, Priority: priority}
}

func TestMatchPrecedence(t *testing.T) {
	rules := []*types.AutoReplyRule{
		rule(types.MatchContains, "ick", "R3", 0),
		rule(types.MatchStartsWith, "h", "R2", 0),
		rule(types.MatchExact, "hi", "R1", 0),
	}
	cases := []struct {
		name string
		body string
		want string
	}{
		{"exact beats starts_with", "hi", "R1"},
		{"starts_with", "hey", "R2"},
		{"contains", "chicken", "R3"},
		{"normalized", "  HI  ", "R1"},
		{"no match", "good morning", FallbackResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Match(tc.body, rules)
			if got.Response != tc.want {
				t.Fatalf("Match(%q): expected %q, got %q", tc.body, tc.want, got.Response)
			}
			if (tc.want == FallbackResponse) != got.Fallback {
				t.Fatalf("Match(%q): fallback flag %v", tc.body, got.Fallback)
			}
		})
	}
}

func TestMatchTieBreakIsDeterministic(t *testing.T) {
	rules := []*types.AutoReplyRule{
		rule(types.MatchContains, "rent", "late-priority", 9),
		rule(types.MatchContains, "price", "first-declared", 1),
		rule(types.MatchContains, "rent", "second-declared", 1),
	}
	for i := 0; i < 20; i++ {
		got := Match("what is the rent price?", rules)
		if got.Response != "first-declared" {
			t.Fatalf("iteration %d: expected first-declared, got %q", i, got.Response)
		}
	}
}

func TestMatchSkipsInactiveAndEmptyTriggers(t *testing.T) {
	off := rule(types.MatchExact, "parking", "OFF", 0)
	off.Active = false
	rules := []*types.AutoReplyRule{
		off,
		rule(types.MatchContains, "   ", "BLANK", 0),
		rule(types.MatchContains, "park", "ON", 5),
		nil,
	}
	got := Match("Parking", rules)
	if got.Response != "ON" {
		t.Fatalf("expected ON, got %q", got.Response)
	}
	if got.Rule == nil || got.Rule.Response != "ON" {
		t.Fatalf("expected matched rule, got %+v", got.Rule)
	}
}

func TestMatchNeverReturnsEmpty(t *testing.T) {
	got := Match("", nil)
	if got.Response == "" || !got.Fallback {
		t.Fatalf("expected fallback for empty input, got %+v", got)
	}
}
