// Package autoreply selects the canned response for an inbound tenant message.
package autoreply

import (
	"sort"
	"strings"

	types "github.com/yungbote/rentalchat-backend/internal/domain"
)

// FallbackResponse is returned when no rule matches.
const FallbackResponse = "Thanks for your message! That question is outside our available quick replies, so the owner will get back to you personally as soon as possible."

// Result is the selected response. Rule is nil for the fallback.
type Result struct {
	Response string
	Rule     *types.AutoReplyRule
	Fallback bool
}

func kindRank(k types.MatchKind) int {
	switch k {
	case types.MatchExact:
		return 0
	case types.MatchStartsWith:
		return 1
	case types.MatchContains:
		return 2
	}
	return -1
}

// Normalize lowercases and trims a body or trigger before comparison.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func matches(kind types.MatchKind, body, trigger string) bool {
	switch kind {
	case types.MatchExact:
		return body == trigger
	case types.MatchStartsWith:
		return strings.HasPrefix(body, trigger)
	case types.MatchContains:
		return strings.Contains(body, trigger)
	}
	return false
}

type candidate struct {
	rule  *types.AutoReplyRule
	rank  int
	index int
}

// Match picks exactly one response for body. Among matching active rules the
// most specific kind wins (exact, then starts_with, then contains); equal
// kinds are ordered by Priority ascending, then by position in rules.
func Match(body string, rules []*types.AutoReplyRule) Result {
	b := Normalize(body)
	var cands []candidate
	for i, r := range rules {
		if r == nil || !r.Active {
			continue
		}
		rank := kindRank(r.MatchKind)
		if rank < 0 {
			continue
		}
		trig := Normalize(r.Trigger)
		if trig == "" || strings.TrimSpace(r.Response) == "" {
			continue
		}
		if matches(r.MatchKind, b, trig) {
			cands = append(cands, candidate{rule: r, rank: rank, index: i})
		}
	}
	if len(cands) == 0 {
		return Result{Response: FallbackResponse, Fallback: true}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].rank != cands[j].rank {
			return cands[i].rank < cands[j].rank
		}
		if cands[i].rule.Priority != cands[j].rule.Priority {
			return cands[i].rule.Priority < cands[j].rule.Priority
		}
		return cands[i].index < cands[j].index
	})
	best := cands[0].rule
	return Result{Response: best.Response, Rule: best}
}
