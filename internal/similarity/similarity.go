// Package similarity scores complaint pairs for duplication likelihood.
// Two independent signals feed the decision: token-overlap similarity over
// the descriptions, and an exact-match heuristic keyed on submitter identity
// plus location. Either one qualifies a candidate.
package similarity

import (
	"sort"
	"strings"

	"github.com/hazyhaar/grievd/internal/db"
)

// Params tunes the engine. The defaults reproduce the production policy;
// they are thresholds without a derived rationale, so they stay adjustable
// rather than being re-derived.
type Params struct {
	// Threshold is the minimum token-overlap score (exclusive) for a
	// candidate to qualify on text similarity alone.
	Threshold float64
	// MinTokenLen filters noise words: only tokens strictly longer than
	// this count toward the overlap.
	MinTokenLen int
	// Limit caps the returned matches.
	Limit int
}

func DefaultParams() Params {
	return Params{Threshold: 0.3, MinTokenLen: 3, Limit: 10}
}

// MatchType tags how a candidate qualified.
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchSimilar MatchType = "similar"
)

// Match pairs a qualifying candidate with its score. Matches are ephemeral:
// computed on demand, never persisted.
type Match struct {
	Complaint *db.Complaint `json:"complaint"`
	// Score is the token-overlap similarity in [0,1], reported even for
	// exact matches.
	Score float64   `json:"score"`
	Type  MatchType `json:"matchType"`
}

// Result is the outcome of one duplicate scan.
type Result struct {
	Original *db.Complaint `json:"original"`
	// Matches holds the top qualifying candidates, best first, capped at
	// Params.Limit.
	Matches []Match `json:"matches"`
	// TotalFound counts every qualifying candidate, not just the
	// truncated slice.
	TotalFound int `json:"totalFound"`
}

type Engine struct {
	params Params
}

func NewEngine(params Params) *Engine {
	if params.Limit <= 0 {
		params.Limit = 10
	}
	return &Engine{params: params}
}

// FindSimilar scans candidates for likely duplicates of target. Callers are
// expected to pass a pool that already excludes the target and resolved
// complaints (db.SimilarityCandidates does both). Candidates are evaluated
// in the given order; ties keep that order, so a creation-ordered pool gives
// deterministic output.
func (e *Engine) FindSimilar(target *db.Complaint, candidates []*db.Complaint) *Result {
	targetTokens := Tokens(target.Description, e.params.MinTokenLen)

	var matches []Match
	for _, candidate := range candidates {
		if candidate.ID == target.ID || candidate.Status == "resolved" {
			continue
		}

		score := overlap(targetTokens, Tokens(candidate.Description, e.params.MinTokenLen))
		exact := exactMatch(target, candidate)

		if score > e.params.Threshold || exact {
			matchType := MatchSimilar
			if exact {
				matchType = MatchExact
			}
			matches = append(matches, Match{Complaint: candidate, Score: score, Type: matchType})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	total := len(matches)
	if len(matches) > e.params.Limit {
		matches = matches[:e.params.Limit]
	}

	return &Result{Original: target, Matches: matches, TotalFound: total}
}

// Score computes the token-overlap similarity between two descriptions with
// the engine's parameters. Set semantics: repeated tokens count once, and
// Score(a, b) == Score(b, a).
func (e *Engine) Score(a, b string) float64 {
	return overlap(Tokens(a, e.params.MinTokenLen), Tokens(b, e.params.MinTokenLen))
}

// Tokens lowercases a description, splits on whitespace, and drops tokens of
// length <= minLen.
func Tokens(description string, minLen int) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(description)) {
		if len(tok) > minLen {
			set[tok] = true
		}
	}
	return set
}

// overlap is |a ∩ b| / max(|a|, |b|, 1). The 1 guards the divide-by-zero
// when both descriptions tokenize to nothing; such pairs score 0 and can
// only qualify through the exact-match heuristic.
func overlap(a, b map[string]bool) float64 {
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	if denom < 1 {
		denom = 1
	}
	return float64(intersection) / float64(denom)
}

// exactMatch reports whether two complaints look like the same person filing
// about the same place: submitter emails agree (account email or the email
// embedded in the complaint form) and the district or address agrees.
func exactMatch(a, b *db.Complaint) bool {
	if !sameSubmitter(a, b) {
		return false
	}
	if a.District != "" && a.District == b.District {
		return true
	}
	if a.Address != "" && a.Address == b.Address {
		return true
	}
	return false
}

func sameSubmitter(a, b *db.Complaint) bool {
	if ae, be := submitterEmail(a), submitterEmail(b); ae != "" && ae == be {
		return true
	}
	return a.Email != "" && a.Email == b.Email
}

func submitterEmail(c *db.Complaint) string {
	if c.Submitter != nil {
		return c.Submitter.Email
	}
	return ""
}
