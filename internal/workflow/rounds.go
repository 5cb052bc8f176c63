package workflow

import "github.com/kalambet/reqmine/internal/mining"

// defaultMaxRounds bounds clarification cycles per session. Once reached,
// the limiter forces compliance so the workflow always makes progress.
const defaultMaxRounds = 3

type roundLimiter struct {
	max int
}

func newRoundLimiter(max int) *roundLimiter {
	if max <= 0 {
		max = defaultMaxRounds
	}
	return &roundLimiter{max: max}
}

// shouldForce reports whether the session has exhausted its rounds.
func (l *roundLimiter) shouldForce(st *mining.MiningState) bool {
	return st.Context.CurrentRound >= l.max
}

// advance consumes one round and returns the new round number.
func (l *roundLimiter) advance(st *mining.MiningState) int {
	st.Context.CurrentRound++
	return st.Context.CurrentRound
}

// dedupeQuestions returns the incoming questions not already asked,
// preserving first-seen order within the incoming batch.
func dedupeQuestions(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing)+len(incoming))
	for _, q := range existing {
		seen[q] = true
	}

	var fresh []string
	for _, q := range incoming {
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		fresh = append(fresh, q)
	}
	return fresh
}
