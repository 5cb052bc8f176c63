package classifier

import (
	"regexp"
	"strings"

	"github.com/kalambet/reqmine/internal/mining"
)

// Lexical fallback: used when neither the model's answer nor its criteria
// analysis yields a demand state.

const compactRequestWords = 25

var vaguePhrases = []string{
	"help me",
	"help with",
	"do something",
	"not sure",
	"don't know",
	"figure out",
	"anything",
	"somehow",
	"whatever",
	"some stuff",
}

var topicIndicators = []string{
	"revenue", "sales", "growth", "market", "customer", "churn",
	"product", "pipeline", "conversion", "campaign", "budget",
	"performance", "traffic", "retention", "cost", "forecast",
	"report", "dashboard", "dataset", "survey", "analysis",
	"analyze", "compare", "benchmark", "audit",
}

var timePattern = regexp.MustCompile(`(?i)\b(q[1-4]|20\d{2}|jan(uary)?|feb(ruary)?|mar(ch)?|apr(il)?|may|jun(e)?|jul(y)?|aug(ust)?|sep(tember)?|oct(ober)?|nov(ember)?|dec(ember)?|weekly|monthly|quarterly|annual|daily|week|month|quarter|year|deadline)\b`)

// stateFromHeuristics derives a demand state from surface features of the
// raw input. Returns false only when the input carries no signal at all.
func stateFromHeuristics(text string) (mining.DemandState, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}

	lower := strings.ToLower(trimmed)
	words := len(strings.Fields(trimmed))

	for _, phrase := range vaguePhrases {
		if strings.Contains(lower, phrase) {
			return mining.DemandVagueUnclear, true
		}
	}
	if words < 4 {
		return mining.DemandVagueUnclear, true
	}

	topical := hasTopicIndicator(lower)
	timeBound := timePattern.MatchString(trimmed)

	switch {
	case topical && timeBound:
		if words <= compactRequestWords {
			return mining.DemandSmartCompliant, true
		}
		return mining.DemandSmartLargeScope, true
	case topical:
		return mining.DemandSmartCompliant, true
	default:
		return mining.DemandSmartLargeScope, true
	}
}

func hasTopicIndicator(lower string) bool {
	for _, w := range topicIndicators {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
