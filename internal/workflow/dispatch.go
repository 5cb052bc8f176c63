package workflow

import "github.com/kalambet/reqmine/internal/mining"

// dispatchFeedback decides where a resumed session re-enters the graph.
// The payload's type wins when set; otherwise the pending type recorded
// at pause time is used. An unrecognized type falls through to packaging
// rather than failing.
func dispatchFeedback(st *mining.MiningState) Node {
	var (
		typ       mining.FeedbackType
		confirmed bool
	)
	if st.LastFeedback != nil {
		typ = st.LastFeedback.Type
		confirmed = st.LastFeedback.Confirmation
	}
	if typ == "" {
		typ = st.FeedbackType
	}

	switch typ {
	case mining.FeedbackClarification:
		return NodeProcessClarification
	case mining.FeedbackSimpleStrategy:
		if confirmed {
			return NodePackageResults
		}
		return NodeProcessAdjustment
	case mining.FeedbackMetaArchitect:
		if confirmed {
			return NodeGenerateRoadmap
		}
		return NodeProcessAdjustment
	default:
		return NodePackageResults
	}
}
