package session

import (
	"math"

	"github.com/shirooni/typebot/internal/scoring"
	"github.com/shirooni/typebot/internal/store"
)

// Summary aggregates the results of a finished test.
type Summary struct {
	WPM          int
	Accuracy     int
	BestWPM      int
	BestAccuracy int
	Rank         scoring.Rank

	// AvgWPM and AvgAccuracy are the unrounded means.
	AvgWPM      float64
	AvgAccuracy float64

	SuccessCount int
	Answered     int
	TimedOut     int
	Total        int
}

// Summarize computes means, bests and the final rank of t. ok is false
// when t has no results.
func Summarize(t *store.ActiveTest) (Summary, bool) {
	if len(t.Results) == 0 {
		return Summary{}, false
	}

	var s Summary
	var sumWPM, sumAcc int
	for _, r := range t.Results {
		sumWPM += r.WPM
		sumAcc += r.Accuracy
		s.BestWPM = max(s.BestWPM, r.WPM)
		s.BestAccuracy = max(s.BestAccuracy, r.Accuracy)
	}

	n := float64(len(t.Results))
	s.AvgWPM = float64(sumWPM) / n
	s.AvgAccuracy = float64(sumAcc) / n
	s.WPM = int(math.Round(s.AvgWPM))
	s.Accuracy = int(math.Round(s.AvgAccuracy))
	s.Rank = scoring.Classify(s.AvgWPM, s.AvgAccuracy, t.Kind.Mode())

	s.SuccessCount = t.SuccessCount
	s.Answered = len(t.Results)
	s.Total = len(t.Prompts)
	s.TimedOut = min(t.CurrentIndex, s.Total) - s.Answered
	return s, true
}

// ModeStats converts s for storage.
func (s Summary) ModeStats() store.ModeStats {
	return store.ModeStats{
		WPM:          s.WPM,
		Accuracy:     s.Accuracy,
		BestWPM:      s.BestWPM,
		BestAccuracy: s.BestAccuracy,
		Rank:         s.Rank,
		SuccessCount: s.SuccessCount,
		Total:        s.Total,
	}
}
