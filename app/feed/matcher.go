package feed

import (
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/lysyi3m/story-comb/app/database"
	"github.com/pmezard/go-difflib/difflib"
)

const (
	// MatchWindow bounds how far a republished entry's timestamp may drift from the stored story.
	MatchWindow = 8 * time.Hour

	maxTitleDistance    = 5
	realQuickRatioFloor = 0.9
	quickRatioFloor     = 0.95
	contentRatioFloor   = 0.98
)

type similarity interface {
	RealQuickRatio() float64
	QuickRatio() float64
	Ratio() float64
}

type Matcher struct {
	newSimilarity func(a, b string) similarity
}

func NewMatcher() *Matcher {
	return &Matcher{
		newSimilarity: newSequenceSimilarity,
	}
}

// Run scans the snapshot in the given order and returns the first story the
// entry resolves to, and whether the entry changes it. A nil story means the
// entry is new.
func (m *Matcher) Run(entry Entry, snapshot []database.StoryRef) (*database.StoryRef, bool) {
	start := entry.Published.Add(-MatchWindow)
	end := entry.Published.Add(MatchWindow)

	for _, candidate := range snapshot {
		if candidate.Date.Before(start) || candidate.Date.After(end) {
			continue
		}

		identity := (entry.GUID != "" && entry.GUID == candidate.GUID) ||
			(entry.Link != "" && entry.Link == candidate.Permalink)

		titleDistance := levenshtein.ComputeDistance(entry.Title, candidate.Title)
		contentRatio := m.contentRatio(entry.Content, candidate.Content)

		switch {
		case titleDistance > 0 && titleDistance < maxTitleDistance && contentRatio > contentRatioFloor:
			return &candidate, true
		case !identity && contentRatio > contentRatioFloor:
			return &candidate, true
		case identity:
			return &candidate, entry.Content != candidate.Content
		}
	}

	return nil, false
}

// contentRatio is the exact similarity of a and b, or 0 when either quick
// upper bound rules a near-identical pair out.
func (m *Matcher) contentRatio(a, b string) float64 {
	seq := m.newSimilarity(a, b)
	if seq.RealQuickRatio() > realQuickRatioFloor && seq.QuickRatio() > quickRatioFloor {
		return seq.Ratio()
	}
	return 0
}

func newSequenceSimilarity(a, b string) similarity {
	return difflib.NewMatcher(splitRunes(a), splitRunes(b))
}

func splitRunes(s string) []string {
	runes := make([]string, 0, len(s))
	for _, r := range s {
		runes = append(runes, string(r))
	}
	return runes
}
