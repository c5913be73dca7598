package store

import "sort"

// topGapCount is how many knowledge tags Stats reports.
const topGapCount = 5

// Stats aggregates the whole table.
type Stats struct {
	TotalMistakes        int            `json:"total_mistakes"`
	MistakesByType       map[string]int `json:"mistakes_by_type"`
	MistakesByDifficulty map[string]int `json:"mistakes_by_difficulty"`
	TopKnowledgeGaps     []string       `json:"top_knowledge_gaps"`

	// AccuracyTrend is a placeholder. The store records mistakes only and
	// has no pass/fail re-attempt signal, so there is nothing real to
	// compute a trend from; the series is always empty.
	AccuracyTrend []float64 `json:"accuracy_trend"`
}

// Stats computes aggregate counts over all readable records. Top knowledge
// gaps are the most frequent tags, ties broken by first appearance.
func (s *Store) Stats() (Stats, error) {
	recs, err := s.readAll()
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		TotalMistakes:        len(recs),
		MistakesByType:       make(map[string]int),
		MistakesByDifficulty: make(map[string]int),
		TopKnowledgeGaps:     []string{},
		AccuracyTrend:        []float64{},
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0
	for i := range recs {
		st.MistakesByType[string(recs[i].QuestionType)]++
		st.MistakesByDifficulty[string(recs[i].Difficulty)]++
		for _, tag := range recs[i].KnowledgeTags {
			if _, seen := firstSeen[tag]; !seen {
				firstSeen[tag] = order
				order++
			}
			counts[tag]++
		}
	}

	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(a, b int) bool {
		if counts[tags[a]] != counts[tags[b]] {
			return counts[tags[a]] > counts[tags[b]]
		}
		return firstSeen[tags[a]] < firstSeen[tags[b]]
	})
	if len(tags) > topGapCount {
		tags = tags[:topGapCount]
	}
	st.TopKnowledgeGaps = tags

	return st, nil
}
