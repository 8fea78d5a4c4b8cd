package difficulty

import (
	"context"
	"math"
	"sort"

	"github.com/google/uuid"

	"revisa-backend/internal/models"
)

// TopicAggregate is the per-topic rollup of one analysis pass. It is
// derived, never persisted.
type TopicAggregate struct {
	Topic          string   `json:"topic"`
	Total          int      `json:"total"`
	MeanSeverity   float64  `json:"mean_severity"`
	TotalFrequency int      `json:"total_frequency"`
	Origins        []string `json:"origins"`
	PriorityScore  float64  `json:"priority_score"`
}

// Analysis is the full rollup for a subject's unresolved difficulties.
type Analysis struct {
	Total        int                                 `json:"total"`
	ByOriginType map[string][]models.DifficultyEvent `json:"by_origin_type"`
	ByTopic      map[string]*TopicAggregate          `json:"by_topic"`
	TopTopics    []TopicAggregate                    `json:"top_topics"`
	OverallLevel int                                 `json:"overall_level"` // 0-100
}

const maxTopTopics = 5

// Analyzer computes per-topic statistics over unresolved difficulty
// events. Every call recomputes from storage; nothing is cached.
type Analyzer struct {
	events EventStore
}

func NewAnalyzer(events EventStore) *Analyzer {
	return &Analyzer{events: events}
}

// Analyze rolls up the subject's unresolved events. A subject with no
// events yields a zero-valued Analysis, not an error.
func (a *Analyzer) Analyze(ctx context.Context, userID, subjectID uuid.UUID) (*Analysis, error) {
	events, err := a.events.ListEvents(ctx, userID, subjectID, Unresolved())
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{
		ByOriginType: make(map[string][]models.DifficultyEvent),
		ByTopic:      make(map[string]*TopicAggregate),
		TopTopics:    []TopicAggregate{},
	}
	if len(events) == 0 {
		return analysis, nil
	}

	levelSum := 0
	for _, e := range events {
		analysis.ByOriginType[e.OriginType] = append(analysis.ByOriginType[e.OriginType], e)

		agg, ok := analysis.ByTopic[e.Topic]
		if !ok {
			agg = &TopicAggregate{Topic: e.Topic}
			analysis.ByTopic[e.Topic] = agg
		}
		agg.Total++
		agg.MeanSeverity += float64(e.DifficultyLevel)
		agg.TotalFrequency += e.Frequency
		agg.Origins = append(agg.Origins, e.OriginType)

		levelSum += e.DifficultyLevel
	}

	ranked := make([]TopicAggregate, 0, len(analysis.ByTopic))
	for _, agg := range analysis.ByTopic {
		agg.MeanSeverity /= float64(agg.Total)
		agg.PriorityScore = agg.MeanSeverity * float64(agg.TotalFrequency)
		ranked = append(ranked, *agg)
	}

	// Highest priority first; equal scores break lexicographically so
	// repeated runs rank identically.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].PriorityScore != ranked[j].PriorityScore {
			return ranked[i].PriorityScore > ranked[j].PriorityScore
		}
		return ranked[i].Topic < ranked[j].Topic
	})
	if len(ranked) > maxTopTopics {
		ranked = ranked[:maxTopTopics]
	}

	analysis.Total = len(events)
	analysis.TopTopics = ranked
	analysis.OverallLevel = int(math.Round(math.Min(100, float64(levelSum)/float64(len(events))*20)))

	return analysis, nil
}
