package difficulty

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// PayloadTopic carries everything the remediation-summary generator
// needs to know about one problem topic. MaxLevel is a running maximum,
// not a mean: one level-5 event makes the whole topic level 5 here.
type PayloadTopic struct {
	Topic            string   `json:"topic"`
	Subtopics        []string `json:"subtopics"`
	RelatedQuestions []string `json:"related_questions"`
	OriginalTexts    []string `json:"original_texts"`
	MaxLevel         int      `json:"max_difficulty_level"`
	TotalFrequency   int      `json:"total_frequency"`
	Priority         int      `json:"priority"`
}

// PersonalizedSummaryPayload is the opaque contract handed to the LLM
// collaborator that formats it into a prompt.
type PersonalizedSummaryPayload struct {
	TotalDifficulties int             `json:"total_difficulties"`
	Topics            []PayloadTopic  `json:"topics"`
	Metadata          PayloadMetadata `json:"metadata"`
}

type PayloadMetadata struct {
	GeneratedAt time.Time `json:"generated_at"`
	SubjectID   uuid.UUID `json:"subject_id"`
}

// PayloadBuilder reshapes unresolved difficulties into the payload the
// personalized-summary generator consumes. It calls no external service.
type PayloadBuilder struct {
	events EventStore
}

func NewPayloadBuilder(events EventStore) *PayloadBuilder {
	return &PayloadBuilder{events: events}
}

// Build fails with *NoDifficultiesError when there is nothing to summarize.
func (b *PayloadBuilder) Build(ctx context.Context, userID, subjectID uuid.UUID) (*PersonalizedSummaryPayload, error) {
	events, err := b.events.ListEvents(ctx, userID, subjectID, Unresolved())
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, &NoDifficultiesError{}
	}

	byTopic := make(map[string]*PayloadTopic)
	order := []string{}
	for _, e := range events {
		t, ok := byTopic[e.Topic]
		if !ok {
			t = &PayloadTopic{Topic: e.Topic}
			byTopic[e.Topic] = t
			order = append(order, e.Topic)
		}
		if e.Subtopic != nil {
			t.Subtopics = append(t.Subtopics, *e.Subtopic)
		}
		if e.RelatedQuestion != nil {
			t.RelatedQuestions = append(t.RelatedQuestions, *e.RelatedQuestion)
		}
		if e.OriginalText != nil {
			t.OriginalTexts = append(t.OriginalTexts, *e.OriginalText)
		}
		if e.DifficultyLevel > t.MaxLevel {
			t.MaxLevel = e.DifficultyLevel
		}
		t.TotalFrequency += e.Frequency
	}

	topics := make([]PayloadTopic, 0, len(order))
	for _, name := range order {
		t := byTopic[name]
		t.Priority = t.MaxLevel * t.TotalFrequency
		topics = append(topics, *t)
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Priority != topics[j].Priority {
			return topics[i].Priority > topics[j].Priority
		}
		return topics[i].Topic < topics[j].Topic
	})

	return &PersonalizedSummaryPayload{
		TotalDifficulties: len(events),
		Topics:            topics,
		Metadata: PayloadMetadata{
			GeneratedAt: time.Now().UTC(),
			SubjectID:   subjectID,
		},
	}, nil
}
