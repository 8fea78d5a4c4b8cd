package difficulty

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

type Action struct {
	Type string `json:"type"` // "quiz" | "flashcard" | "summary"
	Text string `json:"text"`
}

// Gap is one problem topic enriched for display. Derived, not persisted.
type Gap struct {
	Topic       string   `json:"topic"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Actions     []Action `json:"actions"`
}

type Recommendation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    int      `json:"priority"`
	Topics      []string `json:"topics,omitempty"`
}

type GapReport struct {
	HasGaps         bool             `json:"has_gaps"`
	Gaps            []Gap            `json:"gaps"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Advisor classifies aggregated difficulties into knowledge gaps and
// decides when a personalized remediation summary is worth offering.
type Advisor struct {
	analyzer *Analyzer
	events   EventStore
}

func NewAdvisor(analyzer *Analyzer, events EventStore) *Advisor {
	return &Advisor{analyzer: analyzer, events: events}
}

// IdentifyGaps builds a gap report over the subject's top problem topics.
func (a *Advisor) IdentifyGaps(ctx context.Context, userID, subjectID uuid.UUID) (*GapReport, error) {
	analysis, err := a.analyzer.Analyze(ctx, userID, subjectID)
	if err != nil {
		return nil, err
	}
	if analysis.Total == 0 {
		return &GapReport{Gaps: []Gap{}, Recommendations: []Recommendation{}}, nil
	}

	gaps := make([]Gap, 0, len(analysis.TopTopics))
	for _, t := range analysis.TopTopics {
		gaps = append(gaps, Gap{
			Topic:       t.Topic,
			Severity:    classifySeverity(t.MeanSeverity, t.TotalFrequency),
			Description: describeGap(t),
			Actions:     recommendActions(t),
		})
	}

	return &GapReport{
		HasGaps:         len(gaps) > 0,
		Gaps:            gaps,
		Recommendations: buildRecommendations(gaps),
	}, nil
}

// ShouldOfferPersonalizedSummary is a cheap gate: at least 3 unresolved
// events, or one of level 3+, or 2+ distinct topics. A storage failure
// yields false so a broken difficulty store never blocks the study flow.
func (a *Advisor) ShouldOfferPersonalizedSummary(ctx context.Context, userID, subjectID uuid.UUID) bool {
	events, err := a.events.ListEvents(ctx, userID, subjectID, Unresolved())
	if err != nil {
		log.Printf("difficulty: personalized-summary check failed, offering nothing: %v", err)
		return false
	}

	if len(events) >= 3 {
		return true
	}
	topics := make(map[string]bool)
	for _, e := range events {
		if e.DifficultyLevel >= 3 {
			return true
		}
		topics[e.Topic] = true
	}
	return len(topics) >= 2
}

// classifySeverity weights mean severity over raw repetition; frequency
// is capped at 10 so one runaway topic cannot dominate on count alone.
func classifySeverity(meanSeverity float64, totalFrequency int) Severity {
	freq := totalFrequency
	if freq > 10 {
		freq = 10
	}
	score := meanSeverity*0.6 + float64(freq)*0.4

	switch {
	case score >= 4:
		return SeverityCritical
	case score >= 3:
		return SeverityHigh
	case score >= 2:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func describeGap(t TopicAggregate) string {
	switch {
	case t.MeanSeverity >= 4 && t.TotalFrequency >= 5:
		return fmt.Sprintf(`Critical difficulty: you answered "I don't know" %d times on this topic.`, t.TotalFrequency)
	case t.MeanSeverity >= 3:
		return "Significant difficulty: revising this concept should come first."
	default:
		return "Moderate difficulty: revisiting this topic may help."
	}
}

func recommendActions(t TopicAggregate) []Action {
	var actions []Action
	if containsOrigin(t.Origins, "quiz") {
		actions = append(actions, Action{Type: "quiz", Text: "Redo a quiz focused on this topic"})
	}
	if containsOrigin(t.Origins, "flashcard") {
		actions = append(actions, Action{Type: "flashcard", Text: "Review the flashcards for this topic"})
	}
	// Every gap gets the personalized-summary action.
	actions = append(actions, Action{Type: "summary", Text: "Study a personalized summary"})
	return actions
}

func buildRecommendations(gaps []Gap) []Recommendation {
	recommendations := []Recommendation{{
		Title:       "Study a personalized summary",
		Description: "Focused on your weak points",
		Priority:    1,
	}}

	var quizTopics, flashcardTopics []string
	for _, g := range gaps {
		for _, action := range g.Actions {
			switch action.Type {
			case "quiz":
				quizTopics = append(quizTopics, g.Topic)
			case "flashcard":
				flashcardTopics = append(flashcardTopics, g.Topic)
			}
		}
	}

	if len(quizTopics) >= 2 {
		recommendations = append(recommendations, Recommendation{
			Title:       "Redo a focused quiz",
			Description: "Only questions about: " + strings.Join(quizTopics, ", "),
			Priority:    2,
			Topics:      quizTopics,
		})
	}
	if len(flashcardTopics) >= 1 {
		recommendations = append(recommendations, Recommendation{
			Title:       "Practice flashcards",
			Description: "Review cards for: " + strings.Join(flashcardTopics, ", "),
			Priority:    3,
			Topics:      flashcardTopics,
		})
	}

	return recommendations
}

func containsOrigin(origins []string, origin string) bool {
	for _, o := range origins {
		if o == origin {
			return true
		}
	}
	return false
}
