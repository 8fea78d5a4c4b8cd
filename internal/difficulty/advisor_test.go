package difficulty

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"revisa-backend/internal/models"
)

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		name string
		mean float64
		freq int
		want Severity
	}{
		{"level 5 repeated heavily", 5, 10, SeverityCritical},
		{"level 5 frequency capped at 10", 5, 100, SeverityCritical},
		{"mean 3 freq 2 is high", 3, 2, SeverityHigh},
		{"mean 2 freq 2 is medium", 2, 2, SeverityMedium},
		{"mean 1 freq 1 is low", 1, 1, SeverityLow},
		{"mixed mean with moderate repetition", 4.5, 5, SeverityCritical}, // 2.7 + 2.0
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifySeverity(tc.mean, tc.freq); got != tc.want {
				t.Errorf("classifySeverity(%v, %d) = %q, want %q", tc.mean, tc.freq, got, tc.want)
			}
		})
	}
}

func TestIdentifyGaps_NoEvents(t *testing.T) {
	store := &fakeEventStore{}
	advisor := NewAdvisor(NewAnalyzer(store), store)

	report, err := advisor.IdentifyGaps(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("IdentifyGaps failed: %v", err)
	}
	if report.HasGaps {
		t.Error("Expected no gaps for empty subject")
	}
	if len(report.Gaps) != 0 || len(report.Recommendations) != 0 {
		t.Errorf("Expected empty report, got %d gaps, %d recommendations",
			len(report.Gaps), len(report.Recommendations))
	}
}

func TestIdentifyGaps_CriticalTopic(t *testing.T) {
	userID, subjectID := uuid.New(), uuid.New()
	store := &fakeEventStore{}
	for i := 0; i < 5; i++ {
		seedEvent(store, userID, subjectID, "receptor", models.OriginQuiz, 5, 2)
	}

	advisor := NewAdvisor(NewAnalyzer(store), store)
	report, err := advisor.IdentifyGaps(context.Background(), userID, subjectID)
	if err != nil {
		t.Fatalf("IdentifyGaps failed: %v", err)
	}

	if !report.HasGaps || len(report.Gaps) != 1 {
		t.Fatalf("Expected exactly one gap, got %+v", report)
	}
	gap := report.Gaps[0]
	if gap.Severity != SeverityCritical {
		t.Errorf("Expected critical severity, got %q", gap.Severity)
	}
	if !strings.Contains(gap.Description, "10 times") {
		t.Errorf("Critical description should cite the occurrence count, got %q", gap.Description)
	}
}

func TestIdentifyGaps_ActionsFollowOrigins(t *testing.T) {
	userID, subjectID := uuid.New(), uuid.New()
	store := &fakeEventStore{}
	seedEvent(store, userID, subjectID, "receptor", models.OriginQuiz, 3, 1)
	seedEvent(store, userID, subjectID, "enzima", models.OriginSummary, 3, 1)

	advisor := NewAdvisor(NewAnalyzer(store), store)
	report, err := advisor.IdentifyGaps(context.Background(), userID, subjectID)
	if err != nil {
		t.Fatalf("IdentifyGaps failed: %v", err)
	}

	byTopic := map[string]Gap{}
	for _, g := range report.Gaps {
		byTopic[g.Topic] = g
	}

	receptor := byTopic["receptor"]
	if !hasAction(receptor.Actions, "quiz") {
		t.Error("Quiz-origin gap must offer a quiz action")
	}
	if hasAction(receptor.Actions, "flashcard") {
		t.Error("Gap without flashcard origin must not offer a flashcard action")
	}

	for topic, gap := range byTopic {
		if !hasAction(gap.Actions, "summary") {
			t.Errorf("Every gap gets the summary action; %q is missing it", topic)
		}
	}
}

func TestIdentifyGaps_Recommendations(t *testing.T) {
	userID, subjectID := uuid.New(), uuid.New()
	store := &fakeEventStore{}
	seedEvent(store, userID, subjectID, "receptor", models.OriginQuiz, 3, 1)
	seedEvent(store, userID, subjectID, "enzima", models.OriginQuiz, 3, 1)
	seedEvent(store, userID, subjectID, "metabolismo", models.OriginFlashcard, 2, 1)

	advisor := NewAdvisor(NewAnalyzer(store), store)
	report, err := advisor.IdentifyGaps(context.Background(), userID, subjectID)
	if err != nil {
		t.Fatalf("IdentifyGaps failed: %v", err)
	}

	if len(report.Recommendations) != 3 {
		t.Fatalf("Expected 3 recommendations, got %d", len(report.Recommendations))
	}
	if report.Recommendations[0].Priority != 1 {
		t.Errorf("Personalized summary must be the top recommendation, got priority %d",
			report.Recommendations[0].Priority)
	}
	quizRec := report.Recommendations[1]
	if quizRec.Priority != 2 || len(quizRec.Topics) != 2 {
		t.Errorf("Expected priority-2 quiz recommendation over 2 topics, got %+v", quizRec)
	}
	if !strings.Contains(quizRec.Description, "receptor") || !strings.Contains(quizRec.Description, "enzima") {
		t.Errorf("Quiz recommendation must name its topics, got %q", quizRec.Description)
	}
	if report.Recommendations[2].Priority != 3 {
		t.Errorf("Expected flashcard recommendation at priority 3, got %+v", report.Recommendations[2])
	}
}

func TestIdentifyGaps_SingleQuizGapSkipsQuizRecommendation(t *testing.T) {
	userID, subjectID := uuid.New(), uuid.New()
	store := &fakeEventStore{}
	seedEvent(store, userID, subjectID, "receptor", models.OriginQuiz, 3, 1)

	advisor := NewAdvisor(NewAnalyzer(store), store)
	report, err := advisor.IdentifyGaps(context.Background(), userID, subjectID)
	if err != nil {
		t.Fatalf("IdentifyGaps failed: %v", err)
	}

	for _, rec := range report.Recommendations {
		if rec.Priority == 2 {
			t.Errorf("Quiz recommendation requires >= 2 quiz gaps, got %+v", rec)
		}
	}
}

func TestShouldOfferPersonalizedSummary(t *testing.T) {
	userID, subjectID := uuid.New(), uuid.New()

	tests := []struct {
		name string
		seed func(s *fakeEventStore)
		want bool
	}{
		{"no events", func(s *fakeEventStore) {}, false},
		{"three low-level events same topic", func(s *fakeEventStore) {
			for i := 0; i < 3; i++ {
				seedEvent(s, userID, subjectID, "receptor", models.OriginQuiz, 1, 1)
			}
		}, true},
		{"one high-level event", func(s *fakeEventStore) {
			seedEvent(s, userID, subjectID, "receptor", models.OriginQuiz, 3, 1)
		}, true},
		{"two distinct low-level topics", func(s *fakeEventStore) {
			seedEvent(s, userID, subjectID, "receptor", models.OriginQuiz, 1, 1)
			seedEvent(s, userID, subjectID, "enzima", models.OriginFlashcard, 1, 1)
		}, true},
		{"one low-level event", func(s *fakeEventStore) {
			seedEvent(s, userID, subjectID, "receptor", models.OriginQuiz, 1, 1)
		}, false},
		{"two events one topic low level", func(s *fakeEventStore) {
			seedEvent(s, userID, subjectID, "receptor", models.OriginQuiz, 1, 1)
			seedEvent(s, userID, subjectID, "receptor", models.OriginFlashcard, 2, 1)
		}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeEventStore{}
			tc.seed(store)
			advisor := NewAdvisor(NewAnalyzer(store), store)

			if got := advisor.ShouldOfferPersonalizedSummary(context.Background(), userID, subjectID); got != tc.want {
				t.Errorf("ShouldOfferPersonalizedSummary = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestShouldOfferPersonalizedSummary_FailsSafe(t *testing.T) {
	store := &fakeEventStore{listErr: errors.New("storage down")}
	advisor := NewAdvisor(NewAnalyzer(store), store)

	if advisor.ShouldOfferPersonalizedSummary(context.Background(), uuid.New(), uuid.New()) {
		t.Error("A storage failure must yield false, never an offer or a panic")
	}
}

func hasAction(actions []Action, actionType string) bool {
	for _, a := range actions {
		if a.Type == actionType {
			return true
		}
	}
	return false
}
