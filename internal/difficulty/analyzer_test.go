package difficulty

import (
	"context"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"revisa-backend/internal/models"
)

func TestAnalyze_NoEvents(t *testing.T) {
	analyzer := NewAnalyzer(&fakeEventStore{})

	analysis, err := analyzer.Analyze(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("Analyze on empty subject must not fail: %v", err)
	}

	if analysis.Total != 0 {
		t.Errorf("Expected total 0, got %d", analysis.Total)
	}
	if analysis.OverallLevel != 0 {
		t.Errorf("Expected overall level 0, got %d", analysis.OverallLevel)
	}
	if len(analysis.TopTopics) != 0 {
		t.Errorf("Expected no top topics, got %d", len(analysis.TopTopics))
	}
	if analysis.ByTopic == nil || analysis.ByOriginType == nil {
		t.Error("Zero-valued analysis must carry empty maps, not nil")
	}
}

func TestAnalyze_GroupsByTopicAndOrigin(t *testing.T) {
	userID, subjectID := uuid.New(), uuid.New()
	store := &fakeEventStore{}
	seedEvent(store, userID, subjectID, "receptor", models.OriginQuiz, 4, 2)
	seedEvent(store, userID, subjectID, "receptor", models.OriginFlashcard, 2, 1)
	seedEvent(store, userID, subjectID, "metabolismo", models.OriginQuiz, 3, 1)

	analysis, err := NewAnalyzer(store).Analyze(context.Background(), userID, subjectID)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if analysis.Total != 3 {
		t.Errorf("Expected total 3, got %d", analysis.Total)
	}
	if len(analysis.ByOriginType[models.OriginQuiz]) != 2 {
		t.Errorf("Expected 2 quiz events, got %d", len(analysis.ByOriginType[models.OriginQuiz]))
	}

	receptor := analysis.ByTopic["receptor"]
	if receptor == nil {
		t.Fatal("Missing 'receptor' aggregate")
	}
	if receptor.Total != 2 {
		t.Errorf("Expected 2 receptor events, got %d", receptor.Total)
	}
	if receptor.MeanSeverity != 3 {
		t.Errorf("Expected mean severity 3, got %v", receptor.MeanSeverity)
	}
	if receptor.TotalFrequency != 3 {
		t.Errorf("Expected total frequency 3, got %d", receptor.TotalFrequency)
	}
	// priority = mean * frequency = 9; metabolismo = 3 * 1 = 3
	if analysis.TopTopics[0].Topic != "receptor" {
		t.Errorf("Expected 'receptor' ranked first, got %q", analysis.TopTopics[0].Topic)
	}
	if analysis.TopTopics[0].PriorityScore != 9 {
		t.Errorf("Expected priority score 9, got %v", analysis.TopTopics[0].PriorityScore)
	}
}

func TestAnalyze_OverallLevelCapsAt100(t *testing.T) {
	userID, subjectID := uuid.New(), uuid.New()
	store := &fakeEventStore{}
	for i := 0; i < 5; i++ {
		seedEvent(store, userID, subjectID, "receptor", models.OriginQuiz, 5, 2)
	}

	analysis, err := NewAnalyzer(store).Analyze(context.Background(), userID, subjectID)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// Average level 5 maps to exactly 100.
	if analysis.OverallLevel != 100 {
		t.Errorf("Expected overall level 100, got %d", analysis.OverallLevel)
	}
	if got := analysis.TopTopics[0]; got.MeanSeverity != 5 || got.TotalFrequency != 10 {
		t.Errorf("Unexpected aggregate: mean=%v freq=%d", got.MeanSeverity, got.TotalFrequency)
	}
}

func TestAnalyze_TopTopicsLimitAndTieBreak(t *testing.T) {
	userID, subjectID := uuid.New(), uuid.New()
	store := &fakeEventStore{}
	// Seven topics, all with identical score, inserted out of order.
	for _, topic := range []string{"g", "c", "a", "f", "b", "e", "d"} {
		seedEvent(store, userID, subjectID, topic, models.OriginQuiz, 2, 1)
	}

	analysis, err := NewAnalyzer(store).Analyze(context.Background(), userID, subjectID)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(analysis.TopTopics) != 5 {
		t.Fatalf("Expected 5 top topics, got %d", len(analysis.TopTopics))
	}
	var got []string
	for _, agg := range analysis.TopTopics {
		got = append(got, agg.Topic)
	}
	want := []string{"a", "b", "c", "d", "e"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Equal scores must rank lexicographically: got %v, want %v", got, want)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	userID, subjectID := uuid.New(), uuid.New()
	store := &fakeEventStore{}
	seedEvent(store, userID, subjectID, "receptor", models.OriginQuiz, 4, 2)
	seedEvent(store, userID, subjectID, "enzima", models.OriginFlashcard, 3, 3)

	analyzer := NewAnalyzer(store)
	first, err := analyzer.Analyze(context.Background(), userID, subjectID)
	if err != nil {
		t.Fatalf("first Analyze failed: %v", err)
	}
	second, err := analyzer.Analyze(context.Background(), userID, subjectID)
	if err != nil {
		t.Fatalf("second Analyze failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Analyze is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestAnalyze_ScopedBySubject(t *testing.T) {
	userID := uuid.New()
	subjectA, subjectB := uuid.New(), uuid.New()
	store := &fakeEventStore{}
	seedEvent(store, userID, subjectA, "receptor", models.OriginQuiz, 5, 1)
	seedEvent(store, userID, subjectB, "enzima", models.OriginQuiz, 5, 1)

	analysis, err := NewAnalyzer(store).Analyze(context.Background(), userID, subjectA)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if analysis.Total != 1 {
		t.Errorf("Expected only subject A's event, got %d", analysis.Total)
	}
	if _, ok := analysis.ByTopic["enzima"]; ok {
		t.Error("Subject B's topic leaked into subject A's analysis")
	}
}
