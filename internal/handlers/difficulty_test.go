package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"revisa-backend/internal/difficulty"
	"revisa-backend/internal/models"
)

func newDifficultyHandler(events *memEventRepo, annotations *memAnnotationRepo, summaryRepo *stubSummaryRepo, subjectRepo *stubSubjectRepo) *DifficultyHandler {
	return NewDifficultyHandler(
		difficulty.NewRecorder(events, annotations),
		difficulty.NewAnalyzer(events),
		difficulty.NewAdvisor(difficulty.NewAnalyzer(events), events),
		events,
		summaryRepo,
		subjectRepo,
		nil,
		nil,
	)
}

func seedHandlerEvent(events *memEventRepo, userID, subjectID uuid.UUID, topic string, level, frequency int) *models.DifficultyEvent {
	e := &models.DifficultyEvent{
		UserID:          userID,
		SubjectID:       subjectID,
		OriginType:      models.OriginQuiz,
		Topic:           topic,
		DifficultyLevel: level,
		Frequency:       frequency,
	}
	events.CreateEvent(context.Background(), e)
	return e
}

func TestDifficultyHandler_RecordSummary_CreatesAnnotationAndEvent(t *testing.T) {
	userID := uuid.New()
	summary := &models.Summary{
		ID:        uuid.New(),
		UserID:    userID,
		SubjectID: uuid.New(),
		Title:     "Antibióticos",
	}

	events := &memEventRepo{}
	annotations := &memAnnotationRepo{}
	h := newDifficultyHandler(events, annotations, &stubSummaryRepo{summary: summary}, &stubSubjectRepo{})

	body := map[string]interface{}{
		"summary_id":     summary.ID,
		"text":           "O mecanismo de resistência aos beta-lactâmicos",
		"position_start": 120,
		"position_end":   166,
	}
	req := authedRequest(http.MethodPost, "/api/v1/difficulties/summary", body, userID, nil)

	rr := httptest.NewRecorder()
	h.RecordSummary(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}

	if len(annotations.annotations) != 1 {
		t.Fatalf("expected 1 annotation, got %d", len(annotations.annotations))
	}
	if len(events.events) != 1 {
		t.Fatalf("expected 1 difficulty event, got %d", len(events.events))
	}

	annotation := annotations.annotations[0]
	event := events.events[0]
	if annotation.DifficultyID == nil || *annotation.DifficultyID != event.ID {
		t.Error("expected annotation to back-link the difficulty event")
	}
	if event.OriginType != models.OriginSummary {
		t.Errorf("expected summary origin, got %q", event.OriginType)
	}
	if event.SubjectID != summary.SubjectID {
		t.Error("expected event to inherit the summary subject")
	}
}

func TestDifficultyHandler_RecordSummary_RejectsShortSelection(t *testing.T) {
	userID := uuid.New()
	summary := &models.Summary{ID: uuid.New(), UserID: userID, SubjectID: uuid.New()}

	events := &memEventRepo{}
	annotations := &memAnnotationRepo{}
	h := newDifficultyHandler(events, annotations, &stubSummaryRepo{summary: summary}, &stubSubjectRepo{})

	body := map[string]interface{}{"summary_id": summary.ID, "text": "curto"}
	req := authedRequest(http.MethodPost, "/api/v1/difficulties/summary", body, userID, nil)

	rr := httptest.NewRecorder()
	h.RecordSummary(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if len(annotations.annotations) != 0 || len(events.events) != 0 {
		t.Fatal("rejected selection must not persist anything")
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %q", resp.Error.Code)
	}
	if resp.Error.Fields["selection"] == "" {
		t.Error("expected a field error for the selection")
	}
}

func TestDifficultyHandler_List_DefaultsToUnresolved(t *testing.T) {
	userID := uuid.New()
	subjectID := uuid.New()

	events := &memEventRepo{}
	seedHandlerEvent(events, userID, subjectID, "receptores", 3, 2)
	resolved := seedHandlerEvent(events, userID, subjectID, "enzimas", 2, 1)
	events.MarkResolved(context.Background(), resolved.ID)

	h := newDifficultyHandler(events, &memAnnotationRepo{}, &stubSummaryRepo{}, &stubSubjectRepo{})

	req := authedRequest(http.MethodGet, "/api/v1/difficulties?subject_id="+subjectID.String(), nil, userID, nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp struct {
		Difficulties []models.DifficultyEvent `json:"difficulties"`
		Total        int                      `json:"total"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("expected 1 unresolved difficulty, got %d", resp.Total)
	}
	if resp.Difficulties[0].Topic != "receptores" {
		t.Errorf("expected the unresolved topic, got %q", resp.Difficulties[0].Topic)
	}
}

func TestDifficultyHandler_Analysis_RollsUpTopics(t *testing.T) {
	userID := uuid.New()
	subjectID := uuid.New()

	events := &memEventRepo{}
	seedHandlerEvent(events, userID, subjectID, "receptores", 4, 2)
	seedHandlerEvent(events, userID, subjectID, "receptores", 3, 1)
	seedHandlerEvent(events, userID, subjectID, "enzimas", 2, 1)

	h := newDifficultyHandler(events, &memAnnotationRepo{}, &stubSummaryRepo{}, &stubSubjectRepo{})

	req := authedRequest(http.MethodGet, "/api/v1/difficulties/analysis?subject_id="+subjectID.String(), nil, userID, nil)
	rr := httptest.NewRecorder()
	h.Analysis(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp difficulty.Analysis
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.TopTopics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(resp.TopTopics))
	}
	if resp.TopTopics[0].Topic != "receptores" {
		t.Errorf("expected receptores ranked first, got %q", resp.TopTopics[0].Topic)
	}
	if resp.OverallLevel <= 0 {
		t.Errorf("expected a positive overall level, got %d", resp.OverallLevel)
	}
}

func TestDifficultyHandler_Resolve_NonOwnerGets404(t *testing.T) {
	owner := uuid.New()
	subjectID := uuid.New()

	events := &memEventRepo{}
	event := seedHandlerEvent(events, owner, subjectID, "receptores", 3, 1)

	h := newDifficultyHandler(events, &memAnnotationRepo{}, &stubSummaryRepo{}, &stubSubjectRepo{})

	req := authedRequest(http.MethodPost, "/api/v1/difficulties/"+event.ID.String()+"/resolve", nil,
		uuid.New(), map[string]string{"id": event.ID.String()})
	rr := httptest.NewRecorder()
	h.Resolve(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
	if events.events[0].Resolved {
		t.Fatal("foreign event must not be resolved")
	}
}

func TestDifficultyHandler_CheckPersonalizedSummary_Gate(t *testing.T) {
	userID := uuid.New()
	subjectID := uuid.New()

	events := &memEventRepo{}
	h := newDifficultyHandler(events, &memAnnotationRepo{}, &stubSummaryRepo{}, &stubSubjectRepo{})

	check := func() bool {
		req := authedRequest(http.MethodGet, "/api/v1/difficulties/personalized-summary/check?subject_id="+subjectID.String(), nil, userID, nil)
		rr := httptest.NewRecorder()
		h.CheckPersonalizedSummary(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
		}
		var resp map[string]bool
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		return resp["should_offer"]
	}

	if check() {
		t.Error("empty subject must not trigger the offer")
	}

	seedHandlerEvent(events, userID, subjectID, "receptores", 1, 1)
	seedHandlerEvent(events, userID, subjectID, "receptores", 1, 1)
	seedHandlerEvent(events, userID, subjectID, "receptores", 1, 1)

	if !check() {
		t.Error("three events must trigger the offer")
	}
}

func TestDifficultyHandler_Dashboard_SnapshotPerSubject(t *testing.T) {
	userID := uuid.New()
	subject := &models.Subject{ID: uuid.New(), UserID: userID, Name: "Farmacologia"}

	events := &memEventRepo{}
	seedHandlerEvent(events, userID, subject.ID, "receptores", 4, 2)

	h := newDifficultyHandler(events, &memAnnotationRepo{}, &stubSummaryRepo{}, &stubSubjectRepo{subject: subject})

	req := authedRequest(http.MethodGet, "/api/v1/dashboard/difficulties", nil, userID, nil)
	rr := httptest.NewRecorder()
	h.Dashboard(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp struct {
		Subjects []struct {
			Subject  models.Subject      `json:"subject"`
			Analysis difficulty.Analysis `json:"analysis"`
		} `json:"subjects"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Subjects) != 1 {
		t.Fatalf("expected 1 subject overview, got %d", len(resp.Subjects))
	}
	if resp.Subjects[0].Subject.ID != subject.ID {
		t.Error("expected the learner's subject in the overview")
	}
	if resp.Subjects[0].Analysis.Total != 1 {
		t.Errorf("expected 1 aggregated event, got %d", resp.Subjects[0].Analysis.Total)
	}
}

func TestDifficultyHandler_GeneratePersonalizedSummary_NoDifficulties(t *testing.T) {
	userID := uuid.New()
	subject := &models.Subject{ID: uuid.New(), UserID: userID, Name: "Farmacologia"}

	events := &memEventRepo{}
	summaryRepo := &stubSummaryRepo{}
	h := newDifficultyHandler(events, &memAnnotationRepo{}, summaryRepo, &stubSubjectRepo{subject: subject})

	body := map[string]interface{}{"subject_id": subject.ID}
	req := authedRequest(http.MethodPost, "/api/v1/difficulties/personalized-summary", body, userID, nil)

	rr := httptest.NewRecorder()
	h.GeneratePersonalizedSummary(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d: %s", http.StatusNotFound, rr.Code, rr.Body.String())
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Code != "NO_DIFFICULTIES" {
		t.Errorf("expected NO_DIFFICULTIES, got %q", resp.Error.Code)
	}
	if summaryRepo.created != nil {
		t.Fatal("no summary row may be created without difficulties")
	}
}
