package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"revisa-backend/internal/models"
)

func TestSummaryHandler_Create_RejectsMissingFields(t *testing.T) {
	userID := uuid.New()
	h := NewSummaryHandler(&stubSummaryRepo{}, &stubSubjectRepo{}, nil)

	req := authedRequest(http.MethodPost, "/api/v1/summaries", models.CreateSummaryRequest{
		SubjectID: uuid.New(),
	}, userID, nil)

	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %q", resp.Error.Code)
	}
	if _, ok := resp.Error.Fields["title"]; !ok {
		t.Errorf("expected title field error, got %v", resp.Error.Fields)
	}
	if _, ok := resp.Error.Fields["content"]; !ok {
		t.Errorf("expected content field error, got %v", resp.Error.Fields)
	}
}

func TestSummaryHandler_Create_RejectsForeignSubject(t *testing.T) {
	userID := uuid.New()
	subject := &models.Subject{ID: uuid.New(), UserID: uuid.New(), Name: "Pharmacology"}

	h := NewSummaryHandler(&stubSummaryRepo{}, &stubSubjectRepo{subject: subject}, nil)

	req := authedRequest(http.MethodPost, "/api/v1/summaries", models.CreateSummaryRequest{
		SubjectID: subject.ID,
		Title:     "Beta blockers",
		Content:   "Beta blockers reduce heart rate.",
	}, userID, nil)

	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestSummaryHandler_Get_NonOwnerGets404(t *testing.T) {
	ownerID := uuid.New()
	summary := &models.Summary{ID: uuid.New(), UserID: ownerID}
	repo := &stubSummaryRepo{summary: summary}

	h := NewSummaryHandler(repo, &stubSubjectRepo{}, nil)

	req := authedRequest(http.MethodGet, "/api/v1/summaries/"+summary.ID.String(), nil,
		uuid.New(), map[string]string{"id": summary.ID.String()})

	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
	if repo.touched {
		t.Fatal("access timestamp should not be touched for non-owner")
	}
}

func TestSummaryHandler_ToggleFavorite_Owner(t *testing.T) {
	ownerID := uuid.New()
	summary := &models.Summary{ID: uuid.New(), UserID: ownerID}
	repo := &stubSummaryRepo{summary: summary}

	h := NewSummaryHandler(repo, &stubSubjectRepo{}, nil)

	req := authedRequest(http.MethodPut, "/api/v1/summaries/"+summary.ID.String()+"/favorite", nil,
		ownerID, map[string]string{"id": summary.ID.String()})

	rr := httptest.NewRecorder()
	h.ToggleFavorite(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !repo.toggled {
		t.Fatal("expected toggle to be executed for owner")
	}

	var payload map[string]bool
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !payload["is_favorite"] {
		t.Fatalf("expected is_favorite true, got %v", payload)
	}
}
