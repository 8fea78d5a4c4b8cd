package difficulty

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"revisa-backend/internal/models"
)

// Flashcard is the recorder's view of a card. Decks generated from quiz
// questions carry the text in Question instead of Front; FrontText
// resolves that once, at the boundary.
type Flashcard struct {
	ID       uuid.UUID
	Front    string
	Question string
	Topic    string
	Subtopic string
	Concepts []string
}

func (f Flashcard) FrontText() string {
	if f.Front != "" {
		return f.Front
	}
	return f.Question
}

// SummarySelection is the text a learner highlighted as "didn't
// understand", with optional position metadata.
type SummarySelection struct {
	Text        string
	Start       *int
	End         *int
	ParagraphID *string
	Note        *string
}

// minSelectionRunes rejects selections too short to carry a topic.
const minSelectionRunes = 10

// Recorder turns learner "I don't know" signals into persisted
// difficulty events. Validation failures are typed and abort the write;
// storage failures propagate unchanged.
type Recorder struct {
	events      EventStore
	annotations AnnotationStore
}

func NewRecorder(events EventStore, annotations AnnotationStore) *Recorder {
	return &Recorder{events: events, annotations: annotations}
}

// RecordQuiz registers a difficulty raised from a quiz question.
func (r *Recorder) RecordQuiz(ctx context.Context, userID, subjectID uuid.UUID, question *models.QuizQuestion) (*models.DifficultyEvent, error) {
	if question == nil || question.ID == uuid.Nil {
		return nil, &ValidationError{Field: "question", Reason: "invalid question"}
	}
	if subjectID == uuid.Nil {
		return nil, &ValidationError{Field: "subject_id", Reason: "subject id required"}
	}
	text := strings.TrimSpace(question.Question)
	if text == "" {
		return nil, &ValidationError{Field: "question", Reason: "question text is empty"}
	}

	event := &models.DifficultyEvent{
		UserID:          userID,
		SubjectID:       subjectID,
		OriginType:      models.OriginQuiz,
		Topic:           deriveTopic(question.Topic, text),
		Subtopic:        optional(question.Subtopic),
		SpecificConcept: firstConcept(question.Concepts),
		RelatedQuestion: &text,
		SourceItemID:    &question.ID,
	}

	if err := r.events.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// RecordFlashcard registers a difficulty raised from a flashcard front.
func (r *Recorder) RecordFlashcard(ctx context.Context, userID, subjectID uuid.UUID, card *Flashcard) (*models.DifficultyEvent, error) {
	if card == nil || card.ID == uuid.Nil {
		return nil, &ValidationError{Field: "flashcard", Reason: "invalid flashcard"}
	}
	if subjectID == uuid.Nil {
		return nil, &ValidationError{Field: "subject_id", Reason: "subject id required"}
	}
	front := strings.TrimSpace(card.FrontText())
	if front == "" {
		return nil, &ValidationError{Field: "flashcard", Reason: "flashcard text is empty"}
	}

	event := &models.DifficultyEvent{
		UserID:          userID,
		SubjectID:       subjectID,
		OriginType:      models.OriginFlashcard,
		Topic:           deriveTopic(card.Topic, front),
		Subtopic:        optional(card.Subtopic),
		SpecificConcept: firstConcept(card.Concepts),
		OriginalText:    &front,
		RelatedQuestion: &front,
		SourceItemID:    &card.ID,
	}

	if err := r.events.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// RecordSummary registers a "didn't understand" highlight on a summary.
// The annotation is written first; if the event write then fails the
// annotation is deleted so no dangling highlight is left behind.
func (r *Recorder) RecordSummary(ctx context.Context, userID, summaryID, subjectID uuid.UUID, sel SummarySelection) (*models.SummaryAnnotation, *models.DifficultyEvent, error) {
	if summaryID == uuid.Nil {
		return nil, nil, &ValidationError{Field: "summary_id", Reason: "summary id required"}
	}
	if subjectID == uuid.Nil {
		return nil, nil, &ValidationError{Field: "subject_id", Reason: "subject id required"}
	}
	if strings.TrimSpace(sel.Text) == "" {
		return nil, nil, &ValidationError{Field: "selection", Reason: "selected text is empty"}
	}
	if utf8.RuneCountInString(sel.Text) < minSelectionRunes {
		return nil, nil, &ValidationError{Field: "selection", Reason: "selected text too short (minimum 10 characters)"}
	}

	annotation := &models.SummaryAnnotation{
		UserID:        userID,
		SummaryID:     summaryID,
		SelectedText:  sel.Text,
		PositionStart: sel.Start,
		PositionEnd:   sel.End,
		ParagraphID:   sel.ParagraphID,
		Kind:          models.AnnotationKindDidntUnderstand,
		StudentNote:   sel.Note,
	}
	if err := r.annotations.CreateAnnotation(ctx, annotation); err != nil {
		return nil, nil, err
	}

	text := sel.Text
	event := &models.DifficultyEvent{
		UserID:       userID,
		SubjectID:    subjectID,
		OriginType:   models.OriginSummary,
		Topic:        deriveTopic("", text),
		OriginalText: &text,
	}
	if err := r.events.CreateEvent(ctx, event); err != nil {
		// Compensate so the highlight does not outlive the failed event.
		r.annotations.DeleteAnnotation(ctx, annotation.ID)
		return nil, nil, err
	}

	// Back-link is a convenience for the summaries UI, not an invariant.
	if err := r.annotations.LinkDifficulty(ctx, annotation.ID, event.ID); err == nil {
		annotation.DifficultyID = &event.ID
	}

	return annotation, event, nil
}

func deriveTopic(explicit, text string) string {
	topic := strings.TrimSpace(explicit)
	if topic == "" {
		topic = ExtractTopic(text)
	}
	if strings.TrimSpace(topic) == "" {
		topic = FallbackTopic
	}
	return topic
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func firstConcept(concepts []string) *string {
	if len(concepts) == 0 {
		return nil
	}
	return &concepts[0]
}
