// Package handler adapts the engine's operations to HTTP. It is a thin
// JSON layer: request auth and upload handling live outside this service.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openexams/invigil/internal/bank"
	"github.com/openexams/invigil/internal/engine"
	"github.com/openexams/invigil/internal/evaluate"
	"github.com/openexams/invigil/internal/model"
	"github.com/openexams/invigil/internal/result"
	"github.com/openexams/invigil/internal/store"
	"github.com/openexams/invigil/internal/textproc"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	engine *engine.Engine
}

// New creates a new Handler.
func New(e *engine.Engine) *Handler {
	return &Handler{engine: e}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/document-sets", h.handleCreateDocumentSet)
	r.Post("/document-sets/{setID}/bank", h.handleCreateBank)
	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions/{sessionID}/next", h.handleNextQuestion)
	r.Post("/sessions/{sessionID}/answers", h.handleSubmitAnswer)
	r.Post("/sessions/{sessionID}/events", h.handleProctorEvent)
	r.Get("/sessions/{sessionID}/result", h.handleResult)
	r.Post("/sessions/{sessionID}/review", h.handleReview)
	r.Post("/reviews/publish", h.handleBulkPublish)
}

// studentQuestion is the question view sent to students: no reference
// passage, no keywords, no correct index.
type studentQuestion struct {
	ID         string             `json:"id"`
	Difficulty model.Difficulty   `json:"difficulty"`
	Prompt     string             `json:"prompt"`
	Type       model.QuestionType `json:"type"`
	Choices    []string           `json:"choices,omitempty"`
}

func toStudentQuestion(q *model.Question) *studentQuestion {
	if q == nil {
		return nil
	}
	return &studentQuestion{
		ID:         q.ID,
		Difficulty: q.Difficulty,
		Prompt:     q.Prompt,
		Type:       q.Type,
		Choices:    q.Choices,
	}
}

func (h *Handler) handleCreateDocumentSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID string   `json:"owner_id"`
		Texts   []string `json:"texts"`
	}
	if !decode(w, r, &req) {
		return
	}
	set, err := h.engine.CreateDocumentSet(r.Context(), req.OwnerID, req.Texts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": set.ID})
}

func (h *Handler) handleCreateBank(w http.ResponseWriter, r *http.Request) {
	setID := chi.URLParam(r, "setID")
	var req struct {
		Seed string `json:"seed"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Seed == "" {
		req.Seed = setID
	}
	questions, err := h.engine.CreateQuestionBank(r.Context(), setID, req.Seed)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"questions": len(questions)})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SetID           string               `json:"set_id"`
		StudentID       string               `json:"student_id"`
		InitialLevel    model.Difficulty     `json:"initial_level"`
		QuestionCount   int                  `json:"question_count"`
		Topic           string               `json:"topic"`
		Format          model.QuestionFormat `json:"format"`
		DurationMinutes int                  `json:"duration_minutes"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.InitialLevel == "" {
		req.InitialLevel = model.DifficultyBeginner
	}
	s, err := h.engine.CreateQuizSession(r.Context(), req.SetID, req.StudentID,
		req.InitialLevel, req.QuestionCount, req.Topic, req.Format, req.DurationMinutes)
	if err != nil {
		writeError(w, err)
		return
	}
	q, _ := s.QuestionByID(s.CurrentQuestionID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id":     s.ID,
		"question_count": s.QuestionCount,
		"deadline_at":    s.DeadlineAt,
		"first_question": toStudentQuestion(&q),
	})
}

func (h *Handler) handleNextQuestion(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	q, ok, err := h.engine.PickNextQuestion(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"question":  toStudentQuestion(q),
		"completed": !ok,
	})
}

func (h *Handler) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var req struct {
		Answer    string `json:"answer"`
		MCQChoice *int   `json:"mcq_choice,omitempty"`
	}
	if !decode(w, r, &req) {
		return
	}
	res, err := h.engine.SubmitAnswer(r.Context(), sessionID, req.Answer, req.MCQChoice)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"evaluation":    res.Response,
		"next_question": toStudentQuestion(res.NextQuestion),
		"completed":     res.Completed,
	})
}

func (h *Handler) handleProctorEvent(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var req struct {
		Type string `json:"type"`
		Meta string `json:"meta"`
	}
	if !decode(w, r, &req) {
		return
	}
	out, err := h.engine.RegisterProctorEvent(r.Context(), sessionID, req.Type, req.Meta)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	summary, err := h.engine.BuildResult(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var req struct {
		Edits         map[string]engine.ReviewEdit `json:"edits"`
		OverallMarks  *float64                     `json:"overall_marks"`
		OverallRemark string                       `json:"overall_remark"`
		PublishFinal  bool                         `json:"publish_final"`
	}
	if !decode(w, r, &req) {
		return
	}
	summary, err := h.engine.SubmitReview(r.Context(), sessionID, req.Edits,
		req.OverallMarks, req.OverallRemark, req.PublishFinal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleBulkPublish(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []engine.BulkPublishItem `json:"items"`
	}
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.engine.BulkPublish(r.Context(), req.Items))
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError maps engine errors onto HTTP statuses: validation and state
// errors are the caller's to correct; anything else is a server fault.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, textproc.ErrInsufficientContent),
		errors.Is(err, bank.ErrEmptyBank),
		errors.Is(err, evaluate.ErrAnswerTooShort),
		errors.Is(err, evaluate.ErrInvalidChoice),
		errors.Is(err, engine.ErrInvalidArgument):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrSessionCompleted),
		errors.Is(err, engine.ErrNoActiveQuestion),
		errors.Is(err, result.ErrSessionNotCompleted),
		errors.Is(err, result.ErrOverallMarksMissing),
		errors.Is(err, result.ErrPublishLimitReached),
		errors.Is(err, result.ErrNoChangesSincePublish):
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}
