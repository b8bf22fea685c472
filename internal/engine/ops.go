package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/openexams/invigil/internal/bank"
	"github.com/openexams/invigil/internal/evaluate"
	"github.com/openexams/invigil/internal/flow"
	"github.com/openexams/invigil/internal/model"
	"github.com/openexams/invigil/internal/proctor"
	"github.com/openexams/invigil/internal/session"
	"github.com/openexams/invigil/internal/textproc"
)

const defaultMarksPerQuestion = 10

// CreateDocumentSet registers an instructor's corpus and returns it.
func (e *Engine) CreateDocumentSet(ctx context.Context, ownerID string, texts []string) (*model.SourceDocumentSet, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts supplied", ErrInvalidArgument)
	}
	set := &model.SourceDocumentSet{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Texts:     texts,
		CreatedAt: e.now(),
	}
	e.mu.Lock()
	e.sets[set.ID] = set
	e.mu.Unlock()
	e.saveDocumentSet(set)
	return set, nil
}

// CreateQuestionBank derives (or returns the cached) question bank for a
// document set. A bank is derived at most once per set; the same seed always
// reproduces the same bank, so re-derivation would be a no-op anyway.
func (e *Engine) CreateQuestionBank(ctx context.Context, setID, seed string) ([]model.Question, error) {
	lock := e.entityLock(setID)
	lock.Lock()
	defer lock.Unlock()

	set, err := e.getSet(ctx, setID)
	if err != nil {
		return nil, err
	}
	if set.Bank != nil {
		return set.Bank, nil
	}

	chunks, err := textproc.BuildChunks(set.Combined())
	if err != nil {
		return nil, err
	}
	questions, err := bank.Generate(chunks, seed)
	if err != nil {
		return nil, err
	}
	set.Bank = questions
	set.BankSeed = seed
	e.saveDocumentSet(set)
	slog.Info("question bank derived", "set_id", setID, "questions", len(questions))
	return questions, nil
}

// CreateQuizSession starts a quiz attempt: it assembles a private,
// fingerprint-deduplicated flow from the set's bank and selects the first
// question.
func (e *Engine) CreateQuizSession(ctx context.Context, setID, studentID string, initialLevel model.Difficulty, questionCount int, topic string, format model.QuestionFormat, durationMinutes int) (*model.QuizSession, error) {
	if questionCount <= 0 {
		return nil, fmt.Errorf("%w: question count must be positive", ErrInvalidArgument)
	}
	if !initialLevel.Valid() {
		return nil, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidArgument, initialLevel)
	}
	if format == "" {
		format = model.FormatSubjective
	}

	lock := e.entityLock(setID)
	lock.Lock()
	defer lock.Unlock()

	set, err := e.getSet(ctx, setID)
	if err != nil {
		return nil, err
	}
	if set.Bank == nil {
		chunks, err := textproc.BuildChunks(set.Combined())
		if err != nil {
			return nil, err
		}
		questions, err := bank.Generate(chunks, set.ID)
		if err != nil {
			return nil, err
		}
		set.Bank = questions
		set.BankSeed = set.ID
	}

	assigned, _ := flow.Assemble(set, studentID, questionCount, topic, format)
	if questionCount > len(assigned) {
		questionCount = len(assigned)
	}

	now := e.now()
	s := &model.QuizSession{
		ID:                  uuid.NewString(),
		SourceDocumentSetID: set.ID,
		StudentID:           studentID,
		InitialLevel:        initialLevel,
		CurrentLevel:        initialLevel,
		AssignedBank:        assigned,
		QuestionCount:       questionCount,
		Format:              format,
		StartedAt:           now,
		MarksPerQuestion:    defaultMarksPerQuestion,
		TotalMarks:          defaultMarksPerQuestion * float64(questionCount),
	}
	if durationMinutes > 0 {
		s.DeadlineAt = now.Add(time.Duration(durationMinutes) * time.Minute)
	}

	session.PickNext(s)

	e.mu.Lock()
	e.sessions[s.ID] = s
	e.mu.Unlock()
	e.saveDocumentSet(set)
	e.saveSession(s)
	return s, nil
}

// PickNextQuestion returns the session's pending question, advancing the
// state machine if the previous one was already answered. The second return
// is false once the session has no further questions.
func (e *Engine) PickNextQuestion(ctx context.Context, sessionID string) (*model.Question, bool, error) {
	lock := e.entityLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s, err := e.getSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if s.Completed {
		return nil, false, ErrSessionCompleted
	}

	// A question already picked but not yet answered stays current.
	if s.CurrentQuestionID != "" && len(s.Responses) < len(s.AskedQuestionIDs) {
		q, _ := s.QuestionByID(s.CurrentQuestionID)
		return &q, true, nil
	}

	q, ok := session.PickNext(s)
	if !ok {
		s.Complete(e.now())
		e.saveSession(s)
		return nil, false, nil
	}
	e.saveSession(s)
	return &q, true, nil
}

// SubmitResult is the outcome of one answered question.
type SubmitResult struct {
	Response     model.Response  `json:"response"`
	NextQuestion *model.Question `json:"next_question,omitempty"`
	Completed    bool            `json:"completed"`
}

// SubmitAnswer evaluates the session's current question against the given
// answer (free text for subjective questions, a choice index for MCQs),
// applies the risk penalty, adapts the difficulty level, and advances to the
// next question or completes the session.
func (e *Engine) SubmitAnswer(ctx context.Context, sessionID, answer string, mcqChoice *int) (*SubmitResult, error) {
	lock := e.entityLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s, err := e.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Completed {
		return nil, ErrSessionCompleted
	}
	if s.CurrentQuestionID == "" || len(s.Responses) >= len(s.AskedQuestionIDs) {
		return nil, ErrNoActiveQuestion
	}
	q, ok := s.QuestionByID(s.CurrentQuestionID)
	if !ok {
		return nil, ErrNoActiveQuestion
	}

	resp := model.Response{QuestionID: q.ID}
	var raw float64
	switch q.Type {
	case model.TypeMCQ:
		if mcqChoice == nil {
			return nil, evaluate.ErrInvalidChoice
		}
		raw, err = evaluate.ScoreMCQ(q, *mcqChoice)
		if err != nil {
			return nil, err
		}
		choice := *mcqChoice
		resp.MCQChoice = &choice
		if raw == 100 {
			resp.Feedback = e.msgs.Evaluate.MCQCorrect
		} else {
			resp.Feedback = e.msgs.Evaluate.MCQIncorrect
		}
	default:
		if err := evaluate.ValidateSubjective(answer); err != nil {
			return nil, err
		}
		verdict, err := e.scorer.ScoreSubjective(ctx, q, answer)
		if err != nil {
			return nil, err
		}
		raw = verdict.Percentage
		resp.Answer = answer
		resp.Feedback = verdict.Feedback
		resp.IsAI = verdict.IsAI
	}

	adjusted, penalty := evaluate.ApplyRiskPenalty(raw, s.Proctor.RiskScore)
	resp.Percentage = adjusted
	resp.CheatingPenalty = penalty
	resp.MarksAwarded = evaluate.Marks(adjusted, s.MarksPerQuestion)

	s.Responses = append(s.Responses, resp)
	s.CurrentLevel = session.AdjustLevel(s.CurrentLevel, adjusted)

	res := &SubmitResult{Response: resp}
	if next, ok := session.PickNext(s); ok {
		res.NextQuestion = &next
	} else {
		s.Complete(e.now())
		res.Completed = true
	}

	e.saveSession(s)
	return res, nil
}

// ProctorOutcome reports the effect of one behavioral event.
type ProctorOutcome struct {
	RiskScore int    `json:"risk_score"`
	Warning   string `json:"warning,omitempty"`
	Cancelled bool   `json:"cancelled"`
}

// RegisterProctorEvent applies a behavioral signal to the session's risk
// state, possibly emitting a warning or auto-cancelling the session.
func (e *Engine) RegisterProctorEvent(ctx context.Context, sessionID, eventType, meta string) (*ProctorOutcome, error) {
	lock := e.entityLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s, err := e.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Completed {
		return nil, ErrSessionCompleted
	}

	state, outcome := proctor.Reduce(s.Proctor, proctor.Event{Type: eventType, Meta: meta}, e.now(), e.msgs.Proctor)
	s.Proctor = state
	if outcome.Cancelled {
		s.Complete(e.now())
	}
	e.saveSession(s)

	return &ProctorOutcome{
		RiskScore: state.RiskScore,
		Warning:   outcome.Warning,
		Cancelled: outcome.Cancelled,
	}, nil
}
