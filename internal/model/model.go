package model

import (
	"time"
)

// Difficulty represents a question difficulty tier.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Levels lists the difficulty tiers in ascending order.
var Levels = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

// Valid reports whether d is one of the known tiers.
func (d Difficulty) Valid() bool {
	for _, l := range Levels {
		if d == l {
			return true
		}
	}
	return false
}

// QuestionType distinguishes free-text questions from multiple-choice ones.
type QuestionType string

const (
	TypeSubjective QuestionType = "subjective"
	TypeMCQ        QuestionType = "mcq"
)

// QuestionFormat is the caller-requested shape of an assigned quiz flow.
type QuestionFormat string

const (
	FormatSubjective QuestionFormat = "subjective"
	FormatMCQ        QuestionFormat = "mcq"
	FormatMixed      QuestionFormat = "mixed"
)

// Question is a single generated question. Immutable after creation.
type Question struct {
	ID            string       `json:"id"`
	Difficulty    Difficulty   `json:"difficulty"`
	Prompt        string       `json:"prompt"`
	Reference     string       `json:"reference"`
	Keywords      []string     `json:"keywords"`
	SourceChunkID string       `json:"source_chunk_id"`
	Type          QuestionType `json:"type"`
	Choices       []string     `json:"choices,omitempty"`
	CorrectIndex  int          `json:"correct_index,omitempty"`
}

// FlowIssuanceLog tracks flow fingerprints already handed out for one
// SourceDocumentSet, so two students rarely see the same question sequence.
type FlowIssuanceLog struct {
	Counter      int64           `json:"counter"`
	Fingerprints map[string]bool `json:"fingerprints,omitempty"`
}

// Issued reports whether fp was already handed out.
func (l *FlowIssuanceLog) Issued(fp string) bool {
	return l.Fingerprints[fp]
}

// Record marks fp as issued.
func (l *FlowIssuanceLog) Record(fp string) {
	if l.Fingerprints == nil {
		l.Fingerprints = make(map[string]bool)
	}
	l.Fingerprints[fp] = true
}

// SourceDocumentSet is an instructor's uploaded corpus. Once a question bank
// has been derived from it the texts must be treated as immutable.
type SourceDocumentSet struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Texts     []string        `json:"texts"`
	Bank      []Question      `json:"bank,omitempty"`
	BankSeed  string          `json:"bank_seed,omitempty"`
	Flows     FlowIssuanceLog `json:"flows"`
	CreatedAt time.Time       `json:"created_at"`
}

// Combined returns all texts joined into one corpus.
func (s *SourceDocumentSet) Combined() string {
	var out string
	for i, t := range s.Texts {
		if i > 0 {
			out += "\n"
		}
		out += t
	}
	return out
}

// Response records one answered question inside a session.
type Response struct {
	QuestionID          string   `json:"question_id"`
	Answer              string   `json:"answer,omitempty"`
	MCQChoice           *int     `json:"mcq_choice,omitempty"`
	Percentage          float64  `json:"percentage"`
	MarksAwarded        float64  `json:"marks_awarded"`
	CheatingPenalty     int      `json:"cheating_penalty"`
	Feedback            string   `json:"feedback"`
	IsAI                bool     `json:"is_ai"`
	TeacherMarksAwarded *float64 `json:"teacher_marks_awarded,omitempty"`
	TeacherFeedback     string   `json:"teacher_feedback,omitempty"`
}

// ProctorEvent is one recorded behavioral signal.
type ProctorEvent struct {
	Type      string    `json:"type"`
	Meta      string    `json:"meta,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RiskScore int       `json:"risk_score"`
}

// ProctorState accumulates integrity risk for a single session.
// RiskScore stays within [0,100] and never decreases.
type ProctorState struct {
	RiskScore       int            `json:"risk_score"`
	WarningCount    int            `json:"warning_count"`
	WarningMessages []string       `json:"warning_messages,omitempty"`
	Events          []ProctorEvent `json:"events,omitempty"`
}

// HasWarning reports whether msg was already emitted for this session.
func (p *ProctorState) HasWarning(msg string) bool {
	for _, m := range p.WarningMessages {
		if m == msg {
			return true
		}
	}
	return false
}

// EventCount returns how many events of the given type were recorded.
func (p *ProctorState) EventCount(eventType string) int {
	n := 0
	for _, e := range p.Events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// PublishState governs the idempotent teacher publish/republish cycle.
type PublishState struct {
	TeacherOverallMarks     *float64   `json:"teacher_overall_marks,omitempty"`
	TeacherOverallRemark    string     `json:"teacher_overall_remark,omitempty"`
	TeacherPublishedAt      *time.Time `json:"teacher_published_at,omitempty"`
	PublishCount            int        `json:"publish_count"`
	LastPublishedReviewHash string     `json:"last_published_review_hash,omitempty"`
}

// Published reports whether the teacher has published at least once.
func (p *PublishState) Published() bool {
	return p.PublishCount > 0
}

// QuizSession is one student's quiz attempt. It owns a private assigned bank;
// mutating the session never touches the shared question bank it was cut from.
type QuizSession struct {
	ID                  string         `json:"id"`
	SourceDocumentSetID string         `json:"source_document_set_id"`
	StudentID           string         `json:"student_id"`
	InitialLevel        Difficulty     `json:"initial_level"`
	CurrentLevel        Difficulty     `json:"current_level"`
	AskedQuestionIDs    []string       `json:"asked_question_ids"`
	Responses           []Response     `json:"responses"`
	AssignedBank        []Question     `json:"assigned_bank"`
	CurrentQuestionID   string         `json:"current_question_id,omitempty"`
	QuestionCount       int            `json:"question_count"`
	Format              QuestionFormat `json:"format"`
	StartedAt           time.Time      `json:"started_at"`
	DeadlineAt          time.Time      `json:"deadline_at"`
	Completed           bool           `json:"completed"`
	CompletedAt         *time.Time     `json:"completed_at,omitempty"`
	TotalMarks          float64        `json:"total_marks"`
	MarksPerQuestion    float64        `json:"marks_per_question"`
	Proctor             ProctorState   `json:"proctor"`
	Publish             PublishState   `json:"publish"`
}

// Asked reports whether the question id was already asked in this session.
func (s *QuizSession) Asked(id string) bool {
	for _, a := range s.AskedQuestionIDs {
		if a == id {
			return true
		}
	}
	return false
}

// QuestionByID looks up a question in the session's private bank.
func (s *QuizSession) QuestionByID(id string) (Question, bool) {
	for _, q := range s.AssignedBank {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Complete marks the session finished at the given time. Idempotent.
func (s *QuizSession) Complete(now time.Time) {
	if s.Completed {
		return
	}
	s.Completed = true
	t := now
	s.CompletedAt = &t
	s.CurrentQuestionID = ""
}
