// Package result computes final scores and remarks for a finished session
// and governs the idempotent, rate-limited teacher publish cycle.
package result

import (
	"time"

	"github.com/openexams/invigil/internal/evaluate"
	"github.com/openexams/invigil/internal/model"
)

// Messages holds the remark texts per tier.
type Messages struct {
	Outstanding      string
	GreatWork        string
	GoodProgress     string
	NeedsImprovement string
	Critical         string
}

// DefaultMessages are the English remark texts.
var DefaultMessages = Messages{
	Outstanding:      "Outstanding",
	GreatWork:        "Great work",
	GoodProgress:     "Good progress",
	NeedsImprovement: "Needs improvement",
	Critical:         "Critical: revise basics",
}

// Summary is the aggregated outcome of one quiz session.
type Summary struct {
	SessionID         string                        `json:"session_id"`
	StudentID         string                        `json:"student_id"`
	Completed         bool                          `json:"completed"`
	CompletedAt       *time.Time                    `json:"completed_at,omitempty"`
	Responses         []model.Response              `json:"responses"`
	AveragePercentage float64                       `json:"average_percentage"`
	PerDifficulty     map[model.Difficulty]*float64 `json:"per_difficulty"`
	MarksObtained     float64                       `json:"marks_obtained"`
	TotalMarks        float64                       `json:"total_marks"`
	MarksPercent      *float64                      `json:"marks_percent,omitempty"`
	Remark            string                        `json:"remark"`
	RiskScore         int                           `json:"risk_score"`
	WarningCount      int                           `json:"warning_count"`
	Publish           model.PublishState            `json:"publish"`
}

// Build aggregates a session's responses into a Summary. Responses missing
// marks but carrying a percentage get their marks derived from the session's
// per-question allotment.
func Build(s *model.QuizSession, msgs Messages) Summary {
	responses := make([]model.Response, len(s.Responses))
	copy(responses, s.Responses)

	var pctSum float64
	buckets := make(map[model.Difficulty][]float64)
	for i := range responses {
		r := &responses[i]
		if r.MarksAwarded == 0 && r.Percentage > 0 {
			r.MarksAwarded = evaluate.Marks(r.Percentage, s.MarksPerQuestion)
		}
		pctSum += r.Percentage
		if q, ok := s.QuestionByID(r.QuestionID); ok {
			buckets[q.Difficulty] = append(buckets[q.Difficulty], r.Percentage)
		}
	}

	avg := 0.0
	if len(responses) > 0 {
		avg = evaluate.Round2(pctSum / float64(len(responses)))
	}

	perDifficulty := make(map[model.Difficulty]*float64, len(model.Levels))
	for _, level := range model.Levels {
		vals := buckets[level]
		if len(vals) == 0 {
			perDifficulty[level] = nil
			continue
		}
		sum := 0.0
		for _, v := range vals {
			sum += v
		}
		mean := evaluate.Round2(sum / float64(len(vals)))
		perDifficulty[level] = &mean
	}

	marks := effectiveMarks(s, responses)

	var marksPercent *float64
	if s.TotalMarks > 0 {
		mp := evaluate.Round2(marks / s.TotalMarks * 100)
		marksPercent = &mp
	}

	basis := avg
	if marksPercent != nil {
		basis = *marksPercent
	}

	return Summary{
		SessionID:         s.ID,
		StudentID:         s.StudentID,
		Completed:         s.Completed,
		CompletedAt:       s.CompletedAt,
		Responses:         responses,
		AveragePercentage: avg,
		PerDifficulty:     perDifficulty,
		MarksObtained:     marks,
		TotalMarks:        s.TotalMarks,
		MarksPercent:      marksPercent,
		Remark:            remarkFor(basis, msgs),
		RiskScore:         s.Proctor.RiskScore,
		WarningCount:      s.Proctor.WarningCount,
		Publish:           s.Publish,
	}
}

// effectiveMarks is the teacher's overall figure once published, otherwise
// the sum of each response's effective marks (teacher override when
// published, AI/lexical marks until then).
func effectiveMarks(s *model.QuizSession, responses []model.Response) float64 {
	if s.Publish.Published() && s.Publish.TeacherOverallMarks != nil {
		return *s.Publish.TeacherOverallMarks
	}
	sum := 0.0
	for _, r := range responses {
		if s.Publish.Published() && r.TeacherMarksAwarded != nil {
			sum += *r.TeacherMarksAwarded
		} else {
			sum += r.MarksAwarded
		}
	}
	return evaluate.Round2(sum)
}

func remarkFor(percent float64, msgs Messages) string {
	switch {
	case percent >= 90:
		return msgs.Outstanding
	case percent >= 75:
		return msgs.GreatWork
	case percent >= 60:
		return msgs.GoodProgress
	case percent >= 40:
		return msgs.NeedsImprovement
	default:
		return msgs.Critical
	}
}
