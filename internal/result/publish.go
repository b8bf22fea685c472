package result

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/openexams/invigil/internal/evaluate"
	"github.com/openexams/invigil/internal/model"
)

var (
	// ErrSessionNotCompleted rejects publishing an unfinished session.
	ErrSessionNotCompleted = errors.New("session is not completed")
	// ErrOverallMarksMissing rejects publishing without a finite overall mark.
	ErrOverallMarksMissing = errors.New("overall marks missing or not finite")
	// ErrPublishLimitReached rejects a fourth publish of the same session.
	ErrPublishLimitReached = errors.New("republish limit reached")
	// ErrNoChangesSincePublish rejects a republish with identical content.
	ErrNoChangesSincePublish = errors.New("no changes since last publish")
)

const maxPublishCount = 3

// canonicalResponse is the per-response slice of the review signature:
// marks rounded to two decimals, feedback trimmed, so floating-point noise
// and whitespace edits do not count as changes.
type canonicalResponse struct {
	QuestionID string  `json:"question_id"`
	Marks      float64 `json:"marks"`
	Feedback   string  `json:"feedback"`
}

type canonicalReview struct {
	Responses     []canonicalResponse `json:"responses"`
	OverallMarks  float64             `json:"overall_marks"`
	OverallRemark string              `json:"overall_remark"`
}

// ReviewSignature hashes the canonical form of a teacher review. It is
// invariant under response reordering and under mark changes beyond the
// two-decimal rounding boundary.
func ReviewSignature(responses []model.Response, overallMarks float64, overallRemark string) string {
	canon := make([]canonicalResponse, len(responses))
	for i, r := range responses {
		marks := r.MarksAwarded
		feedback := r.Feedback
		if r.TeacherMarksAwarded != nil {
			marks = *r.TeacherMarksAwarded
		}
		if r.TeacherFeedback != "" {
			feedback = r.TeacherFeedback
		}
		canon[i] = canonicalResponse{
			QuestionID: r.QuestionID,
			Marks:      evaluate.Round2(marks),
			Feedback:   strings.TrimSpace(feedback),
		}
	}
	sort.Slice(canon, func(i, j int) bool { return canon[i].QuestionID < canon[j].QuestionID })

	payload, _ := json.Marshal(canonicalReview{
		Responses:     canon,
		OverallMarks:  evaluate.Round2(overallMarks),
		OverallRemark: strings.TrimSpace(overallRemark),
	})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Publish finalizes the teacher review on a completed session. Republishing
// is allowed only while the publish count is under three and only when the
// review content actually changed since the last publish.
func Publish(s *model.QuizSession, overallMarks *float64, overallRemark string, now time.Time) error {
	if !s.Completed {
		return ErrSessionNotCompleted
	}
	if overallMarks == nil || math.IsNaN(*overallMarks) || math.IsInf(*overallMarks, 0) {
		return ErrOverallMarksMissing
	}
	if s.Publish.PublishCount >= maxPublishCount {
		return ErrPublishLimitReached
	}

	sig := ReviewSignature(s.Responses, *overallMarks, overallRemark)
	if s.Publish.PublishCount > 0 && sig == s.Publish.LastPublishedReviewHash {
		return ErrNoChangesSincePublish
	}

	marks := *overallMarks
	t := now
	s.Publish.TeacherOverallMarks = &marks
	s.Publish.TeacherOverallRemark = overallRemark
	s.Publish.TeacherPublishedAt = &t
	s.Publish.PublishCount++
	s.Publish.LastPublishedReviewHash = sig
	return nil
}
