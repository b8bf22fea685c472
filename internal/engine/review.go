package engine

import (
	"context"

	"github.com/openexams/invigil/internal/evaluate"
	"github.com/openexams/invigil/internal/result"
)

// BuildResult aggregates a session into its final summary.
func (e *Engine) BuildResult(ctx context.Context, sessionID string) (*result.Summary, error) {
	lock := e.entityLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s, err := e.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	summary := result.Build(s, e.msgs.Result)
	return &summary, nil
}

// ReviewEdit is a teacher's per-question override.
type ReviewEdit struct {
	Marks    *float64 `json:"marks,omitempty"`
	Feedback string   `json:"feedback,omitempty"`
}

// SubmitReview applies teacher edits to a session and, when publishFinal is
// set, runs the publish workflow. Teacher fields stay mutable across
// non-final reviews; publishing stamps the review signature.
func (e *Engine) SubmitReview(ctx context.Context, sessionID string, edits map[string]ReviewEdit, overallMarks *float64, overallRemark string, publishFinal bool) (*result.Summary, error) {
	lock := e.entityLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s, err := e.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	for i := range s.Responses {
		edit, ok := edits[s.Responses[i].QuestionID]
		if !ok {
			continue
		}
		if edit.Marks != nil {
			marks := evaluate.Round2(*edit.Marks)
			s.Responses[i].TeacherMarksAwarded = &marks
		}
		if edit.Feedback != "" {
			s.Responses[i].TeacherFeedback = edit.Feedback
		}
	}

	if publishFinal {
		if err := result.Publish(s, overallMarks, overallRemark, e.now()); err != nil {
			e.saveSession(s)
			return nil, err
		}
	} else if overallMarks != nil {
		// A draft review keeps the overall fields without stamping a publish.
		marks := *overallMarks
		s.Publish.TeacherOverallMarks = &marks
		s.Publish.TeacherOverallRemark = overallRemark
	}

	e.saveSession(s)
	summary := result.Build(s, e.msgs.Result)
	return &summary, nil
}

// BulkPublishItem is one session's review in a batch publish.
type BulkPublishItem struct {
	SessionID     string                `json:"session_id"`
	Edits         map[string]ReviewEdit `json:"edits,omitempty"`
	OverallMarks  *float64              `json:"overall_marks,omitempty"`
	OverallRemark string                `json:"overall_remark,omitempty"`
}

// BulkPublishOutcome is the per-item result of a batch publish.
type BulkPublishOutcome struct {
	SessionID string `json:"session_id"`
	Published bool   `json:"published"`
	Error     string `json:"error,omitempty"`
}

// BulkPublish publishes a batch of reviews, applying the publish rules
// independently per session. Individual failures never abort the batch.
func (e *Engine) BulkPublish(ctx context.Context, items []BulkPublishItem) []BulkPublishOutcome {
	outcomes := make([]BulkPublishOutcome, 0, len(items))
	for _, item := range items {
		out := BulkPublishOutcome{SessionID: item.SessionID}
		if _, err := e.SubmitReview(ctx, item.SessionID, item.Edits, item.OverallMarks, item.OverallRemark, true); err != nil {
			out.Error = err.Error()
		} else {
			out.Published = true
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// Summaries builds result summaries for every known session, for export.
func (e *Engine) Summaries(ctx context.Context) ([]result.Summary, error) {
	if e.store == nil {
		e.mu.Lock()
		ids := make([]string, 0, len(e.sessions))
		for id := range e.sessions {
			ids = append(ids, id)
		}
		e.mu.Unlock()
		out := make([]result.Summary, 0, len(ids))
		for _, id := range ids {
			summary, err := e.BuildResult(ctx, id)
			if err != nil {
				continue
			}
			out = append(out, *summary)
		}
		return out, nil
	}

	sessions, err := e.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]result.Summary, 0, len(sessions))
	for _, s := range sessions {
		summary, err := e.BuildResult(ctx, s.ID)
		if err != nil {
			continue
		}
		out = append(out, *summary)
	}
	return out, nil
}
