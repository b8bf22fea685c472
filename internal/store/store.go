// Package store provides durable persistence for document sets and quiz
// sessions behind small per-entity repository interfaces, so the engine's
// business logic never branches on the storage backend. Implementations:
// an in-memory store and a sqlite-backed one.
package store

import (
	"context"
	"errors"

	"github.com/openexams/invigil/internal/model"
)

// ErrNotFound indicates the entity does not exist in the store.
var ErrNotFound = errors.New("entity not found")

// DocumentSetRepo persists SourceDocumentSets.
type DocumentSetRepo interface {
	GetDocumentSet(ctx context.Context, id string) (*model.SourceDocumentSet, error)
	PutDocumentSet(ctx context.Context, set *model.SourceDocumentSet) error
	DeleteDocumentSet(ctx context.Context, id string) error
}

// SessionRepo persists QuizSessions.
type SessionRepo interface {
	GetSession(ctx context.Context, id string) (*model.QuizSession, error)
	PutSession(ctx context.Context, s *model.QuizSession) error
	DeleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context) ([]*model.QuizSession, error)
}

// Store is the combined persistence surface the engine is wired with.
type Store interface {
	DocumentSetRepo
	SessionRepo
}
