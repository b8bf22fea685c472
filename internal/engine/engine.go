// Package engine is the caller-facing surface of the assessment core. It
// owns the live, authoritative entities, serializes all mutations per
// entity, and treats durable storage as a write-behind cache: saves are
// queued and applied asynchronously in submission order, and a persistence
// failure never erases an in-memory result already computed.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/openexams/invigil/internal/evaluate"
	"github.com/openexams/invigil/internal/model"
	"github.com/openexams/invigil/internal/proctor"
	"github.com/openexams/invigil/internal/result"
	"github.com/openexams/invigil/internal/session"
	"github.com/openexams/invigil/internal/store"
)

var (
	// ErrSessionCompleted rejects operations on a finished session.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrNoActiveQuestion rejects an answer when no question is pending.
	ErrNoActiveQuestion = errors.New("no active question for session")
	// ErrInvalidArgument rejects malformed creation parameters.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Messages bundles the student-facing texts of every subsystem, resolved
// once per deployment in the configured language.
type Messages struct {
	Evaluate evaluate.Messages
	Proctor  proctor.Messages
	Result   result.Messages
}

// DefaultMessages are the English texts.
var DefaultMessages = Messages{
	Evaluate: evaluate.DefaultMessages,
	Proctor:  proctor.DefaultMessages,
	Result:   result.DefaultMessages,
}

// Engine coordinates the assessment pipeline over live in-memory entities.
type Engine struct {
	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	sets     map[string]*model.SourceDocumentSet
	sessions map[string]*model.QuizSession

	store  store.Store
	scorer evaluate.Scorer
	msgs   Messages
	now    func() time.Time

	persist chan func()
	wg      sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore attaches a durable backend, written asynchronously.
func WithStore(s store.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithScorer sets the subjective scoring strategy. Defaults to the lexical
// scorer; wrap it with evaluate.NewOracleScorer to enable the AI path.
func WithScorer(s evaluate.Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithMessages sets the student-facing text catalog.
func WithMessages(m Messages) Option {
	return func(e *Engine) { e.msgs = m }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine and starts its persistence worker.
func New(opts ...Option) *Engine {
	e := &Engine{
		locks:    make(map[string]*sync.Mutex),
		sets:     make(map[string]*model.SourceDocumentSet),
		sessions: make(map[string]*model.QuizSession),
		msgs:     DefaultMessages,
		now:      time.Now,
		persist:  make(chan func(), 256),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.scorer == nil {
		e.scorer = evaluate.NewLexicalScorer(e.msgs.Evaluate)
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for job := range e.persist {
			job()
		}
	}()
	return e
}

// Close drains the persistence queue and stops the worker.
func (e *Engine) Close() {
	close(e.persist)
	e.wg.Wait()
}

// entityLock returns the mutex serializing mutations to one entity.
func (e *Engine) entityLock(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}

// saveSession queues a durable write of the session's current state.
// The snapshot is taken now so later mutations cannot reorder history.
func (e *Engine) saveSession(s *model.QuizSession) {
	if e.store == nil {
		return
	}
	snap := cloneSession(s)
	e.persist <- func() {
		if err := e.store.PutSession(context.Background(), snap); err != nil {
			slog.Warn("session persistence failed", "session_id", snap.ID, "error", err)
		}
	}
}

// saveDocumentSet queues a durable write of the document set's current state.
func (e *Engine) saveDocumentSet(set *model.SourceDocumentSet) {
	if e.store == nil {
		return
	}
	snap := cloneDocumentSet(set)
	e.persist <- func() {
		if err := e.store.PutDocumentSet(context.Background(), snap); err != nil {
			slog.Warn("document set persistence failed", "set_id", snap.ID, "error", err)
		}
	}
}

// getSet returns the live document set, loading it from the durable store
// on a cache miss. Callers must hold the entity lock.
func (e *Engine) getSet(ctx context.Context, id string) (*model.SourceDocumentSet, error) {
	e.mu.Lock()
	set, ok := e.sets[id]
	e.mu.Unlock()
	if ok {
		return set, nil
	}
	if e.store == nil {
		return nil, store.ErrNotFound
	}
	set, err := e.store.GetDocumentSet(ctx, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.sets[id] = set
	e.mu.Unlock()
	return set, nil
}

// getSession returns the live session, loading it from the durable store on
// a cache miss, and lazily enforces the deadline. Callers must hold the
// entity lock.
func (e *Engine) getSession(ctx context.Context, id string) (*model.QuizSession, error) {
	e.mu.Lock()
	s, ok := e.sessions[id]
	e.mu.Unlock()
	if !ok {
		if e.store == nil {
			return nil, store.ErrNotFound
		}
		loaded, err := e.store.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		s = loaded
		e.mu.Lock()
		e.sessions[id] = s
		e.mu.Unlock()
	}
	e.expireIfOverdue(s)
	return s, nil
}

func (e *Engine) expireIfOverdue(s *model.QuizSession) {
	if session.ExpireIfOverdue(s, e.now()) {
		s.Proctor.WarningMessages = append(s.Proctor.WarningMessages, e.msgs.Proctor.CancelDeadline)
		e.saveSession(s)
	}
}

func cloneSession(s *model.QuizSession) *model.QuizSession {
	data, _ := json.Marshal(s)
	var out model.QuizSession
	_ = json.Unmarshal(data, &out)
	return &out
}

func cloneDocumentSet(s *model.SourceDocumentSet) *model.SourceDocumentSet {
	data, _ := json.Marshal(s)
	var out model.SourceDocumentSet
	_ = json.Unmarshal(data, &out)
	return &out
}
