package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/openexams/invigil/internal/model"
)

// Memory is an in-memory Store. Entities are kept as JSON snapshots so a
// caller mutating a returned entity never aliases stored state.
type Memory struct {
	mu       sync.RWMutex
	sets     map[string][]byte
	sessions map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sets:     make(map[string][]byte),
		sessions: make(map[string][]byte),
	}
}

// GetDocumentSet implements DocumentSetRepo.
func (m *Memory) GetDocumentSet(_ context.Context, id string) (*model.SourceDocumentSet, error) {
	m.mu.RLock()
	data, ok := m.sets[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var set model.SourceDocumentSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decode document set %s: %w", id, err)
	}
	return &set, nil
}

// PutDocumentSet implements DocumentSetRepo.
func (m *Memory) PutDocumentSet(_ context.Context, set *model.SourceDocumentSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode document set %s: %w", set.ID, err)
	}
	m.mu.Lock()
	m.sets[set.ID] = data
	m.mu.Unlock()
	return nil
}

// DeleteDocumentSet implements DocumentSetRepo.
func (m *Memory) DeleteDocumentSet(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sets, id)
	m.mu.Unlock()
	return nil
}

// GetSession implements SessionRepo.
func (m *Memory) GetSession(_ context.Context, id string) (*model.QuizSession, error) {
	m.mu.RLock()
	data, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var s model.QuizSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

// PutSession implements SessionRepo.
func (m *Memory) PutSession(_ context.Context, s *model.QuizSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	m.mu.Lock()
	m.sessions[s.ID] = data
	m.mu.Unlock()
	return nil
}

// DeleteSession implements SessionRepo.
func (m *Memory) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// ListSessions implements SessionRepo. Results are ordered by id.
func (m *Memory) ListSessions(_ context.Context) ([]*model.QuizSession, error) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)

	out := make([]*model.QuizSession, 0, len(ids))
	for _, id := range ids {
		s, err := m.GetSession(context.Background(), id)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}
