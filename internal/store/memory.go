package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps submissions and chats in process memory. Nothing survives
// a restart.
type MemoryStore struct {
	mu          sync.RWMutex
	submissions map[string]*Submission
	bySession   map[int64][]string
	chats       map[string][]Message
	nowFunc     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		submissions: make(map[string]*Submission),
		bySession:   make(map[int64][]string),
		chats:       make(map[string][]Message),
		nowFunc:     time.Now,
	}
}

func (s *MemoryStore) CreateSubmission(_ context.Context, req CreateSubmissionRequest) (*Submission, error) {
	sub := &Submission{
		ID:              uuid.NewString(),
		SessionID:       req.SessionID,
		QuestionnaireID: req.QuestionnaireID,
		Answers:         copyAnswers(req.Answers),
		SeverityLevel:   req.SeverityLevel,
		SeverityLabel:   req.SeverityLabel,
		ChatID:          req.ChatID,
		CreatedAt:       s.nowFunc().UTC(),
	}
	if req.Values != nil {
		sub.Values = append([]int(nil), req.Values...)
	}
	if req.Score != nil {
		score := *req.Score
		sub.Score = &score
	}

	s.mu.Lock()
	s.submissions[sub.ID] = sub
	s.bySession[sub.SessionID] = append(s.bySession[sub.SessionID], sub.ID)
	s.mu.Unlock()

	out := copySubmission(sub)
	return &out, nil
}

func (s *MemoryStore) GetSubmission(_ context.Context, id string) (*Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copySubmission(sub)
	return &out, nil
}

func (s *MemoryStore) ListSubmissionsBySession(_ context.Context, sessionID int64) ([]Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.bySession[sessionID]
	out := make([]Submission, 0, len(ids))
	for _, id := range ids {
		out = append(out, copySubmission(s.submissions[id]))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateChat(_ context.Context, id string, _ *int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[id]; ok {
		return false, nil
	}
	s.chats[id] = []Message{}
	return true, nil
}

func (s *MemoryStore) ChatExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.chats[id]
	return ok, nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, chatID, role, content string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, ok := s.chats[chatID]
	if !ok {
		return nil, ErrChatNotFound
	}
	msg := Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: s.nowFunc().UTC(),
	}
	s.chats[chatID] = append(history, msg)
	return &msg, nil
}

func (s *MemoryStore) GetMessages(_ context.Context, chatID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history, ok := s.chats[chatID]
	if !ok {
		return nil, ErrChatNotFound
	}
	out := make([]Message, len(history))
	copy(out, history)
	return out, nil
}
