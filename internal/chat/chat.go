// Package chat runs the assistant dialog that follows a questionnaire.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vntrieu/moodscreen/internal/llm"
	"github.com/vntrieu/moodscreen/internal/questionnaire"
	"github.com/vntrieu/moodscreen/internal/store"
	"github.com/vntrieu/moodscreen/internal/tools"
)

// ErrEmptyMessage is returned for a blank user message.
var ErrEmptyMessage = errors.New("message text is required")

// Config tunes the dialog.
type Config struct {
	SystemPrompt  string
	Temperature   float32
	MaxToolRounds int
}

// Service owns chat histories and drives the model.
type Service struct {
	store  store.ChatStore
	model  llm.Completer
	tools  *tools.Registry
	cfg    Config
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

// NewService creates a chat service. model and reg may be nil: without a
// model every reply is UnavailableMessage; without a registry no tools are
// offered.
func NewService(st store.ChatStore, model llm.Completer, reg *tools.Registry, cfg Config, logger *zap.Logger) *Service {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.MaxToolRounds < 1 {
		cfg.MaxToolRounds = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = tools.NewRegistry(logger)
	}
	return &Service{
		store:  st,
		model:  model,
		tools:  reg,
		cfg:    cfg,
		logger: logger,
		locks:  make(map[string]*chatLock),
	}
}

// Available reports whether a model is configured.
func (s *Service) Available() bool { return s.model != nil }

// NewChatID returns a fresh chat identifier.
func (s *Service) NewChatID() string { return uuid.NewString() }

// Welcome returns the opening assistant message, mentioning the severity
// when one is known.
func Welcome(severity *questionnaire.Severity) string {
	if severity == nil || severity.Label == "" {
		return WelcomeMessage
	}
	return fmt.Sprintf(welcomeWithResult, strings.ToLower(severity.Label))
}

// Start creates the chat with the system prompt and the welcome message and
// returns the welcome. An existing chat is left as is.
func (s *Service) Start(ctx context.Context, chatID string, sessionID *int64, severity *questionnaire.Severity) (string, error) {
	unlock := s.lock(chatID)
	defer unlock()
	return s.start(ctx, chatID, sessionID, severity)
}

func (s *Service) start(ctx context.Context, chatID string, sessionID *int64, severity *questionnaire.Severity) (string, error) {
	welcome := Welcome(severity)
	created, err := s.store.CreateChat(ctx, chatID, sessionID)
	if err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}
	if !created {
		return welcome, nil
	}
	if _, err := s.store.AppendMessage(ctx, chatID, store.RoleSystem, s.cfg.SystemPrompt); err != nil {
		return "", fmt.Errorf("store system prompt: %w", err)
	}
	if _, err := s.store.AppendMessage(ctx, chatID, store.RoleAssistant, welcome); err != nil {
		return "", fmt.Errorf("store welcome: %w", err)
	}
	s.logger.Info("chat started", zap.String("chat_id", chatID), zap.Bool("with_result", severity != nil))
	return welcome, nil
}

// IsExit reports whether text ends the dialog.
func IsExit(text string) bool {
	_, ok := exitWords[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// Reply answers one user message. Unknown chats are started first. Replies
// to the same chat run one at a time.
func (s *Service) Reply(ctx context.Context, chatID, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}

	unlock := s.lock(chatID)
	defer unlock()

	exists, err := s.store.ChatExists(ctx, chatID)
	if err != nil {
		return "", fmt.Errorf("check chat: %w", err)
	}
	if !exists {
		if _, err := s.start(ctx, chatID, nil, nil); err != nil {
			return "", err
		}
	}

	if IsExit(text) {
		return FarewellMessage, nil
	}

	if _, err := s.store.AppendMessage(ctx, chatID, store.RoleUser, text); err != nil {
		return "", fmt.Errorf("store user message: %w", err)
	}

	reply := UnavailableMessage
	if s.model != nil {
		history, err := s.store.GetMessages(ctx, chatID)
		if err != nil {
			return "", fmt.Errorf("load history: %w", err)
		}
		reply = s.generate(ctx, chatID, history)
	}

	if _, err := s.store.AppendMessage(ctx, chatID, store.RoleAssistant, reply); err != nil {
		return "", fmt.Errorf("store assistant message: %w", err)
	}
	return reply, nil
}

// History returns the stored turns of a chat.
func (s *Service) History(ctx context.Context, chatID string) ([]store.Message, error) {
	return s.store.GetMessages(ctx, chatID)
}

// generate runs the tool loop. Tool exchanges stay out of the stored history.
func (s *Service) generate(ctx context.Context, chatID string, history []store.Message) string {
	req := llm.Request{System: s.cfg.SystemPrompt, Temperature: s.cfg.Temperature}
	for _, m := range history {
		switch m.Role {
		case store.RoleSystem:
			req.System = m.Content
		case store.RoleUser:
			req.Messages = append(req.Messages, llm.Message{Role: llm.RoleUser, Content: m.Content})
		case store.RoleAssistant:
			req.Messages = append(req.Messages, llm.Message{Role: llm.RoleAssistant, Content: m.Content})
		}
	}
	s.tools.Refresh(ctx)
	req.Tools = s.tools.Specs()

	log := s.logger.With(zap.String("chat_id", chatID), zap.String("model", s.model.Model()))
	var last *llm.Response
	for round := 0; round < s.cfg.MaxToolRounds; round++ {
		resp, err := s.model.Complete(ctx, req)
		if err != nil {
			log.Error("model completion failed", zap.Int("round", round), zap.Error(err))
			return ApologyMessage
		}
		last = resp
		if len(resp.ToolCalls) == 0 {
			break
		}

		req.Messages = append(req.Messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			log.Info("tool call", zap.String("tool", call.Name), zap.Int("round", round))
			req.Messages = append(req.Messages, llm.Message{
				Role:       llm.RoleTool,
				Name:       call.Name,
				ToolCallID: call.ID,
				Content:    s.tools.Call(ctx, call.Name, call.Arguments),
			})
		}
	}

	if last == nil || strings.TrimSpace(last.Content) == "" {
		return NoAnswerMessage
	}
	return last.Content
}

// lock serializes work on one chat and returns the release func.
func (s *Service) lock(chatID string) func() {
	s.mu.Lock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &chatLock{}
		s.locks[chatID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, chatID)
		}
		s.mu.Unlock()
	}
}
