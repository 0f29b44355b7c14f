// Package survey accepts questionnaire submissions, scores them and opens the
// follow-up chat.
package survey

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/vntrieu/moodscreen/internal/chat"
	"github.com/vntrieu/moodscreen/internal/questionnaire"
	"github.com/vntrieu/moodscreen/internal/session"
	"github.com/vntrieu/moodscreen/internal/store"
)

// ErrInvalidSession is returned for a session id outside the 9-digit range.
var ErrInvalidSession = errors.New("invalid session id")

// Answers holds either revision of the answers field: question text to
// answer, or ordinals in question order.
type Answers struct {
	ByQuestion map[string]string
	Ordinals   []int
}

// Empty reports whether no answer was given.
func (a Answers) Empty() bool {
	return len(a.ByQuestion) == 0 && len(a.Ordinals) == 0
}

// UnmarshalJSON accepts an object of string (or integer) answers or an array
// of integers. A null array element is an unanswered question.
func (a *Answers) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Answers{}
		return nil
	}
	switch data[0] {
	case '[':
		var raw []*int
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("answers must be integers: %w", err)
		}
		ordinals := make([]int, len(raw))
		for i, v := range raw {
			if v == nil {
				return fmt.Errorf("%w: question %d is not answered", questionnaire.ErrInvalidAnswers, i+1)
			}
			ordinals[i] = *v
		}
		*a = Answers{Ordinals: ordinals}
		return nil
	case '{':
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make(map[string]string, len(raw))
		for k, v := range raw {
			switch vv := v.(type) {
			case string:
				out[k] = vv
			case float64:
				if vv != float64(int64(vv)) {
					return fmt.Errorf("answer to %q is not an integer", k)
				}
				out[k] = strconv.FormatInt(int64(vv), 10)
			default:
				return fmt.Errorf("answer to %q must be a string", k)
			}
		}
		*a = Answers{ByQuestion: out}
		return nil
	default:
		return fmt.Errorf("answers must be an object or an array")
	}
}

// MarshalJSON writes the revision that was received.
func (a Answers) MarshalJSON() ([]byte, error) {
	if a.Ordinals != nil {
		return json.Marshal(a.Ordinals)
	}
	if a.ByQuestion == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a.ByQuestion)
}

// Request is the body of POST /survay. SessionID is optional; a fresh one
// is issued when absent.
type Request struct {
	SessionID *int64  `json:"session_id,omitempty"`
	Answers   Answers `json:"answers" swaggertype:"object"`
}

// Result is returned for an accepted submission. Score and severity are
// omitted for submissions with free-text answers.
type Result struct {
	SubmissionID  string `json:"submission_id"`
	SessionID     int64  `json:"session_id"`
	Score         *int   `json:"score,omitempty"`
	Severity      string `json:"severity,omitempty"`
	SeverityLevel string `json:"severity_level,omitempty"`
	ChatID        string `json:"chat_id"`
	Message       string `json:"message"`
}

// Service handles submissions.
type Service struct {
	q      *questionnaire.Questionnaire
	store  store.SubmissionStore
	chat   *chat.Service
	logger *zap.Logger
}

// NewService creates a survey service.
func NewService(q *questionnaire.Questionnaire, st store.SubmissionStore, chatSvc *chat.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{q: q, store: st, chat: chatSvc, logger: logger}
}

// Questionnaire returns the definition submissions are checked against.
func (s *Service) Questionnaire() *questionnaire.Questionnaire { return s.q }

// Submit validates, scores and stores a submission, then starts its chat.
// Validation failures wrap questionnaire.ErrInvalidAnswers or ErrInvalidSession.
func (s *Service) Submit(ctx context.Context, req Request) (*Result, error) {
	var sessionID int64
	if req.SessionID == nil {
		sessionID = session.NewID()
	} else {
		sessionID = *req.SessionID
		if !session.Valid(sessionID) {
			return nil, fmt.Errorf("%w: %d", ErrInvalidSession, sessionID)
		}
	}
	if req.Answers.Empty() {
		return nil, fmt.Errorf("%w: answers are required", questionnaire.ErrInvalidAnswers)
	}

	create := store.CreateSubmissionRequest{SessionID: sessionID, QuestionnaireID: s.q.ID}
	var result *questionnaire.Result
	if req.Answers.Ordinals != nil {
		r, err := s.q.Score(req.Answers.Ordinals)
		if err != nil {
			return nil, err
		}
		result = &r
		create.Answers = s.q.AnswerMap(req.Answers.Ordinals)
		create.Values = req.Answers.Ordinals
	} else {
		resolved, err := s.q.Resolve(req.Answers.ByQuestion)
		if err != nil {
			return nil, err
		}
		create.Answers = resolved.Answers
		if resolved.Scored() {
			r, err := s.q.Score(resolved.Values)
			if err != nil {
				return nil, err
			}
			result = &r
			create.Values = resolved.Values
		}
	}

	var severity *questionnaire.Severity
	if result != nil {
		score := result.Score
		create.Score = &score
		create.SeverityLevel = result.Severity.Level
		create.SeverityLabel = result.Severity.Label
		severity = &result.Severity
	}

	chatID := s.chat.NewChatID()
	create.ChatID = chatID

	// The chat is opened only once the submission is stored. A chat that
	// fails to open here is started by the first reply instead.
	sub, err := s.store.CreateSubmission(ctx, create)
	if err != nil {
		return nil, fmt.Errorf("store submission: %w", err)
	}
	welcome, err := s.chat.Start(ctx, chatID, &sessionID, severity)
	if err != nil {
		s.logger.Warn("start chat after submission", zap.String("submission_id", sub.ID), zap.String("chat_id", chatID), zap.Error(err))
		welcome = chat.Welcome(severity)
	}

	fields := []zap.Field{zap.String("submission_id", sub.ID), zap.Int64("session_id", sessionID), zap.String("chat_id", chatID)}
	if result != nil {
		fields = append(fields, zap.Int("score", result.Score), zap.String("severity", result.Severity.Level))
	}
	s.logger.Info("submission accepted", fields...)

	out := &Result{
		SubmissionID: sub.ID,
		SessionID:    sessionID,
		Score:        sub.Score,
		ChatID:       chatID,
		Message:      welcome,
	}
	if result != nil {
		out.Severity = result.Severity.Label
		out.SeverityLevel = result.Severity.Level
	}
	return out, nil
}

// Get returns a stored submission.
func (s *Service) Get(ctx context.Context, id string) (*store.Submission, error) {
	return s.store.GetSubmission(ctx, id)
}

// ListBySession returns the submissions of a session oldest first.
func (s *Service) ListBySession(ctx context.Context, sessionID int64) ([]store.Submission, error) {
	if !session.Valid(sessionID) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSession, sessionID)
	}
	return s.store.ListSubmissionsBySession(ctx, sessionID)
}
