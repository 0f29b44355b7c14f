package store

import (
	"context"
	"errors"
	"time"
)

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrNotFound is returned when a submission does not exist.
	ErrNotFound = errors.New("not found")
	// ErrChatNotFound is returned when a chat does not exist.
	ErrChatNotFound = errors.New("chat not found")
)

// Submission is a stored questionnaire submission.
type Submission struct {
	ID              string            `json:"id"`
	SessionID       int64             `json:"session_id"`
	QuestionnaireID string            `json:"questionnaire_id"`
	Answers         map[string]string `json:"answers"`
	Values          []int             `json:"values,omitempty"`
	Score           *int              `json:"score,omitempty"`
	SeverityLevel   string            `json:"severity_level,omitempty"`
	SeverityLabel   string            `json:"severity,omitempty"`
	ChatID          string            `json:"chat_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// CreateSubmissionRequest contains the data needed to store a submission.
// Values, Score and severity are empty for unscored (free-text) submissions.
type CreateSubmissionRequest struct {
	SessionID       int64
	QuestionnaireID string
	Answers         map[string]string
	Values          []int
	Score           *int
	SeverityLevel   string
	SeverityLabel   string
	ChatID          string
}

// Message is one turn of a chat history.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmissionStore persists questionnaire submissions.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, req CreateSubmissionRequest) (*Submission, error)
	GetSubmission(ctx context.Context, id string) (*Submission, error)
	ListSubmissionsBySession(ctx context.Context, sessionID int64) ([]Submission, error)
}

// ChatStore persists chat histories.
type ChatStore interface {
	// CreateChat registers a chat; created is false when it already existed.
	CreateChat(ctx context.Context, id string, sessionID *int64) (created bool, err error)
	ChatExists(ctx context.Context, id string) (bool, error)
	// AppendMessage fails with ErrChatNotFound for an unknown chat.
	AppendMessage(ctx context.Context, chatID, role, content string) (*Message, error)
	// GetMessages returns the history oldest first.
	GetMessages(ctx context.Context, chatID string) ([]Message, error)
}

// Store is the full persistence surface used by the services.
type Store interface {
	SubmissionStore
	ChatStore
}

func copyAnswers(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copySubmission(s *Submission) Submission {
	out := *s
	out.Answers = copyAnswers(s.Answers)
	if s.Values != nil {
		out.Values = append([]int(nil), s.Values...)
	}
	if s.Score != nil {
		score := *s.Score
		out.Score = &score
	}
	return out
}
