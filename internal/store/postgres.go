package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgForeignKeyViolation is the SQLSTATE for a foreign key violation.
const pgForeignKeyViolation = "23503"

// PostgresStore persists submissions and chats in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore. The schema is managed by the
// database package migrations.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const submissionColumns = `id, session_id, questionnaire_id, answers_json, values_json, score, severity_level, severity_label, chat_id, created_at`

// CreateSubmission inserts a submission.
func (s *PostgresStore) CreateSubmission(ctx context.Context, req CreateSubmissionRequest) (*Submission, error) {
	answersJSON, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}
	var valuesJSON []byte
	if req.Values != nil {
		valuesJSON, err = json.Marshal(req.Values)
		if err != nil {
			return nil, fmt.Errorf("marshal values: %w", err)
		}
	}
	var score *int32
	if req.Score != nil {
		v := int32(*req.Score)
		score = &v
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO submissions (id, session_id, questionnaire_id, answers_json, values_json, score, severity_level, severity_label, chat_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+submissionColumns,
		uuid.NewString(), req.SessionID, req.QuestionnaireID, answersJSON, valuesJSON, score,
		nullText(req.SeverityLevel), nullText(req.SeverityLabel), nullText(req.ChatID),
	)
	sub, err := scanSubmission(row)
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	return sub, nil
}

// GetSubmission returns a submission by id or ErrNotFound.
func (s *PostgresStore) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := s.pool.QueryRow(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

// ListSubmissionsBySession returns the submissions of a session oldest first.
func (s *PostgresStore) ListSubmissionsBySession(ctx context.Context, sessionID int64) ([]Submission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE session_id = $1 ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	out := make([]Submission, 0)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return out, nil
}

// CreateChat registers a chat id; existing chats are left untouched.
func (s *PostgresStore) CreateChat(ctx context.Context, id string, sessionID *int64) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO chats (id, session_id) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, id, sessionID)
	if err != nil {
		return false, fmt.Errorf("insert chat: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ChatExists reports whether the chat is registered.
func (s *PostgresStore) ChatExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM chats WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check chat exists: %w", err)
	}
	return exists, nil
}

// AppendMessage adds a turn to the end of a chat history.
func (s *PostgresStore) AppendMessage(ctx context.Context, chatID, role, content string) (*Message, error) {
	msg := Message{ID: uuid.NewString(), ChatID: chatID, Role: role, Content: content}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO chat_messages (id, chat_id, role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		msg.ID, chatID, role, content,
	).Scan(&msg.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("insert chat message: %w", err)
	}
	msg.CreatedAt = msg.CreatedAt.UTC()
	return &msg, nil
}

// GetMessages returns a chat history in insertion order.
func (s *PostgresStore) GetMessages(ctx context.Context, chatID string) ([]Message, error) {
	exists, err := s.ChatExists(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrChatNotFound
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, chat_id, role, content, created_at FROM chat_messages WHERE chat_id = $1 ORDER BY seq`, chatID)
	if err != nil {
		return nil, fmt.Errorf("get chat messages: %w", err)
	}
	defer rows.Close()

	out := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.CreatedAt = m.CreatedAt.UTC()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get chat messages: %w", err)
	}
	return out, nil
}

func scanSubmission(row pgx.Row) (*Submission, error) {
	var (
		sub           Submission
		answersJSON   []byte
		valuesJSON    []byte
		score         *int32
		severityLevel *string
		severityLabel *string
		chatID        *string
		createdAt     time.Time
	)
	if err := row.Scan(&sub.ID, &sub.SessionID, &sub.QuestionnaireID, &answersJSON, &valuesJSON,
		&score, &severityLevel, &severityLabel, &chatID, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answersJSON, &sub.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if len(valuesJSON) > 0 {
		if err := json.Unmarshal(valuesJSON, &sub.Values); err != nil {
			return nil, fmt.Errorf("decode values: %w", err)
		}
	}
	if score != nil {
		v := int(*score)
		sub.Score = &v
	}
	sub.SeverityLevel = deref(severityLevel)
	sub.SeverityLabel = deref(severityLabel)
	sub.ChatID = deref(chatID)
	sub.CreatedAt = createdAt.UTC()
	return &sub, nil
}

// nullText maps "" to SQL NULL.
func nullText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
