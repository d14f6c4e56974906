package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"botforge/internal/domain"
)

// ConversationRepository define el contrato de persistencia para conversaciones.
type ConversationRepository interface {
	// GetOrCreate devuelve la conversación activa para la tripleta
	// (chatbot, user_identifier, channel), creándola si no existe.
	GetOrCreate(ctx context.Context, chatbotID, userIdentifier, channel string) (domain.Conversation, error)
	GetByID(ctx context.Context, id string) (domain.Conversation, error)
	ListRecentByChatbotID(ctx context.Context, chatbotID string, limit int) ([]domain.Conversation, error)
	UpdateStatus(ctx context.Context, id, status string, endedAt *time.Time) error
}

// PgConversationRepository implementa ConversationRepository usando pgxpool.
type PgConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPgConversationRepository(pool *pgxpool.Pool) *PgConversationRepository {
	return &PgConversationRepository{pool: pool}
}

const conversationColumns = `
	id, chatbot_id, session_id, user_identifier, channel, status,
	satisfaction_rating, lead_captured, goal_achieved,
	message_count, duration_seconds, started_at, ended_at, last_activity
`

// GetOrCreate usa un upsert sobre el índice único
// (chatbot_id, user_identifier, channel) para que dos webhooks simultáneos
// del mismo usuario terminen en la misma conversación.
func (r *PgConversationRepository) GetOrCreate(ctx context.Context, chatbotID, userIdentifier, channel string) (domain.Conversation, error) {
	query := `
		INSERT INTO conversations (
			id, chatbot_id, session_id, user_identifier, channel, status,
			lead_captured, goal_achieved, message_count, duration_seconds,
			started_at, last_activity
		)
		VALUES ($1, $2, $3, $4, $5, $6, false, false, 0, 0, $7, $7)
		ON CONFLICT (chatbot_id, user_identifier, channel)
			DO UPDATE SET chatbot_id = EXCLUDED.chatbot_id
		RETURNING ` + conversationColumns

	now := time.Now().UTC()
	return scanConversation(r.pool.QueryRow(ctx, query,
		uuid.NewString(),
		chatbotID,
		uuid.NewString(),
		userIdentifier,
		channel,
		domain.ConversationStatusActive,
		now,
	))
}

func (r *PgConversationRepository) GetByID(ctx context.Context, id string) (domain.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	return scanConversation(r.pool.QueryRow(ctx, query, id))
}

func (r *PgConversationRepository) ListRecentByChatbotID(ctx context.Context, chatbotID string, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE chatbot_id = $1
		ORDER BY last_activity DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, chatbotID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (r *PgConversationRepository) UpdateStatus(ctx context.Context, id, status string, endedAt *time.Time) error {
	const query = `
		UPDATE conversations SET status = $2, ended_at = $3 WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, status, endedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanConversation(row pgx.Row) (domain.Conversation, error) {
	var conv domain.Conversation
	err := row.Scan(
		&conv.ID,
		&conv.ChatbotID,
		&conv.SessionID,
		&conv.UserIdentifier,
		&conv.Channel,
		&conv.Status,
		&conv.SatisfactionRating,
		&conv.LeadCaptured,
		&conv.GoalAchieved,
		&conv.MessageCount,
		&conv.DurationSeconds,
		&conv.StartedAt,
		&conv.EndedAt,
		&conv.LastActivity,
	)
	if err != nil {
		return domain.Conversation{}, err
	}
	return conv, nil
}
