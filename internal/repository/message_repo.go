package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"botforge/internal/domain"
)

// MessageRepository define el contrato del ledger de mensajes (append-only).
type MessageRepository interface {
	// Append inserta el mensaje y actualiza message_count y last_activity de
	// la conversación padre en la misma transacción: o ambos quedan, o ninguno.
	Append(ctx context.Context, message domain.Message) error
	ListByConversationID(ctx context.Context, conversationID string) ([]domain.Message, error)
	ListByConversationAndSender(ctx context.Context, conversationID, sender string) ([]domain.Message, error)
}

// PgMessageRepository implementa MessageRepository usando pgxpool.
type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Append(ctx context.Context, message domain.Message) error {
	const insertQuery = `
		INSERT INTO messages (
			id, conversation_id, sender, content, message_type,
			intent, confidence, response_time_ms, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	const bumpQuery = `
		UPDATE conversations
		SET message_count = message_count + 1, last_activity = $2
		WHERE id = $1
	`

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertQuery,
			message.ID,
			message.ConversationID,
			message.Sender,
			message.Content,
			message.MessageType,
			nullIfEmpty(message.Intent),
			message.Confidence,
			message.ResponseTimeMs,
			message.CreatedAt,
		); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, bumpQuery, message.ConversationID, message.CreatedAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}

func (r *PgMessageRepository) ListByConversationID(ctx context.Context, conversationID string) ([]domain.Message, error) {
	const query = `
		SELECT id, conversation_id, sender, content, message_type,
		       intent, confidence, response_time_ms, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

func (r *PgMessageRepository) ListByConversationAndSender(ctx context.Context, conversationID, sender string) ([]domain.Message, error) {
	const query = `
		SELECT id, conversation_id, sender, content, message_type,
		       intent, confidence, response_time_ms, created_at
		FROM messages
		WHERE conversation_id = $1 AND sender = $2
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, conversationID, sender)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMessages(rows)
}

func collectMessages(rows pgx.Rows) ([]domain.Message, error) {
	var messages []domain.Message
	for rows.Next() {
		var (
			msg    domain.Message
			intent *string
		)
		err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Sender,
			&msg.Content,
			&msg.MessageType,
			&intent,
			&msg.Confidence,
			&msg.ResponseTimeMs,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if intent != nil {
			msg.Intent = *intent
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
