package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"botforge/internal/domain"
)

// ChatbotRepository define el contrato de persistencia para chatbots.
type ChatbotRepository interface {
	Create(ctx context.Context, bot domain.Chatbot) error
	GetByID(ctx context.Context, id string) (domain.Chatbot, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.Chatbot, error)
	UpdateConfig(ctx context.Context, id string, cfg domain.ChatbotConfig, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// PgChatbotRepository implementa ChatbotRepository usando pgxpool.
// La configuración viaja como JSONB para conservar claves residuales.
type PgChatbotRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatbotRepository(pool *pgxpool.Pool) *PgChatbotRepository {
	return &PgChatbotRepository{pool: pool}
}

const chatbotColumns = `
	id, user_id, name, description, template_id, industry, use_case,
	config, theme, status, deployment_url, embed_code, deployed_at,
	total_conversations, total_messages, satisfaction_score,
	created_at, updated_at
`

func (r *PgChatbotRepository) Create(ctx context.Context, bot domain.Chatbot) error {
	cfgJSON, err := json.Marshal(bot.Config)
	if err != nil {
		return fmt.Errorf("marshal chatbot config: %w", err)
	}

	const query = `
		INSERT INTO chatbots (
			id, user_id, name, description, template_id, industry, use_case,
			config, theme, status, deployment_url, embed_code, deployed_at,
			total_conversations, total_messages, satisfaction_score,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err = r.pool.Exec(ctx, query,
		bot.ID,
		bot.UserID,
		bot.Name,
		bot.Description,
		bot.TemplateID,
		bot.Industry,
		bot.UseCase,
		cfgJSON,
		bot.Theme,
		bot.Status,
		bot.DeploymentURL,
		bot.EmbedCode,
		bot.DeployedAt,
		bot.TotalConversations,
		bot.TotalMessages,
		bot.SatisfactionScore,
		bot.CreatedAt,
		bot.UpdatedAt,
	)
	return err
}

func (r *PgChatbotRepository) GetByID(ctx context.Context, id string) (domain.Chatbot, error) {
	query := `SELECT ` + chatbotColumns + ` FROM chatbots WHERE id = $1`
	return scanChatbot(r.pool.QueryRow(ctx, query, id))
}

func (r *PgChatbotRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Chatbot, error) {
	query := `SELECT ` + chatbotColumns + ` FROM chatbots WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bots []domain.Chatbot
	for rows.Next() {
		bot, err := scanChatbot(rows)
		if err != nil {
			return nil, err
		}
		bots = append(bots, bot)
	}
	return bots, rows.Err()
}

func (r *PgChatbotRepository) UpdateConfig(ctx context.Context, id string, cfg domain.ChatbotConfig, updatedAt time.Time) error {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal chatbot config: %w", err)
	}

	const query = `
		UPDATE chatbots SET config = $2, updated_at = $3 WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, cfgJSON, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete borra el chatbot; conversaciones y mensajes caen por cascada de FK.
func (r *PgChatbotRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM chatbots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanChatbot(row pgx.Row) (domain.Chatbot, error) {
	var (
		bot     domain.Chatbot
		cfgJSON []byte
	)
	err := row.Scan(
		&bot.ID,
		&bot.UserID,
		&bot.Name,
		&bot.Description,
		&bot.TemplateID,
		&bot.Industry,
		&bot.UseCase,
		&cfgJSON,
		&bot.Theme,
		&bot.Status,
		&bot.DeploymentURL,
		&bot.EmbedCode,
		&bot.DeployedAt,
		&bot.TotalConversations,
		&bot.TotalMessages,
		&bot.SatisfactionScore,
		&bot.CreatedAt,
		&bot.UpdatedAt,
	)
	if err != nil {
		return domain.Chatbot{}, err
	}
	if len(cfgJSON) > 0 {
		if err := json.Unmarshal(cfgJSON, &bot.Config); err != nil {
			return domain.Chatbot{}, fmt.Errorf("unmarshal chatbot config: %w", err)
		}
	}
	return bot, nil
}
