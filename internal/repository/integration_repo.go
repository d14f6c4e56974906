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

// IntegrationRepository define el contrato de persistencia para integraciones
// de canal (whatsapp, messenger, email).
type IntegrationRepository interface {
	Upsert(ctx context.Context, integration domain.Integration) error
	GetByChatbotAndType(ctx context.Context, chatbotID, integrationType string) (domain.Integration, error)
	UpdateStatus(ctx context.Context, id, status, errorMessage string) error
}

// PgIntegrationRepository implementa IntegrationRepository usando pgxpool.
type PgIntegrationRepository struct {
	pool *pgxpool.Pool
}

func NewPgIntegrationRepository(pool *pgxpool.Pool) *PgIntegrationRepository {
	return &PgIntegrationRepository{pool: pool}
}

// Upsert reemplaza la integración del mismo tipo para el chatbot; cada
// chatbot tiene a lo sumo una integración por canal.
func (r *PgIntegrationRepository) Upsert(ctx context.Context, integration domain.Integration) error {
	cfgJSON, err := json.Marshal(integration.Config)
	if err != nil {
		return fmt.Errorf("marshal integration config: %w", err)
	}

	const query = `
		INSERT INTO integrations (
			id, chatbot_id, integration_type, name, config, status,
			last_sync, error_message, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (chatbot_id, integration_type) DO UPDATE SET
			name = EXCLUDED.name,
			config = EXCLUDED.config,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.pool.Exec(ctx, query,
		integration.ID,
		integration.ChatbotID,
		integration.Type,
		integration.Name,
		cfgJSON,
		integration.Status,
		integration.LastSync,
		integration.ErrorMessage,
		integration.CreatedAt,
		integration.UpdatedAt,
	)
	return err
}

func (r *PgIntegrationRepository) GetByChatbotAndType(ctx context.Context, chatbotID, integrationType string) (domain.Integration, error) {
	const query = `
		SELECT id, chatbot_id, integration_type, name, config, status,
		       last_sync, error_message, created_at, updated_at
		FROM integrations
		WHERE chatbot_id = $1 AND integration_type = $2
	`

	var (
		integ   domain.Integration
		cfgJSON []byte
	)
	err := r.pool.QueryRow(ctx, query, chatbotID, integrationType).Scan(
		&integ.ID,
		&integ.ChatbotID,
		&integ.Type,
		&integ.Name,
		&cfgJSON,
		&integ.Status,
		&integ.LastSync,
		&integ.ErrorMessage,
		&integ.CreatedAt,
		&integ.UpdatedAt,
	)
	if err != nil {
		return domain.Integration{}, err
	}
	if len(cfgJSON) > 0 {
		if err := json.Unmarshal(cfgJSON, &integ.Config); err != nil {
			return domain.Integration{}, fmt.Errorf("unmarshal integration config: %w", err)
		}
	}
	return integ, nil
}

func (r *PgIntegrationRepository) UpdateStatus(ctx context.Context, id, status, errorMessage string) error {
	const query = `
		UPDATE integrations SET status = $2, error_message = $3, updated_at = $4 WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, status, errorMessage, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
