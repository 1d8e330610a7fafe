package database

import (
	"context"
	"database/sql"
	"log"

	"github.com/xavierca1/ligue-leadbot/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

// Upsert cria o lead ou reabre o registro do mesmo email numa nova
// tentativa. created_at do registro original é preservado; o upsert é
// atômico, então dois fluxos nunca entrelaçam um registro parcial.
func (r *LeadRepository) Upsert(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (id, chat_id, username, name, email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (email)
		DO UPDATE SET
			chat_id    = EXCLUDED.chat_id,
			username   = EXCLUDED.username,
			name       = EXCLUDED.name,
			status     = EXCLUDED.status,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.DB.QueryRowContext(
		ctx,
		query,
		lead.ID,
		lead.ChatID,
		nullString(lead.Username),
		lead.Name,
		lead.Email,
		string(lead.Status),
		lead.CreatedAt,
	).Scan(
		&lead.ID,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)

	if err != nil {
		log.Printf("❌ Erro crítico no banco ao salvar lead %s: %v", lead.Email, err)
		return err
	}

	return nil
}

// UpdateStatus transiciona o status só se o atual ainda for `from` —
// estados terminais nunca regridem, mesmo com escritores concorrentes.
func (r *LeadRepository) UpdateStatus(ctx context.Context, email string, from, to entity.LeadStatus) error {
	query := `
		UPDATE leads
		SET status = $3, updated_at = NOW()
		WHERE email = $1 AND status = $2
	`

	res, err := r.DB.ExecContext(ctx, query, email, string(from), string(to))
	if err != nil {
		log.Printf("❌ Erro crítico no banco ao atualizar lead %s: %v", email, err)
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrLeadNotFound
	}

	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
