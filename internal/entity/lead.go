package entity

import (
	"context"
	"errors"
	"time"
	// IMPORTANTE: NÃO adicione imports de usecase ou infra aqui!
)

var ErrLeadNotFound = errors.New("lead não encontrado")

// LeadStatus segue sempre para frente dentro de uma tentativa:
// Pending -> Verified ou Pending -> Invalid. Validated é o estado final
// do fluxo sem verificação de entregabilidade.
type LeadStatus string

const (
	StatusPending   LeadStatus = "Pending"
	StatusVerified  LeadStatus = "Verified"
	StatusInvalid   LeadStatus = "Invalid"
	StatusValidated LeadStatus = "Validated"
)

// Entidade: Lead — um registro por tentativa de cadastro
type Lead struct {
	ID        string     `json:"id"`
	ChatID    int64      `json:"chat_id"`
	Username  string     `json:"username,omitempty"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Status    LeadStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type LeadRepositoryInterface interface {
	// Upsert cria o lead ou reabre o registro existente do mesmo email
	// (reenvio corrigido). created_at nunca muda.
	Upsert(ctx context.Context, lead *Lead) error

	// UpdateStatus só transiciona se o status atual for `from`.
	// Retorna ErrLeadNotFound se o registro já saiu desse estado.
	UpdateStatus(ctx context.Context, email string, from, to LeadStatus) error
}
