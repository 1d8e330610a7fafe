package usecase

import (
	"context"
	"io"

	"github.com/xavierca1/ligue-leadbot/internal/infra/integration/sheet"
)

// Messenger entrega respostas ao usuário (Telegram). Falhas são logadas
// pelo chamador, nunca re-tentadas aqui.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, filename, caption string, doc io.Reader) error
}

// SheetService encaminha o lead para a planilha. O Result é consumido
// só para log — nunca decide fluxo.
type SheetService interface {
	Forward(ctx context.Context, payload sheet.LeadPayload, note string) sheet.Result
}

type MailSender interface {
	SendVerification(name, email string) error
	SendFollowUp(name, email, welcomeLink string) error
}

type BounceChecker interface {
	HasBounce(ctx context.Context, email string, window int) (bool, error)
}

type EmailVerifier interface {
	Verify(ctx context.Context, name, email string) VerifyResult
}
