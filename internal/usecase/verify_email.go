package usecase

import (
	"context"
	"log"
	"time"
)

// VerifyEmailUseCase implementa o protocolo probe-espera-scan:
// envia o email de verificação, espera a janela de bounce e faz UMA
// varredura na caixa de entrada. Sem retry, sem backoff — um bounce
// que chegar depois da janela vira um falso "Verified" aceito.
type VerifyEmailUseCase struct {
	Mail         MailSender
	Bounces      BounceChecker
	WaitInterval time.Duration
	BounceWindow int
}

func NewVerifyEmailUseCase(mail MailSender, bounces BounceChecker, wait time.Duration, window int) *VerifyEmailUseCase {
	if wait <= 0 {
		wait = 60 * time.Second
	}
	if window <= 0 {
		window = 10
	}
	return &VerifyEmailUseCase{
		Mail:         mail,
		Bounces:      bounces,
		WaitInterval: wait,
		BounceWindow: window,
	}
}

func (uc *VerifyEmailUseCase) Verify(ctx context.Context, name, email string) VerifyResult {
	if err := uc.Mail.SendVerification(name, email); err != nil {
		log.Printf("❌ Falha ao enviar email de verificação para %s: %v", email, err)
		return VerifyIndeterminate
	}
	log.Printf("✅ Email de verificação enviado para %s, aguardando %s pela janela de bounce", email, uc.WaitInterval)

	select {
	case <-ctx.Done():
		return VerifyIndeterminate
	case <-time.After(uc.WaitInterval):
	}

	bounced, err := uc.Bounces.HasBounce(ctx, email, uc.BounceWindow)
	if err != nil {
		// Igual ao comportamento de sempre: erro na varredura conta como
		// "nenhum bounce encontrado".
		log.Printf("⚠️ Erro ao varrer a caixa de bounces (%s): %v", email, err)
	}
	if bounced {
		log.Printf("🚨 Bounce detectado para %s", email)
		return VerifyInvalid
	}
	return VerifyVerified
}
