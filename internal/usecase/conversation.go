package usecase

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/ligue-leadbot/internal/entity"
	"github.com/xavierca1/ligue-leadbot/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leadbot/internal/infra/integration/sheet"
)

const (
	msgIntro = "👋 Olá! Bem-vindo à *Ligue*.\n\n" +
		"Quer receber o nosso material de apresentação? " +
		"Para começar, digite o seu nome:"
	msgAbout = "🌐 *Sobre a Ligue:*\n\n" +
		"A Ligue descomplica o acesso à saúde: telemedicina, atendimento " +
		"24h e acompanhamento para você e sua família.\n\n" +
		"Digite /start para receber o nosso material de apresentação."
	msgAskEmail     = "Ótimo 🌟 Agora digite o seu email (ex: nome@gmail.com):"
	msgInvalidEmail = "❌ Email inválido. Digite no formato nome@exemplo.com:"
	msgChecking     = "📧 Estou verificando o email (%s), aguarde um instante...\n" +
		"Se não receber nada, confira também a caixa de *Spam*."
	msgProbeFailed = "⚠️ Não consegui enviar o email de verificação agora. Tente novamente mais tarde."
	msgBounced     = "❌ O email informado não existe ou está indisponível.\n" +
		"Digite o email correto:"
	msgVerified           = "✅ Email confirmado! Estou enviando o material de apresentação..."
	msgPDFCaption         = "📘 Material de apresentação da Ligue 👇"
	msgPDFUnavailable     = "⚠️ O material de apresentação não está disponível no momento."
	msgSendingFollowUp    = "📬 Enviando o email de boas-vindas para você..."
	msgFollowUpSent       = "✅ Email de boas-vindas enviado! 💌 Confira o Inbox (ou o Spam)."
	msgFollowUpFailed     = "⚠️ Não consegui enviar o email de boas-vindas, mas seu cadastro foi concluído."
	msgValidatedOK        = "✅ Seu email (%s) é válido e foi registrado. Obrigado!"
	msgValidatedSheetFail = "✅ Seu email (%s) é válido, mas não consegui registrar na planilha agora."
	msgCancelled          = "Conversa cancelada."
	msgWaitVerify         = "⏳ A verificação ainda está em andamento, aguarde..."
	msgUseStart           = "Digite /start para iniciar o cadastro. 😉"
	msgStoreFailed        = "⚠️ Tive um problema ao salvar seu cadastro agora, mas vamos continuar."
)

// session é o estado efêmero de um chat. A tabela inteira vive dentro do
// use case — nada de estado global.
type session struct {
	username     string
	state        entity.SessionState
	name         string
	epoch        uint64
	lastActivity time.Time
}

// ConversationUseCase é a máquina de estados da conversa de cadastro.
// O dispatcher garante que eventos do mesmo chat chegam um por vez;
// o mutex cobre a corrida restante entre um evento inbound e a
// conclusão de uma verificação em background.
type ConversationUseCase struct {
	Leads       entity.LeadRepositoryInterface
	Messenger   Messenger
	Sheet       SheetService
	Mail        MailSender
	Verifier    EmailVerifier // nil => fluxo só-sintaxe (status Validated)
	AdminChatID int64
	WelcomeLink string
	PDFPath     string

	mu       sync.Mutex
	sessions map[int64]*session
	epochSeq uint64
	now      func() time.Time
}

func NewConversationUseCase(
	leads entity.LeadRepositoryInterface,
	messenger Messenger,
	sheetService SheetService,
	mail MailSender,
	verifier EmailVerifier,
	adminChatID int64,
	welcomeLink string,
	pdfPath string,
) *ConversationUseCase {
	return &ConversationUseCase{
		Leads:       leads,
		Messenger:   messenger,
		Sheet:       sheetService,
		Mail:        mail,
		Verifier:    verifier,
		AdminChatID: adminChatID,
		WelcomeLink: welcomeLink,
		PDFPath:     pdfPath,
		sessions:    make(map[int64]*session),
		now:         time.Now,
	}
}

// HandleUpdate é o único ponto de entrada do transporte.
func (uc *ConversationUseCase) HandleUpdate(ctx context.Context, in InboundUpdate) {
	text := strings.TrimSpace(in.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		uc.handleStart(ctx, in)
	case strings.HasPrefix(text, "/cancel"):
		uc.handleCancel(ctx, in)
	case strings.HasPrefix(text, "/about"):
		// Informativo puro: não cria sessão nem mexe na que existir.
		uc.send(ctx, in.ChatID, msgAbout)
	default:
		uc.handleText(ctx, in, text)
	}
}

// /start sempre recomeça do zero: sessão anterior (e qualquer verificação
// pendente dela) é descartada, nunca mesclada.
func (uc *ConversationUseCase) handleStart(ctx context.Context, in InboundUpdate) {
	uc.mu.Lock()
	if _, had := uc.sessions[in.ChatID]; had {
		log.Printf("🔁 Sessão anterior do chat %d descartada por novo /start", in.ChatID)
	}
	uc.epochSeq++
	uc.sessions[in.ChatID] = &session{
		username:     in.Username,
		state:        entity.StateAwaitingName,
		epoch:        uc.epochSeq,
		lastActivity: uc.now(),
	}
	active := len(uc.sessions)
	uc.mu.Unlock()

	middleware.SetActiveSessions(active)
	uc.send(ctx, in.ChatID, msgIntro)
}

func (uc *ConversationUseCase) handleCancel(ctx context.Context, in InboundUpdate) {
	uc.mu.Lock()
	if _, had := uc.sessions[in.ChatID]; had {
		log.Printf("🚫 Conversa do chat %d cancelada pelo usuário", in.ChatID)
	}
	delete(uc.sessions, in.ChatID)
	active := len(uc.sessions)
	uc.mu.Unlock()

	middleware.SetActiveSessions(active)
	uc.send(ctx, in.ChatID, msgCancelled)
}

func (uc *ConversationUseCase) handleText(ctx context.Context, in InboundUpdate, text string) {
	uc.mu.Lock()
	s := uc.sessions[in.ChatID]
	if s == nil {
		uc.mu.Unlock()
		uc.send(ctx, in.ChatID, msgUseStart)
		return
	}
	s.lastActivity = uc.now()

	switch s.state {
	case entity.StateAwaitingName:
		// Nome vazio é aceito como veio — só aparamos espaços.
		s.name = text
		s.state = entity.StateAwaitingEmail
		uc.mu.Unlock()
		uc.send(ctx, in.ChatID, msgAskEmail)

	case entity.StateAwaitingEmail:
		name := s.name
		epoch := s.epoch
		uc.mu.Unlock()
		uc.submitEmail(ctx, in, name, epoch, text)

	case entity.StateVerifying:
		uc.mu.Unlock()
		uc.send(ctx, in.ChatID, msgWaitVerify)

	default:
		uc.mu.Unlock()
		uc.send(ctx, in.ChatID, msgUseStart)
	}
}

// submitEmail é a única transição com efeito persistente da máquina.
func (uc *ConversationUseCase) submitEmail(ctx context.Context, in InboundUpdate, name string, epoch uint64, raw string) {
	email, err := CheckEmail(raw)
	if err != nil {
		// Self-loop: continua em AwaitingEmail, sem limite de tentativas.
		uc.send(ctx, in.ChatID, msgInvalidEmail)
		return
	}

	status := entity.StatusValidated
	if uc.Verifier != nil {
		status = entity.StatusPending
	}

	nowUTC := uc.now().UTC()
	lead := &entity.Lead{
		ID:        uuid.New().String(),
		ChatID:    in.ChatID,
		Username:  in.Username,
		Name:      name,
		Email:     email,
		Status:    status,
		CreatedAt: nowUTC,
		UpdatedAt: nowUTC,
	}

	if err := uc.Leads.Upsert(ctx, lead); err != nil {
		// Falha de persistência é soft: avisa e segue, o usuário não fica preso.
		log.Printf("❌ Falha ao persistir lead %s: %v", email, err)
		uc.send(ctx, in.ChatID, msgStoreFailed)
	} else {
		middleware.RecordLeadRegistered(string(status))
	}

	uc.notifyAdmin(ctx, lead)
	fwd := uc.forwardToSheet(ctx, lead, "create")

	if uc.Verifier == nil {
		uc.endSession(in.ChatID)
		if fwd.OK {
			uc.send(ctx, in.ChatID, fmt.Sprintf(msgValidatedOK, email))
		} else {
			uc.send(ctx, in.ChatID, fmt.Sprintf(msgValidatedSheetFail, email))
		}
		return
	}

	uc.send(ctx, in.ChatID, fmt.Sprintf(msgChecking, email))

	uc.mu.Lock()
	s := uc.sessions[in.ChatID]
	if s == nil || s.epoch != epoch {
		uc.mu.Unlock()
		log.Printf("⚠️ Sessão do chat %d reiniciada antes da verificação, abortando tentativa", in.ChatID)
		return
	}
	s.state = entity.StateVerifying
	uc.mu.Unlock()

	// Tarefa desacoplada: um /cancel não interrompe a verificação já
	// iniciada, só faz o resultado dela ser descartado na chegada.
	go func() {
		result := uc.Verifier.Verify(context.Background(), name, email)
		uc.completeVerification(context.Background(), in, name, epoch, email, result)
	}()
}

func (uc *ConversationUseCase) completeVerification(ctx context.Context, in InboundUpdate, name string, epoch uint64, email string, result VerifyResult) {
	uc.mu.Lock()
	s := uc.sessions[in.ChatID]
	if s == nil || s.epoch != epoch {
		uc.mu.Unlock()
		log.Printf("🗑️ Resultado %q descartado para %s: sessão do chat %d foi reiniciada", result, email, in.ChatID)
		return
	}

	switch result {
	case VerifyIndeterminate:
		// Falha de transporte no probe: terminal para esta tentativa.
		delete(uc.sessions, in.ChatID)
		active := len(uc.sessions)
		uc.mu.Unlock()
		middleware.SetActiveSessions(active)
		middleware.RecordVerification(result.String())
		uc.send(ctx, in.ChatID, msgProbeFailed)

	case VerifyInvalid:
		// Reabre a coleta de email para um endereço corrigido.
		s.state = entity.StateAwaitingEmail
		s.lastActivity = uc.now()
		uc.mu.Unlock()
		middleware.RecordVerification(result.String())
		uc.finalizeLead(ctx, in, name, email, entity.StatusInvalid)
		uc.send(ctx, in.ChatID, msgBounced)

	default:
		delete(uc.sessions, in.ChatID)
		active := len(uc.sessions)
		uc.mu.Unlock()
		middleware.SetActiveSessions(active)
		middleware.RecordVerification(result.String())
		uc.finalizeLead(ctx, in, name, email, entity.StatusVerified)
		uc.send(ctx, in.ChatID, msgVerified)
		uc.sendIntroPDF(ctx, in.ChatID)
		uc.send(ctx, in.ChatID, msgSendingFollowUp)
		if err := uc.Mail.SendFollowUp(name, email, uc.WelcomeLink); err != nil {
			log.Printf("⚠️ Falha no email de boas-vindas para %s: %v", email, err)
			uc.send(ctx, in.ChatID, msgFollowUpFailed)
		} else {
			uc.send(ctx, in.ChatID, msgFollowUpSent)
		}
	}
}

// finalizeLead fecha a tentativa Pending e replica o novo status na planilha.
func (uc *ConversationUseCase) finalizeLead(ctx context.Context, in InboundUpdate, name, email string, to entity.LeadStatus) {
	if err := uc.Leads.UpdateStatus(ctx, email, entity.StatusPending, to); err != nil {
		log.Printf("⚠️ Falha ao atualizar status do lead %s para %s: %v", email, to, err)
	}
	lead := &entity.Lead{
		ChatID:   in.ChatID,
		Username: in.Username,
		Name:     name,
		Email:    email,
		Status:   to,
	}
	uc.forwardToSheet(ctx, lead, "status_update")
}

func (uc *ConversationUseCase) forwardToSheet(ctx context.Context, lead *entity.Lead, note string) sheet.Result {
	result := uc.Sheet.Forward(ctx, sheet.LeadPayload{
		Name:     lead.Name,
		Email:    lead.Email,
		Username: lead.Username,
		UserID:   lead.ChatID,
		Status:   string(lead.Status),
	}, note)
	if !result.OK {
		log.Printf("⚠️ Planilha [%s] falhou para %s: %s", note, lead.Email, result.Reason)
		middleware.RecordIntegrationError("sheet")
	} else {
		log.Printf("📤 Lead %s enviado para a planilha [%s]", lead.Email, note)
	}
	return result
}

func (uc *ConversationUseCase) notifyAdmin(ctx context.Context, lead *entity.Lead) {
	if uc.AdminChatID == 0 {
		return
	}
	text := fmt.Sprintf(
		"📥 *Novo Lead!*\n👤 Nome: %s\n📧 Email: %s\n🆔 Chat: %d\n🕒 Status: %s",
		lead.Name, lead.Email, lead.ChatID, lead.Status,
	)
	if err := uc.Messenger.SendMessage(ctx, uc.AdminChatID, text); err != nil {
		log.Printf("⚠️ Falha ao notificar admin (%d): %v", uc.AdminChatID, err)
	}
}

func (uc *ConversationUseCase) sendIntroPDF(ctx context.Context, chatID int64) {
	if uc.PDFPath == "" {
		uc.send(ctx, chatID, msgPDFUnavailable)
		return
	}
	info, err := os.Stat(uc.PDFPath)
	if err != nil || info.Size() == 0 {
		uc.send(ctx, chatID, msgPDFUnavailable)
		return
	}
	f, err := os.Open(uc.PDFPath)
	if err != nil {
		log.Printf("⚠️ Não consegui abrir o PDF de apresentação: %v", err)
		uc.send(ctx, chatID, msgPDFUnavailable)
		return
	}
	defer f.Close()

	if err := uc.Messenger.SendDocument(ctx, chatID, "Apresentacao_Ligue.pdf", msgPDFCaption, f); err != nil {
		log.Printf("⚠️ Não consegui enviar o PDF: %v", err)
		uc.send(ctx, chatID, msgPDFUnavailable)
	}
}

// send é fire-and-forget: falha de entrega vira log, nunca retry.
func (uc *ConversationUseCase) send(ctx context.Context, chatID int64, text string) {
	if err := uc.Messenger.SendMessage(ctx, chatID, text); err != nil {
		log.Printf("⚠️ Falha ao responder chat %d: %v", chatID, err)
		middleware.RecordIntegrationError("telegram")
	}
}

func (uc *ConversationUseCase) endSession(chatID int64) {
	uc.mu.Lock()
	delete(uc.sessions, chatID)
	active := len(uc.sessions)
	uc.mu.Unlock()
	middleware.SetActiveSessions(active)
}

// ActiveSessions conta as sessões vivas (exposto em métricas e testes).
func (uc *ConversationUseCase) ActiveSessions() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.sessions)
}

// EvictIdle remove sessões paradas em AwaitingName/AwaitingEmail há mais
// de olderThan. Sessões em Verifying ficam: a verificação é limitada no
// tempo e resolve a sessão sozinha.
func (uc *ConversationUseCase) EvictIdle(olderThan time.Duration) int {
	cutoff := uc.now().Add(-olderThan)

	uc.mu.Lock()
	evicted := 0
	for chatID, s := range uc.sessions {
		if s.state == entity.StateVerifying {
			continue
		}
		if s.lastActivity.Before(cutoff) {
			delete(uc.sessions, chatID)
			evicted++
		}
	}
	active := len(uc.sessions)
	uc.mu.Unlock()

	middleware.SetActiveSessions(active)
	if evicted > 0 {
		log.Printf("🧹 %d sessão(ões) ociosa(s) removida(s)", evicted)
	}
	return evicted
}
