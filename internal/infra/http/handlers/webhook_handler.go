package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/ligue-leadbot/internal/infra/integration/telegram"
	"github.com/xavierca1/ligue-leadbot/internal/infra/queue"
)

// WebhookHandler recebe updates do Telegram e responde na hora: o update
// só é processado depois, via fila. O token na rota é a autenticação
// (padrão do próprio Telegram).
type WebhookHandler struct {
	Token    string
	Producer queue.UpdateProducerInterface
}

func NewWebhookHandler(token string, producer queue.UpdateProducerInterface) *WebhookHandler {
	return &WebhookHandler{Token: token, Producer: producer}
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.Token == "" || chi.URLParam(r, "token") != h.Token {
		http.NotFound(w, r)
		return
	}

	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Bad JSON", 400)
		return
	}

	// Updates sem texto (stickers, fotos, edits) são aceitos e ignorados.
	if update.Message == nil || update.Message.Text == "" {
		w.WriteHeader(200)
		return
	}

	payload := queue.UpdatePayload{
		UpdateID:   update.UpdateID,
		ChatID:     update.Message.Chat.ID,
		Text:       update.Message.Text,
		ReceivedAt: time.Now().UTC(),
	}
	if update.Message.From != nil {
		payload.Username = update.Message.From.Username
	}

	if err := h.Producer.PublishUpdate(r.Context(), payload); err != nil {
		// Sem fila não há durabilidade; 500 faz o Telegram reentregar.
		log.Printf("❌ Webhook: falha ao enfileirar update %d: %v", update.UpdateID, err)
		w.WriteHeader(500)
		return
	}

	w.WriteHeader(200)
}
