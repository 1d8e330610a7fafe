package telegram

import (
	"context"
	"log"
	"time"

	"github.com/xavierca1/ligue-leadbot/internal/infra/queue"
)

// Poller é a variante de bootstrap sem webhook: faz long-poll no
// getUpdates e publica na mesma fila durável que o webhook usa.
type Poller struct {
	Client   *Client
	Producer queue.UpdateProducerInterface
}

func NewPoller(client *Client, producer queue.UpdateProducerInterface) *Poller {
	return &Poller{Client: client, Producer: producer}
}

func (p *Poller) Start(ctx context.Context) {
	log.Println("🤖 Poller do Telegram iniciado (long-poll)")

	var offset int64
	for {
		if ctx.Err() != nil {
			log.Println("⚠️ Poller do Telegram encerrado")
			return
		}

		updates, err := p.Client.GetUpdates(ctx, offset, 30)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("❌ Poller: erro no getUpdates: %v", err)
			time.Sleep(3 * time.Second)
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			if u.Message == nil || u.Message.Text == "" {
				continue
			}

			payload := queue.UpdatePayload{
				UpdateID:   u.UpdateID,
				ChatID:     u.Message.Chat.ID,
				Text:       u.Message.Text,
				ReceivedAt: time.Now().UTC(),
			}
			if u.Message.From != nil {
				payload.Username = u.Message.From.Username
			}

			if err := p.Producer.PublishUpdate(ctx, payload); err != nil {
				log.Printf("❌ Poller: falha ao publicar update %d: %v", u.UpdateID, err)
			}
		}
	}
}
