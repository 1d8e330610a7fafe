package queue

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/xavierca1/ligue-leadbot/internal/usecase"
)

// ConversationHandler é o contrato do engine de conversa.
type ConversationHandler interface {
	HandleUpdate(ctx context.Context, in usecase.InboundUpdate)
}

type Worker struct {
	Channel    *amqp.Channel
	Engine     ConversationHandler
	Dispatcher *ChatDispatcher
}

func NewWorker(ch *amqp.Channel, engine ConversationHandler, dispatcher *ChatDispatcher) *Worker {
	return &Worker{
		Channel:    ch,
		Engine:     engine,
		Dispatcher: dispatcher,
	}
}

// Start consome a fila até o ctx encerrar, depois drena os jobs em voo.
// O ack é manual e só acontece depois do processamento — updates não se
// perdem num shutdown normal; um kill abrupto devolve-os à fila.
func (w *Worker) Start(ctx context.Context, queueName string) {
	msgs, err := w.Channel.Consume(
		queueName, // fila
		"",        // consumer
		false,     // auto-ack (manual é mais seguro)
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		log.Fatalf("❌ Falha ao registrar consumidor RabbitMQ: %s", err)
	}

	log.Printf(" [*] Worker rodando e aguardando na fila '%s'", queueName)

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ Worker encerrando, drenando jobs em voo...")
			w.Dispatcher.Drain()
			log.Println("✅ Worker drenado")
			return

		case d, ok := <-msgs:
			if !ok {
				w.Dispatcher.Drain()
				return
			}
			w.route(ctx, d)
		}
	}
}

func (w *Worker) route(ctx context.Context, d amqp.Delivery) {
	var payload UpdatePayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		log.Printf("❌ [WORKER] JSON inválido: %s", err)
		// Mensagem podre (malformada). Rejeita sem requeue para não travar a fila.
		d.Nack(false, false)
		return
	}

	// O dispatcher preserva a ordem por chat; o ack só sai depois que o
	// engine processou o evento.
	w.Dispatcher.Dispatch(payload.ChatID, func() {
		w.Engine.HandleUpdate(ctx, usecase.InboundUpdate{
			ChatID:   payload.ChatID,
			Username: payload.Username,
			Text:     payload.Text,
		})
		if err := d.Ack(false); err != nil {
			log.Printf("⚠️ [WORKER] Falha no ack do update %d: %v", payload.UpdateID, err)
		}
	})
}
