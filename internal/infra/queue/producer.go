package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// UpdatePayload é o evento inbound durável: o webhook (ou o poller)
// publica e responde na hora; o processamento acontece depois, na ordem
// de chegada de cada chat.
type UpdatePayload struct {
	UpdateID   int64     `json:"update_id"`
	ChatID     int64     `json:"chat_id"`
	Username   string    `json:"username"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

type UpdateProducerInterface interface {
	PublishUpdate(ctx context.Context, payload UpdatePayload) error
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{
		Conn: conn,
		Ch:   ch,
	}
}

func (p *RabbitMQProducer) PublishUpdate(ctx context.Context, payload UpdatePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("erro ao converter payload: %v", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent, // Mensagem salva no disco
		},
	)

	if err != nil {
		return fmt.Errorf("falha ao publicar no RabbitMQ: %v", err)
	}

	return nil
}
