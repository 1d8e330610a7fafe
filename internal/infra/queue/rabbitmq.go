package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "ex.updates"
	QueueName    = "q.updates"
	DLQName      = "q.updates.dlq"
	DLXName      = "ex.dlx" // Dead Letter Exchange
	RoutingKey   = "k.update"

	// Prefetch limita quantos updates ficam em voo sem ack — é o teto de
	// concorrência do bridge inteiro.
	Prefetch = 32
)

type RabbitMQ struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewRabbitMQ(user, pass, host, port string) (*RabbitMQ, error) {
	dsn := fmt.Sprintf("amqp://%s:%s@%s:%s/", user, pass, host, port)

	conn, err := amqp.Dial(dsn)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar no RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir canal: %w", err)
	}

	if err := ch.Qos(Prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("falha ao configurar prefetch: %w", err)
	}

	if err := setupTopology(ch); err != nil {
		return nil, err
	}

	return &RabbitMQ{Conn: conn, Ch: ch}, nil
}

func setupTopology(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(DLXName, "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	_, err = ch.QueueDeclare(DLQName, true, false, false, false, nil)
	if err != nil {
		return err
	}

	err = ch.QueueBind(DLQName, RoutingKey, DLXName, false, nil)
	if err != nil {
		return err
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    DLXName, // Nack sem requeue cai na DLX
		"x-dead-letter-routing-key": RoutingKey,
	}

	err = ch.ExchangeDeclare(ExchangeName, "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	_, err = ch.QueueDeclare(QueueName, true, false, false, false, args)
	if err != nil {
		return err
	}

	err = ch.QueueBind(QueueName, RoutingKey, ExchangeName, false, nil)
	if err != nil {
		return err
	}

	return nil
}
