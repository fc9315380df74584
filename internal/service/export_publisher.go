package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/openmusic-api/internal/apperror"
	"github.com/iliyamo/openmusic-api/internal/queue"
)

// ExportPublisher sends export requests to RabbitMQ.  Each publish opens its
// own connection.
type ExportPublisher struct {
	url       string
	queueName string
	dial      func(url string) (*amqp.Connection, error)
}

func NewExportPublisher(url, queueName string) *ExportPublisher {
	return &ExportPublisher{url: url, queueName: queueName, dial: amqp.Dial}
}

// PublishExport enqueues ev as a persistent JSON message.  Any transport
// failure is a server error.
func (p *ExportPublisher) PublishExport(ctx context.Context, ev queue.PlaylistExportRequested) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return apperror.Server("encode export request", err)
	}
	if err := p.Publish(ctx, p.queueName, body); err != nil {
		return apperror.Server("Failed to queue export request", err)
	}
	return nil
}

// Publish declares queueName (durable) and publishes body to it through the
// default exchange.
func (p *ExportPublisher) Publish(ctx context.Context, queueName string, body []byte) error {
	conn, err := p.dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
