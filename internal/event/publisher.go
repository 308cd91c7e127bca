package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const exchangeName = "survey.events"

type Publisher interface {
	PublishResponseRecorded(ctx context.Context, surveyID, responseID string, revision int64) error
	PublishResponsesImported(ctx context.Context, surveyID string, count int, revision int64) error
	PublishSnapshotCreated(ctx context.Context, surveyID, snapshotID string, revision int64, verdict string) error
	Close() error
}

type EventPublisher struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	enabled bool
	logger  *zap.Logger
}

// NewEventPublisher connects to RabbitMQ. An empty URI yields a publisher
// that drops every event.
func NewEventPublisher(rabbitURI string, logger *zap.Logger) (*EventPublisher, error) {
	if rabbitURI == "" {
		logger.Warn("AMQP URL is empty, event publishing is disabled")
		return &EventPublisher{enabled: false, logger: logger}, nil
	}

	conn, err := amqp091.Dial(rabbitURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &EventPublisher{
		conn:    conn,
		channel: channel,
		enabled: true,
		logger:  logger,
	}, nil
}

func (p *EventPublisher) publishEvent(ctx context.Context, routingKey EventType, event any) error {
	if !p.enabled {
		p.logger.Debug("event publishing disabled, skipping", zap.String("routingKey", string(routingKey)))
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		pubCtx,
		exchangeName,       // exchange
		string(routingKey), // routing key
		false,              // mandatory
		false,              // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("published event", zap.String("routingKey", string(routingKey)))
	return nil
}

func (p *EventPublisher) PublishResponseRecorded(ctx context.Context, surveyID, responseID string, revision int64) error {
	return p.publishEvent(ctx, EventTypeResponseRecorded, NewResponseRecordedEvent(surveyID, responseID, revision))
}

func (p *EventPublisher) PublishResponsesImported(ctx context.Context, surveyID string, count int, revision int64) error {
	return p.publishEvent(ctx, EventTypeResponsesImported, NewResponsesImportedEvent(surveyID, count, revision))
}

func (p *EventPublisher) PublishSnapshotCreated(ctx context.Context, surveyID, snapshotID string, revision int64, verdict string) error {
	return p.publishEvent(ctx, EventTypeSnapshotCreated, NewSnapshotCreatedEvent(surveyID, snapshotID, revision, verdict))
}

func (p *EventPublisher) Close() error {
	if !p.enabled {
		return nil
	}

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("error closing RabbitMQ channel", zap.Error(err))
		}
	}

	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}

	return nil
}
