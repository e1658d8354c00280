package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"notification-service/internal/metrics"
)

// QueueConsumer reads complaint change events off RabbitMQ and hands each one
// to the dispatcher. Undecodable events are requeued with backoff and end up
// in the dead letter queue; decodable events are always acked, their pipeline
// outcome notwithstanding.
type QueueConsumer struct {
	conn            *amqp.Connection
	channel         *amqp.Channel
	handler         Handler
	queueName       string
	deadLetterQueue string
}

type ConsumerConfig struct {
	RabbitMQURL     string
	QueueName       string
	DeadLetterQueue string
	PrefetchCount   int
}

func NewQueueConsumer(cfg *ConsumerConfig, handler Handler) (*QueueConsumer, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %v", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %v", err)
	}

	// Set QoS for controlled processing
	err = ch.Qos(
		cfg.PrefetchCount, // prefetch count
		0,                 // prefetch size
		false,             // global
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set QoS: %v", err)
	}

	_, err = ch.QueueDeclare(
		cfg.QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %v", err)
	}

	// Declare dead letter queue
	_, err = ch.QueueDeclare(
		cfg.DeadLetterQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare DLQ: %v", err)
	}

	return &QueueConsumer{
		conn:            conn,
		channel:         ch,
		handler:         handler,
		queueName:       cfg.QueueName,
		deadLetterQueue: cfg.DeadLetterQueue,
	}, nil
}

func (q *QueueConsumer) StartConsuming(ctx context.Context) error {
	msgs, err := q.channel.Consume(
		q.queueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %v", err)
	}

	for {
		select {
		case msg := <-msgs:
			if err := q.processMessage(ctx, msg); err != nil {
				slog.Error("error processing message", "error", err.Error())

				// Check retry count
				retryCount := 0
				if val, ok := msg.Headers["x-retry-count"].(int32); ok {
					retryCount = int(val)
				}

				if retryCount < 3 {
					// Requeue a copy with exponential backoff, drop the original
					if err := q.requeueMessage(msg, retryCount+1); err != nil {
						slog.Error("failed to requeue message", "error", err.Error())
						msg.Nack(false, false)
					} else {
						msg.Ack(false)
					}
				} else {
					// Send to DLQ
					msg.Nack(false, false)
					slog.Error("message sent to DLQ", "retries", retryCount)
				}
			} else {
				msg.Ack(false)
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (q *QueueConsumer) processMessage(ctx context.Context, msg amqp.Delivery) error {
	var ev ChangeEvent
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		metrics.EventsConsumed.WithLabelValues("unknown", "malformed").Inc()
		return fmt.Errorf("failed to unmarshal change event: %v", err)
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	if err := q.handler.Handle(ctx, ev); err != nil {
		metrics.EventsConsumed.WithLabelValues(string(ev.Kind), "failure").Inc()
		return fmt.Errorf("failed to handle change event: %w", err)
	}
	metrics.EventsConsumed.WithLabelValues(string(ev.Kind), "success").Inc()
	return nil
}

func (q *QueueConsumer) requeueMessage(msg amqp.Delivery, retryCount int) error {
	// Add retry count to headers
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retry-count"] = int32(retryCount)

	// Calculate backoff delay
	delay := time.Duration(retryCount*retryCount) * time.Second

	// Publish with delay
	return q.channel.Publish(
		"",          // exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msg.Body,
			Headers:     headers,
			Expiration:  fmt.Sprintf("%d", delay.Milliseconds()),
		},
	)
}

func (q *QueueConsumer) Close() error {
	if err := q.channel.Close(); err != nil {
		return err
	}
	return q.conn.Close()
}
