package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// errDropMessage marks a delivery that must be rejected without requeue.
var errDropMessage = errors.New("drop message")

// Message type headers used to dispatch deliveries.
const (
	typeStateChanged        = "state.changed"
	typeTransactionRecorded = "transaction.recorded"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	// Declare exchange
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Declare queue
	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Bind queue to exchange
	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishStateChanged notifies consumers that the ledger state changed.
func (c *Client) PublishStateChanged(ctx context.Context, kind, entityID string) error {
	msg := NewStateChangedMessage(kind, entityID)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, typeStateChanged, body); err != nil {
		return err
	}

	slog.DebugContext(ctx, "Published state changed message",
		"kind", kind,
		"entity_id", entityID,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// PublishTransactionRecorded hands a recorded history entry to the
// Sheets mirror.
func (c *Client) PublishTransactionRecorded(ctx context.Context, msg *TransactionRecordedMessage) error {
	msg.PublishedAt = time.Now()
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, typeTransactionRecorded, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published transaction recorded message",
		"transaction_id", msg.TransactionID,
		"amount_cents", msg.AmountCents,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

func (c *Client) publish(ctx context.Context, msgType string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Type:         msgType,
			DeliveryMode: amqp091.Persistent, // make message persistent
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Consume dispatches deliveries to the matching handler until ctx ends.
// Handler errors reject-and-requeue; unparsable messages are dropped.
func (c *Client) Consume(ctx context.Context, onRecorded func(*TransactionRecordedMessage) error, onChanged func(*StateChangedMessage) error) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming ledger messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			switch err := c.dispatch(ctx, delivery, onRecorded, onChanged); {
			case errors.Is(err, errDropMessage):
				delivery.Nack(false, false) // reject and don't requeue
			case err != nil:
				delivery.Nack(false, true) // reject and requeue
			default:
				delivery.Ack(false)
			}
		}
	}
}

func (c *Client) dispatch(ctx context.Context, delivery amqp091.Delivery, onRecorded func(*TransactionRecordedMessage) error, onChanged func(*StateChangedMessage) error) error {
	switch delivery.Type {
	case typeTransactionRecorded:
		msg, err := TransactionRecordedMessageFromJSON(delivery.Body)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal recorded message", "error", err)
			return errDropMessage
		}
		if onRecorded == nil {
			return nil
		}
		if err := onRecorded(msg); err != nil {
			slog.ErrorContext(ctx, "Failed to handle recorded message",
				"error", err,
				"transaction_id", msg.TransactionID)
			return err
		}
	case typeStateChanged:
		msg, err := StateChangedMessageFromJSON(delivery.Body)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to unmarshal state changed message", "error", err)
			return errDropMessage
		}
		if onChanged == nil {
			return nil
		}
		if err := onChanged(msg); err != nil {
			slog.ErrorContext(ctx, "Failed to handle state changed message",
				"error", err,
				"kind", msg.Kind)
			return err
		}
	default:
		slog.WarnContext(ctx, "Unknown message type", "type", delivery.Type)
		return errDropMessage
	}
	return nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
