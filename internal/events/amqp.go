// Package events publishes order domain events for the notification
// collaborator. The core only hands events to a sink; delivering the
// WhatsApp/email messages themselves happens downstream.
package events

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xenking/docdesk/internal/domain/order"
)

const (
	// Exchange is the topic exchange all order events are published to.
	Exchange = "docdesk.orders"

	// Routing keys per event type. Consumers bind with order.* or a
	// specific key.
	routingStatusChanged   = "order.status_changed"
	routingPaymentRecorded = "order.payment_recorded"
)

var _ order.EventSink = (*AMQPSink)(nil)

// AMQPSink publishes order events to a RabbitMQ topic exchange.
type AMQPSink struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewAMQPSink connects to the broker and declares the durable topic
// exchange. The caller owns Close.
func NewAMQPSink(url string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial amqp")
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}

	if err := channel.ExchangeDeclare(
		Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, errors.Wrap(err, "declare exchange")
	}

	return &AMQPSink{conn: conn, channel: channel}, nil
}

// Close shuts the channel and connection down for graceful shutdown.
func (s *AMQPSink) Close() error {
	if err := s.channel.Close(); err != nil {
		return err
	}
	return s.conn.Close()
}

// StatusChanged publishes the status transition event.
func (s *AMQPSink) StatusChanged(ctx context.Context, event order.StatusChanged) error {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("orderId")
	e.Str(event.OrderID)
	e.FieldStart("from")
	e.Str(string(event.From))
	e.FieldStart("to")
	e.Str(string(event.To))
	e.FieldStart("at")
	e.Str(event.At.Format(time.RFC3339Nano))
	e.ObjEnd()

	return s.publish(ctx, routingStatusChanged, e.Bytes())
}

// PaymentRecorded publishes the payment event.
func (s *AMQPSink) PaymentRecorded(ctx context.Context, event order.PaymentRecorded) error {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("orderId")
	e.Str(event.OrderID)
	e.FieldStart("amount")
	e.Int64(int64(event.Amount))
	e.FieldStart("remaining")
	e.Int64(int64(event.Remaining))
	e.ObjEnd()

	return s.publish(ctx, routingPaymentRecorded, e.Bytes())
}

func (s *AMQPSink) publish(ctx context.Context, routingKey string, body []byte) error {
	err := s.channel.PublishWithContext(ctx,
		Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return errors.Wrapf(err, "publish %s", routingKey)
	}
	return nil
}
