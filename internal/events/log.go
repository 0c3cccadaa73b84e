package events

import (
	"context"

	"go.uber.org/zap"

	"github.com/xenking/docdesk/internal/domain/order"
)

var _ order.EventSink = (*LogSink)(nil)

// LogSink records events in the application log. Used when no broker is
// configured, so event flow stays observable in small deployments.
type LogSink struct {
	lg *zap.Logger
}

// NewLogSink creates a LogSink writing to the given logger.
func NewLogSink(lg *zap.Logger) *LogSink {
	return &LogSink{lg: lg}
}

func (s *LogSink) StatusChanged(_ context.Context, event order.StatusChanged) error {
	s.lg.Info("order status changed",
		zap.String("order_id", event.OrderID),
		zap.String("from", string(event.From)),
		zap.String("to", string(event.To)),
		zap.Time("at", event.At),
	)
	return nil
}

func (s *LogSink) PaymentRecorded(_ context.Context, event order.PaymentRecorded) error {
	s.lg.Info("order payment recorded",
		zap.String("order_id", event.OrderID),
		zap.Int64("amount", int64(event.Amount)),
		zap.Int64("remaining", int64(event.Remaining)),
	)
	return nil
}
