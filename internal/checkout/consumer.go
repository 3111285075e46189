package checkout

import (
	"context"
	"encoding/json"

	"github.com/MohitNegi1997/MoltenMotion/internal/domain"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler receives every completed checkout read from the topic.
type Handler func(ctx context.Context, receipt domain.Receipt) error

// Consumer reads checkout receipts back from Kafka as one consumer group.
type Consumer struct {
	reader *kafka.Reader
	log    *zap.Logger
}

func NewConsumer(groupID, topic string, log *zap.Logger, brokers ...string) *Consumer {
	if topic == "" {
		topic = DefaultTopic
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, log: log}
}

// Run hands receipts to handle until ctx is done. Other event types and
// malformed payloads are skipped; a handler error is logged and the offset
// still advances.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "failed to read message")
		}

		receipt, ok, err := decodeReceipt(m)
		if err != nil {
			c.log.Warn("skipping malformed checkout event",
				zap.Int64("offset", m.Offset),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			continue
		}

		if err := handle(ctx, receipt); err != nil {
			c.log.Error("failed to handle checkout",
				zap.String("order_id", receipt.OrderID),
				zap.Error(err),
			)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// decodeReceipt reports ok=false for messages that are not checkout
// completions.
func decodeReceipt(m kafka.Message) (domain.Receipt, bool, error) {
	if eventType(m) != EventCheckoutCompleted {
		return domain.Receipt{}, false, nil
	}

	var receipt domain.Receipt
	if err := json.Unmarshal(m.Value, &receipt); err != nil {
		return domain.Receipt{}, false, errors.Wrap(err, "failed to parse receipt")
	}
	if receipt.OrderID == "" {
		return domain.Receipt{}, false, errors.New("receipt has no order id")
	}
	return receipt, true, nil
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}
