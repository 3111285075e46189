package checkout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MohitNegi1997/MoltenMotion/internal/domain"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic = "checkout-outbox"

	// flush each receipt without waiting for a fuller batch
	defaultBatchTimeout = 10 * time.Millisecond
)

// KafkaPublisher writes receipts as JSON, keyed by order id.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           defaultBatchTimeout,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, receipt domain.Receipt) error {
	payload, err := json.Marshal(receipt)
	if err != nil {
		return errors.Wrap(err, "failed to marshal receipt")
	}

	msg := kafka.Message{
		Key:   []byte(receipt.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventCheckoutCompleted)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, "failed to write checkout event")
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
