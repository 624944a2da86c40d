package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer publishes domain events to Kafka. A single writer serves
// all topics; the topic is set per message so order-events and
// idempotency-keys share one connection pool.
type Producer struct {
	writer       *kafka.Writer
	writeTimeout time.Duration
}

func NewProducer(brokers []string, writeTimeout time.Duration) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer, writeTimeout: writeTimeout}
}

// Publish appends one event to the given topic. The write carries its
// own deadline so a slow broker cannot hold the calling goroutine.
func (p *Producer) Publish(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
