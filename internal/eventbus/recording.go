package eventbus

import (
	"context"
	"sync"
)

// RecordingPublisher is an in-memory Publisher for tests
type RecordingPublisher struct {
	mu sync.Mutex

	// For tracking calls in tests
	PublishCalls []PublishCall
	PublishErr   error
	Closed       bool
}

// PublishCall records parameters passed to Publish
type PublishCall struct {
	Topic string
	Key   string
	Event any
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{PublishCalls: make([]PublishCall, 0)}
}

func (p *RecordingPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.PublishCalls = append(p.PublishCalls, PublishCall{Topic: topic, Key: key, Event: event})

	return p.PublishErr
}

func (p *RecordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

// CallsForTopic filters recorded calls by topic
func (p *RecordingPublisher) CallsForTopic(topic string) []PublishCall {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []PublishCall
	for _, c := range p.PublishCalls {
		if c.Topic == topic {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears recorded calls
func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.PublishCalls = make([]PublishCall, 0)
	p.PublishErr = nil
}
