package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"

	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/model"
)

// NewProducer creates a new producer.
func NewProducer(topic *pubsub.Topic) (*Producer, error) {
	if topic == nil {
		return nil, errors.New("topic is nil")
	}
	return &Producer{topic: topic}, nil
}

// Producer queues welcome-email tasks on a pubsub topic. The webhook path
// treats it as best-effort; delivery is the worker's job.
type Producer struct {
	topic *pubsub.Topic
}

// SendWelcomeEmail publishes the task and waits for the broker acknowledgment.
func (p *Producer) SendWelcomeEmail(ctx context.Context, email model.WelcomeEmail) error {
	data, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("error marshaling welcome-email task: %w", err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
	})
	// Block until the result is returned and a server-generated
	// ID is returned for the published message.
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("pubsub: result.Get: %w", err)
	}
	return nil
}
