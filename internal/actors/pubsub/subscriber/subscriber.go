package subscriber

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	log "github.com/sirupsen/logrus"

	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/model"
	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/ports"
)

// SubscriberArgs contain the mandatory arguments to build a subscriber.
type SubscriberArgs struct {
	// Subscription is a pubsub subscription
	Subscription *pubsub.Subscription

	// EmailTaskHandler handles decoded email tasks
	EmailTaskHandler ports.EmailTaskHandler
}

// Subscriber is a pubsub async subscriber of welcome-email tasks.
type Subscriber struct {
	subscription     *pubsub.Subscription
	emailTaskHandler ports.EmailTaskHandler
}

// NewSubscriber creates a subscriber.
func NewSubscriber(args SubscriberArgs) *Subscriber {
	return &Subscriber{
		subscription:     args.Subscription,
		emailTaskHandler: args.EmailTaskHandler,
	}
}

// Consume starts the subscriber. This is a blocking method and should be started in its own go-routine.
// The way to terminate the method is to cancel the context in input.
func (s *Subscriber) Consume(ctx context.Context) error {
	if err := s.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {

		var task model.WelcomeEmail
		if err := json.Unmarshal(msg.Data, &task); err != nil {
			// A payload that cannot decode will never decode; acknowledging
			// keeps it from being redelivered forever.
			log.WithError(err).Error("error decoding message into email task, dropping it")
			msg.Ack()
			return
		}

		if err := s.emailTaskHandler.Handle(ctx, task); err != nil {
			log.WithError(err).Error("error in email task handler")
			msg.Nack()
		} else {
			msg.Ack()
		}
	}); err != nil {
		return fmt.Errorf("error receiving messages from subscription: %w", err)
	}
	return nil
}
