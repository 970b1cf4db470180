package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/model"
	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/ports"
)

// NewDeliverer builds a new deliverer.
func NewDeliverer(sender ports.EmailSender) *Deliverer {
	return &Deliverer{sender: sender}
}

// Deliverer consumes queued welcome-email tasks and hands them to the
// configured email sender. It runs in the notification worker, decoupled from
// the webhook request path.
type Deliverer struct {
	sender ports.EmailSender
}

// Handle delivers one queued task.
func (d *Deliverer) Handle(ctx context.Context, task model.WelcomeEmail) error {
	if task.To == "" {
		return errors.New("email task without recipient")
	}

	if err := d.sender.Send(ctx, task); err != nil {
		return fmt.Errorf("error delivering welcome email to [%s]: %w", task.To, err)
	}

	return nil
}
