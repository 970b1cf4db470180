package ports

import (
	"context"

	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/model"
)

// Notifier is the port for queueing user-facing notifications. Callers on the
// webhook path treat it as best-effort: a failure is logged, never surfaced.
type Notifier interface {
	// SendWelcomeEmail queues a welcome email for a freshly created user.
	SendWelcomeEmail(ctx context.Context, email model.WelcomeEmail) error
}

// EmailSender is the port for actually delivering an email. It is exercised by
// the notification worker, not by the webhook path.
type EmailSender interface {
	// Send delivers the email.
	Send(ctx context.Context, email model.WelcomeEmail) error
}
