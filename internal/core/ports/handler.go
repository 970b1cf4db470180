package ports

import (
	"context"

	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/model"
)

// EmailTaskHandler handles queued welcome-email tasks.
type EmailTaskHandler interface {
	// Handle will receive a queued email task and handle it.
	Handle(ctx context.Context, task model.WelcomeEmail) error
}
