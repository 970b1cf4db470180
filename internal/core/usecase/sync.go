package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/model"
	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/ports"
)

const (
	defaultRole   = "student"
	defaultStatus = "active"
)

// SyncServiceArgs contains the mandatory arguments for the SyncService.
type SyncServiceArgs struct {
	// Repository is the repository for persistence operations.
	Repository ports.Repository

	// Notifier queues welcome emails. Failures are logged and swallowed.
	Notifier ports.Notifier
}

// NewSyncService creates a new SyncService.
func NewSyncService(args SyncServiceArgs) *SyncService {
	return &SyncService{repository: args.Repository, notifier: args.Notifier}
}

// SyncService reconciles stored users with identity-provider lifecycle events.
// Each event is handled one-shot: exactly one repository mutation per event
// (zero for ignored kinds and empty updates) and at most one notification.
type SyncService struct {
	repository ports.Repository
	notifier   ports.Notifier
}

// HandleEvent performs the minimum state transition needed to keep the stored
// user consistent with the provider-side account the event describes.
func (s *SyncService) HandleEvent(ctx context.Context, event model.IdentityEvent) (*model.SyncResult, error) {
	switch event.Kind {
	case model.EventKindCreated:
		return s.handleCreated(ctx, event)
	case model.EventKindUpdated:
		return s.handleUpdated(ctx, event)
	case model.EventKindDeleted:
		return s.handleDeleted(ctx, event)
	default:
		return &model.SyncResult{Outcome: model.OutcomeIgnored}, nil
	}
}

func (s *SyncService) handleCreated(ctx context.Context, event model.IdentityEvent) (*model.SyncResult, error) {
	if event.ExternalID == "" {
		return nil, fmt.Errorf("created event without external id: %w", model.ErrInvalidEvent)
	}
	email := primaryEmail(event)
	if email == "" {
		return nil, fmt.Errorf("created event without email address: %w", model.ErrInvalidEvent)
	}

	role := defaultRole
	if event.RoleHint != "" {
		role = event.RoleHint
	}
	status := defaultStatus
	if event.StatusHint != "" {
		status = event.StatusHint
	}

	user := &model.User{
		ExternalID: event.ExternalID,
		Email:      email,
		Name:       displayName(event),
		ImageURL:   event.ImageURL,
		Role:       role,
		Status:     status,
	}

	if err := s.repository.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("error saving user in repository: %w", err)
		}
		// Retried at-least-once delivery: the record is already there, which
		// is the state this event asked for.
		existing, gerr := s.repository.GetUserByExternalID(ctx, event.ExternalID)
		if gerr != nil {
			log.WithError(gerr).WithField("external_id", event.ExternalID).
				Warn("user exists but could not be fetched after create conflict")
		}
		return &model.SyncResult{Outcome: model.OutcomeAlreadyExists, User: existing}, nil
	}

	if err := s.notifier.SendWelcomeEmail(ctx, model.WelcomeEmail{To: user.Email, Name: user.Name}); err != nil {
		log.WithError(err).WithField("external_id", user.ExternalID).
			Warn("welcome email could not be queued")
	}

	return &model.SyncResult{Outcome: model.OutcomeCreated, User: user}, nil
}

func (s *SyncService) handleUpdated(ctx context.Context, event model.IdentityEvent) (*model.SyncResult, error) {
	if event.ExternalID == "" {
		return nil, fmt.Errorf("updated event without external id: %w", model.ErrInvalidEvent)
	}

	existing, err := s.repository.GetUserByExternalID(ctx, event.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("error looking up user to update: %w", err)
	}

	patch := ports.UserPatch{
		Email:    primaryEmail(event),
		Name:     joinName(event.FirstName, event.LastName),
		ImageURL: event.ImageURL,
	}
	if patch.IsZero() {
		return &model.SyncResult{Outcome: model.OutcomeUnchanged, User: existing}, nil
	}

	updated, err := s.repository.UpdateUser(ctx, existing.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return &model.SyncResult{Outcome: model.OutcomeUpdated, User: updated}, nil
}

func (s *SyncService) handleDeleted(ctx context.Context, event model.IdentityEvent) (*model.SyncResult, error) {
	if event.ExternalID == "" {
		return nil, fmt.Errorf("deleted event without external id: %w", model.ErrInvalidEvent)
	}

	if _, err := s.repository.GetUserByExternalID(ctx, event.ExternalID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// Absence is what the event asked for.
			return &model.SyncResult{Outcome: model.OutcomeNothingToDelete}, nil
		}
		return nil, fmt.Errorf("error looking up user to delete: %w", err)
	}

	deleted, err := s.repository.DeleteUser(ctx, event.ExternalID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return &model.SyncResult{Outcome: model.OutcomeNothingToDelete}, nil
		}
		return nil, fmt.Errorf("error deleting user from repository: %w", err)
	}
	return &model.SyncResult{Outcome: model.OutcomeDeleted, User: deleted}, nil
}

// primaryEmail returns the first non-empty address of the event, or empty if
// the event claims no usable address.
func primaryEmail(event model.IdentityEvent) string {
	for _, addr := range event.EmailAddresses {
		if strings.TrimSpace(addr) != "" {
			return addr
		}
	}
	return ""
}

// displayName derives a display name from an ordered chain of candidate
// sources. Given a valid created event the chain always produces a non-empty
// value because the email fallback cannot be empty.
func displayName(event model.IdentityEvent) string {
	candidates := []func() string{
		func() string { return joinName(event.FirstName, event.LastName) },
		func() string { return event.Username },
		func() string { return emailLocalPart(primaryEmail(event)) },
	}
	for _, candidate := range candidates {
		if name := strings.TrimSpace(candidate()); name != "" {
			return name
		}
	}
	return ""
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

func emailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
