package model

// EventKind is the kind of identity-provider lifecycle event.
type EventKind string

const (
	// EventKindCreated signals that a user account was created at the provider.
	EventKindCreated EventKind = "user.created"

	// EventKindUpdated signals that a user account was updated at the provider.
	EventKindUpdated EventKind = "user.updated"

	// EventKindDeleted signals that a user account was deleted at the provider.
	EventKindDeleted EventKind = "user.deleted"

	// EventKindOther covers every kind this service does not handle. Unknown
	// kinds are acknowledged, not rejected, so the provider can add kinds
	// without breaking deliveries.
	EventKindOther EventKind = "other"
)

// KindFromType maps a provider event-type string to an EventKind.
func KindFromType(eventType string) EventKind {
	switch EventKind(eventType) {
	case EventKindCreated:
		return EventKindCreated
	case EventKindUpdated:
		return EventKindUpdated
	case EventKindDeleted:
		return EventKindDeleted
	default:
		return EventKindOther
	}
}

// IdentityEvent is the verified, typed representation of an inbound lifecycle notification.
type IdentityEvent struct {
	// Kind is the lifecycle event kind.
	Kind EventKind

	// ExternalID is the provider subject identifier. Required on all kinds.
	ExternalID string

	// EmailAddresses is the ordered list of the user's emails, primary first.
	// Required for EventKindCreated.
	EmailAddresses []string

	// FirstName is the user first name, if provided.
	FirstName string

	// LastName is the user last name, if provided.
	LastName string

	// Username is the provider-side username, if provided.
	Username string

	// ImageURL is the profile image URL, if provided.
	ImageURL string

	// RoleHint is the provider-metadata role, consulted only at creation time.
	RoleHint string

	// StatusHint is the provider-metadata status, consulted only at creation time.
	StatusHint string
}

// SyncOutcome names the reconciliation result of a handled event.
type SyncOutcome string

const (
	// OutcomeCreated means a new user record was persisted.
	OutcomeCreated SyncOutcome = "created"

	// OutcomeAlreadyExists means creation hit the storage uniqueness constraint.
	// Retried at-least-once deliveries land here and are treated as success.
	OutcomeAlreadyExists SyncOutcome = "already_exists"

	// OutcomeUpdated means an existing record was patched.
	OutcomeUpdated SyncOutcome = "updated"

	// OutcomeUnchanged means the update event carried no applicable fields.
	OutcomeUnchanged SyncOutcome = "unchanged"

	// OutcomeDeleted means an existing record was removed.
	OutcomeDeleted SyncOutcome = "deleted"

	// OutcomeNothingToDelete means deletion targeted an absent record. Absence
	// is the reconciliation goal, so this is a success.
	OutcomeNothingToDelete SyncOutcome = "nothing_to_delete"

	// OutcomeIgnored means the event kind is not handled by this service.
	OutcomeIgnored SyncOutcome = "ignored"
)

// SyncResult is the outcome of reconciling one identity event.
type SyncResult struct {
	// Outcome is the reconciliation outcome.
	Outcome SyncOutcome

	// User is the record the event resolved to. Nil for ignored events and
	// for deletions of absent records.
	User *User
}
