package ports

import "context"

// ReplayCache deduplicates provider message IDs across at-least-once webhook
// deliveries. It is best-effort: callers must tolerate errors and proceed as
// if the message were fresh.
type ReplayCache interface {
	// Remember records the message ID and reports whether it was already seen.
	Remember(ctx context.Context, messageID string) (seen bool, err error)
}
