package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/model"
)

// providerEnvelope is the outer shape of every provider delivery.
type providerEnvelope struct {
	Type string       `json:"type"`
	Data providerUser `json:"data"`
}

type providerUser struct {
	ID             string          `json:"id"`
	EmailAddresses []providerEmail `json:"email_addresses"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Username       string          `json:"username"`
	ImageURL       string          `json:"image_url"`
	PublicMetadata map[string]any  `json:"public_metadata"`
}

type providerEmail struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// decodeEvent parses a verified payload into a typed identity event. It never
// rejects unknown event types; those map to model.EventKindOther and are
// acknowledged downstream.
func decodeEvent(body []byte) (model.IdentityEvent, error) {
	var envelope providerEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return model.IdentityEvent{}, fmt.Errorf("error unmarshaling webhook payload: %w", err)
	}

	emails := make([]string, 0, len(envelope.Data.EmailAddresses))
	for _, addr := range envelope.Data.EmailAddresses {
		if addr.EmailAddress != "" {
			emails = append(emails, addr.EmailAddress)
		}
	}

	return model.IdentityEvent{
		Kind:           model.KindFromType(envelope.Type),
		ExternalID:     envelope.Data.ID,
		EmailAddresses: emails,
		FirstName:      envelope.Data.FirstName,
		LastName:       envelope.Data.LastName,
		Username:       envelope.Data.Username,
		ImageURL:       envelope.Data.ImageURL,
		RoleHint:       metadataString(envelope.Data.PublicMetadata, "role"),
		StatusHint:     metadataString(envelope.Data.PublicMetadata, "status"),
	}, nil
}

// metadataString extracts a string-valued metadata field. Non-string values
// are treated the same as absent ones.
func metadataString(metadata map[string]any, key string) string {
	if value, ok := metadata[key].(string); ok {
		return value
	}
	return ""
}
