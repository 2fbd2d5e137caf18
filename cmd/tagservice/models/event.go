package models

import (
	"encoding/json"
	"time"
)

// TagEventType names a lifecycle transition
type TagEventType string

const (
	TagEventCreated             TagEventType = "tag.created"
	TagEventLinked              TagEventType = "tag.linked"
	TagEventUnlinked            TagEventType = "tag.unlinked"
	TagEventRevoked             TagEventType = "tag.revoked"
	TagEventReactivated         TagEventType = "tag.reactivated"
	TagEventDeactivated         TagEventType = "tag.deactivated"
	TagEventArtifactRegenerated TagEventType = "tag.artifact_regenerated"
	TagEventTokenIssued         TagEventType = "tag.token_issued"
)

// TagEvent records one lifecycle mutation
type TagEvent struct {
	Type  TagEventType `json:"type"`
	TagID string       `json:"tag_id"`
	Actor string       `json:"actor,omitempty"`

	// RFC 7386 merge patch from the previous to the new record
	Changes json.RawMessage `json:"changes,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}
