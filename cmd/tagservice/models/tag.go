package models

import (
	"fmt"
	"time"
)

// TagStatus is the lifecycle status of a tag. REVOKED can never be active.
type TagStatus string

const (
	TagStatusActive   TagStatus = "ACTIVE"
	TagStatusInactive TagStatus = "INACTIVE"
	TagStatusRevoked  TagStatus = "REVOKED"
)

// ParseTagStatus validates a status name
func ParseTagStatus(s string) (TagStatus, error) {
	switch TagStatus(s) {
	case TagStatusActive, TagStatusInactive, TagStatusRevoked:
		return TagStatus(s), nil
	default:
		return "", fmt.Errorf("unknown tag status %q", s)
	}
}

// Tag is a physical identification tag (e.g. a pet ID tag with a QR code)
// Maps to: tag table
type Tag struct {
	// Immutable identifier assigned at creation
	TagID string `db:"tag_id" json:"tag_id"`

	Status TagStatus `db:"status" json:"status"`

	// Weak reference to an external owner (pet) record. Nil when unlinked.
	OwnerID *string `db:"owner_id" json:"owner_id,omitempty"`

	// Rendered QR payload (data URL). Empty until generated.
	Artifact string `db:"artifact" json:"artifact"`

	// Only set while Status is REVOKED
	RevocationReason *string `db:"revocation_reason" json:"revocation_reason,omitempty"`

	ActiveTokens []TokenRecord `db:"active_tokens" json:"active_tokens"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TokenRecord tracks an outstanding temporary access token
type TokenRecord struct {
	TokenID     string    `json:"token_id"`
	Fingerprint string    `json:"fingerprint"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsActive reports whether the tag is active (never true for a revoked tag)
func (t *Tag) IsActive() bool {
	return t.Status == TagStatusActive
}

// IsRevoked reports whether the tag is revoked
func (t *Tag) IsRevoked() bool {
	return t.Status == TagStatusRevoked
}

// IsLinked reports whether the tag is linked to an owner
func (t *Tag) IsLinked() bool {
	return t.OwnerID != nil
}

// LinkedTo reports whether the tag is linked to ownerID
func (t *Tag) LinkedTo(ownerID string) bool {
	return t.OwnerID != nil && *t.OwnerID == ownerID
}

// Activate moves the tag to ACTIVE and drops any revocation reason
func (t *Tag) Activate() {
	t.Status = TagStatusActive
	t.RevocationReason = nil
}

// Deactivate moves the tag to INACTIVE
func (t *Tag) Deactivate() {
	t.Status = TagStatusInactive
	t.RevocationReason = nil
}

// Revoke moves the tag to REVOKED with the given reason
func (t *Tag) Revoke(reason string) {
	t.Status = TagStatusRevoked
	t.RevocationReason = &reason
}

// PruneTokens drops token records that expired at or before now
func (t *Tag) PruneTokens(now time.Time) {
	kept := make([]TokenRecord, 0, len(t.ActiveTokens))
	for _, rec := range t.ActiveTokens {
		if now.Before(rec.ExpiresAt) {
			kept = append(kept, rec)
		}
	}
	t.ActiveTokens = kept
}

// Clone returns a deep copy of the tag
func (t *Tag) Clone() *Tag {
	c := *t
	if t.OwnerID != nil {
		owner := *t.OwnerID
		c.OwnerID = &owner
	}
	if t.RevocationReason != nil {
		reason := *t.RevocationReason
		c.RevocationReason = &reason
	}
	c.ActiveTokens = append([]TokenRecord(nil), t.ActiveTokens...)
	if c.ActiveTokens == nil {
		c.ActiveTokens = []TokenRecord{}
	}
	return &c
}
