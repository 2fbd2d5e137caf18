package models

import "time"

// AccessDecision is the result of an access check
type AccessDecision struct {
	HasAccess   bool `json:"has_access"`
	IsTemporary bool `json:"is_temporary"`
	Tag         *Tag `json:"tag,omitempty"`
}

// IssuedToken is returned when a temporary access token is minted
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
