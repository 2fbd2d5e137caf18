package handlers

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lyzr/tagservice/cmd/tagservice/models"
)

const (
	maxOwnerIDLength = 128
	maxReasonLength  = 500
)

func validateOwnerID(ownerID string) error {
	if ownerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if len(ownerID) > maxOwnerIDLength {
		return fmt.Errorf("owner_id must be at most %d characters", maxOwnerIDLength)
	}
	if strings.IndexFunc(ownerID, unicode.IsSpace) >= 0 {
		return fmt.Errorf("owner_id must not contain whitespace")
	}
	return nil
}

func validateReason(reason string) error {
	if len([]rune(reason)) > maxReasonLength {
		return fmt.Errorf("reason must be at most %d characters", maxReasonLength)
	}
	return nil
}

// validateHours returns the requested lifetime, or 0 for the server default
func validateHours(hours *int, maxHours int) (int, error) {
	if hours == nil {
		return 0, nil
	}
	if *hours < 1 || *hours > maxHours {
		return 0, fmt.Errorf("expires_in_hours must be between 1 and %d", maxHours)
	}
	return *hours, nil
}

func parseStatus(raw string) (models.TagStatus, error) {
	status, err := models.ParseTagStatus(strings.ToUpper(raw))
	if err != nil {
		return "", fmt.Errorf("status must be one of ACTIVE, INACTIVE, REVOKED")
	}
	return status, nil
}
