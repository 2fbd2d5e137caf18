package repository

import (
	"context"

	"github.com/lyzr/tagservice/cmd/tagservice/models"
)

// TagStore is the durable record store for tags. Implementations return
// models.ErrNotFound (wrapped) when a lookup by id finds nothing, and
// must hand out copies so callers can mutate what they load.
type TagStore interface {
	GetByID(ctx context.Context, tagID string) (*models.Tag, error)
	Find(ctx context.Context, filter TagFilter) ([]*models.Tag, error)
	FindOne(ctx context.Context, filter TagFilter) (*models.Tag, error)
	Save(ctx context.Context, tag *models.Tag) error
}

// TagFilter is a conjunction of optional field predicates. The zero value matches every tag.
type TagFilter struct {
	Status  *models.TagStatus
	OwnerID *string
}

// ByStatus matches tags with the given status
func ByStatus(status models.TagStatus) TagFilter {
	return TagFilter{Status: &status}
}

// ByOwner matches tags linked to ownerID
func ByOwner(ownerID string) TagFilter {
	return TagFilter{OwnerID: &ownerID}
}

// Matches evaluates the filter against a tag
func (f TagFilter) Matches(tag *models.Tag) bool {
	if f.Status != nil && tag.Status != *f.Status {
		return false
	}
	if f.OwnerID != nil && !tag.LinkedTo(*f.OwnerID) {
		return false
	}
	return true
}
