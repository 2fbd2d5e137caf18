package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lyzr/tagservice/cmd/tagservice/models"
)

// MemoryTagRepository keeps tags in process memory
type MemoryTagRepository struct {
	mu   sync.RWMutex
	tags map[string]*models.Tag
}

// NewMemoryTagRepository creates an empty in-memory store
func NewMemoryTagRepository() *MemoryTagRepository {
	return &MemoryTagRepository{
		tags: make(map[string]*models.Tag),
	}
}

// GetByID retrieves a tag by id
func (r *MemoryTagRepository) GetByID(ctx context.Context, tagID string) (*models.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tag, ok := r.tags[tagID]
	if !ok {
		return nil, fmt.Errorf("tag %s: %w", tagID, models.ErrNotFound)
	}
	return tag.Clone(), nil
}

// Find returns all tags matching filter ordered by creation time
func (r *MemoryTagRepository) Find(ctx context.Context, filter TagFilter) ([]*models.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]*models.Tag, 0)
	for _, tag := range r.tags {
		if filter.Matches(tag) {
			tags = append(tags, tag.Clone())
		}
	}

	sort.Slice(tags, func(i, j int) bool {
		if tags[i].CreatedAt.Equal(tags[j].CreatedAt) {
			return tags[i].TagID < tags[j].TagID
		}
		return tags[i].CreatedAt.Before(tags[j].CreatedAt)
	})

	return tags, nil
}

// FindOne returns the first tag matching filter
func (r *MemoryTagRepository) FindOne(ctx context.Context, filter TagFilter) (*models.Tag, error) {
	tags, err := r.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, models.ErrNotFound
	}
	return tags[0], nil
}

// Save inserts or replaces a tag
func (r *MemoryTagRepository) Save(ctx context.Context, tag *models.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tags[tag.TagID] = tag.Clone()
	return nil
}
