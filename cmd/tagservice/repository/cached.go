package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lyzr/tagservice/cmd/tagservice/models"
	"github.com/lyzr/tagservice/common/cache"
	"github.com/lyzr/tagservice/common/logger"
)

// CachedTagStore adds a read-through cache in front of GetByID. Queries
// always hit the backing store; Save writes through and refreshes the entry.
type CachedTagStore struct {
	inner TagStore
	cache cache.Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewCachedTagStore wraps inner with cache
func NewCachedTagStore(inner TagStore, c cache.Cache, ttl time.Duration, log *logger.Logger) *CachedTagStore {
	return &CachedTagStore{
		inner: inner,
		cache: c,
		ttl:   ttl,
		log:   log,
	}
}

func cacheKey(tagID string) string {
	return "tag:" + tagID
}

// GetByID serves from cache when possible
func (s *CachedTagStore) GetByID(ctx context.Context, tagID string) (*models.Tag, error) {
	data, found, err := s.cache.Get(ctx, cacheKey(tagID))
	if err != nil {
		s.log.Warn("tag cache read failed", "tag_id", tagID, "error", err)
	}
	if found {
		var tag models.Tag
		if err := json.Unmarshal(data, &tag); err == nil {
			return &tag, nil
		}
		s.log.Warn("dropping undecodable cache entry", "tag_id", tagID)
		_ = s.cache.Delete(ctx, cacheKey(tagID))
	}

	tag, err := s.inner.GetByID(ctx, tagID)
	if err != nil {
		return nil, err
	}

	s.store(ctx, tag)
	return tag, nil
}

// Find delegates to the backing store
func (s *CachedTagStore) Find(ctx context.Context, filter TagFilter) ([]*models.Tag, error) {
	return s.inner.Find(ctx, filter)
}

// FindOne delegates to the backing store
func (s *CachedTagStore) FindOne(ctx context.Context, filter TagFilter) (*models.Tag, error) {
	return s.inner.FindOne(ctx, filter)
}

// Save writes through and refreshes the cache entry
func (s *CachedTagStore) Save(ctx context.Context, tag *models.Tag) error {
	if err := s.inner.Save(ctx, tag); err != nil {
		// Next read goes to the backing store
		_ = s.cache.Delete(ctx, cacheKey(tag.TagID))
		return err
	}

	s.store(ctx, tag)
	return nil
}

func (s *CachedTagStore) store(ctx context.Context, tag *models.Tag) {
	data, err := json.Marshal(tag)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(tag.TagID), data, s.ttl); err != nil {
		s.log.Warn("tag cache write failed", "tag_id", tag.TagID, "error", err)
	}
}
