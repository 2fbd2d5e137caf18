package container

import (
	"testing"
	"time"

	"github.com/lyzr/tagservice/cmd/tagservice/repository"
	"github.com/lyzr/tagservice/cmd/tagservice/service"
	"github.com/lyzr/tagservice/common/bootstrap"
	"github.com/lyzr/tagservice/common/cache"
	"github.com/lyzr/tagservice/common/clock"
	"github.com/lyzr/tagservice/common/config"
	"github.com/lyzr/tagservice/common/logger"
	"github.com/lyzr/tagservice/common/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContainer_MemoryStore(t *testing.T) {
	log := logger.Discard()
	q := queue.NewMemoryQueue(log)
	defer q.Close()
	c := cache.NewMemoryCache(log)
	defer c.Close()

	cfg := config.Default("tagservice")
	cfg.Token.DefaultHours = 12
	cfg.Token.MaxHours = 48

	ct, err := newContainer(&bootstrap.Components{
		Config: cfg,
		Logger: log,
		Queue:  q,
		Cache:  c,
	}, clock.Fake(time.Now()))
	require.NoError(t, err)

	assert.IsType(t, &repository.CachedTagStore{}, ct.TagStore)
	assert.IsType(t, &service.QueueEventPublisher{}, ct.Events)
	assert.NotNil(t, ct.Audit)
	assert.Nil(t, ct.RateLimiter)
	assert.Equal(t, 48, ct.Tokens.MaxHours())
}

func TestNewContainer_NoQueue(t *testing.T) {
	cfg := config.Default("tagservice")
	cfg.Cache.Enabled = false

	ct, err := NewContainer(&bootstrap.Components{
		Config: cfg,
		Logger: logger.Discard(),
	})
	require.NoError(t, err)

	assert.IsType(t, &repository.MemoryTagRepository{}, ct.TagStore)
	assert.IsType(t, service.NoopEventPublisher{}, ct.Events)
	assert.Nil(t, ct.Audit)
}

func TestNewContainer_PostgresWithoutDB(t *testing.T) {
	cfg := config.Default("tagservice")
	cfg.Store.Type = "postgres"

	_, err := NewContainer(&bootstrap.Components{
		Config: cfg,
		Logger: logger.Discard(),
	})
	assert.Error(t, err)
}
