package container

import (
	"fmt"

	"github.com/lyzr/tagservice/cmd/tagservice/repository"
	"github.com/lyzr/tagservice/cmd/tagservice/service"
	"github.com/lyzr/tagservice/common/bootstrap"
	"github.com/lyzr/tagservice/common/clock"
	"github.com/lyzr/tagservice/common/ratelimit"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components

	// Repositories
	TagStore repository.TagStore

	// Services
	Tokens      *service.TokenCodec
	TagService  *service.TagService
	Access      *service.AccessEvaluator
	Events      service.EventPublisher
	Audit       *service.AuditSubscriber
	RateLimiter *ratelimit.RateLimiter // nil without Redis
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	return newContainer(components, clock.Real())
}

func newContainer(components *bootstrap.Components, clk clock.Clock) (*Container, error) {
	cfg := components.Config
	log := components.Logger

	store, err := newTagStore(components)
	if err != nil {
		return nil, err
	}

	tokens, err := service.NewTokenCodec([]byte(cfg.Token.Secret), clk)
	if err != nil {
		return nil, fmt.Errorf("failed to create token codec: %w", err)
	}
	tokens.WithLimits(cfg.Token.DefaultHours, cfg.Token.MaxHours)

	artifacts := service.NewQRGenerator(cfg.Artifact.BaseURL, cfg.Artifact.Size)

	c := &Container{
		Components: components,
		TagStore:   store,
		Tokens:     tokens,
	}

	// Redis pub/sub wins over the in-process queue when both are present
	switch {
	case components.Redis != nil:
		c.Events = service.NewRedisEventPublisher(components.Redis)
	case components.Queue != nil:
		c.Events = service.NewQueueEventPublisher(components.Queue)
		c.Audit = service.NewAuditSubscriber(components.Queue, log)
	default:
		c.Events = service.NoopEventPublisher{}
	}

	if components.Redis != nil {
		c.RateLimiter = ratelimit.NewRateLimiter(components.Redis.GetUnderlying(), log)
	}

	c.TagService = service.NewTagService(store, tokens, artifacts, c.Events, clk, log)
	c.Access = service.NewAccessEvaluator(c.TagService, tokens, log)

	log.Info("service container initialized",
		"store", cfg.Store.Type,
		"cached", components.Cache != nil,
		"rate_limited", c.RateLimiter != nil,
	)

	return c, nil
}

func newTagStore(components *bootstrap.Components) (repository.TagStore, error) {
	cfg := components.Config

	var store repository.TagStore
	switch cfg.Store.Type {
	case "postgres":
		if components.DB == nil {
			return nil, fmt.Errorf("postgres store selected but database is not initialized")
		}
		store = repository.NewTagRepository(components.DB)
	case "memory":
		store = repository.NewMemoryTagRepository()
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Store.Type)
	}

	if components.Cache != nil && cfg.Cache.Enabled {
		store = repository.NewCachedTagStore(store, components.Cache, cfg.Cache.DefaultTTL, components.Logger)
	}

	return store, nil
}
