package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lyzr/tagservice/cmd/tagservice/models"
	"github.com/lyzr/tagservice/cmd/tagservice/repository"
	"github.com/lyzr/tagservice/common/clock"
	"github.com/lyzr/tagservice/common/logger"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-0123456789abcdef")

type fakeArtifacts struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeArtifacts) Generate(ctx context.Context, tagID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("qr:%s:%d", tagID, f.calls), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.TagEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event *models.TagEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) last() *models.TagEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

type fixture struct {
	svc       *TagService
	access    *AccessEvaluator
	tokens    *TokenCodec
	clock     *clock.FakeClock
	store     *repository.MemoryTagRepository
	artifacts *fakeArtifacts
	events    *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	tokens, err := NewTokenCodec(testSecret, clk)
	require.NoError(t, err)

	store := repository.NewMemoryTagRepository()
	artifacts := &fakeArtifacts{}
	events := &recordingPublisher{}
	log := logger.Discard()

	svc := NewTagService(store, tokens, artifacts, events, clk, log)

	return &fixture{
		svc:       svc,
		access:    NewAccessEvaluator(svc, tokens, log),
		tokens:    tokens,
		clock:     clk,
		store:     store,
		artifacts: artifacts,
		events:    events,
	}
}

func (f *fixture) create(t *testing.T) *models.Tag {
	t.Helper()
	tag, err := f.svc.CreateTag(context.Background(), false)
	require.NoError(t, err)
	return tag
}
