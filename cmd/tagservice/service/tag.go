package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lyzr/tagservice/cmd/tagservice/models"
	"github.com/lyzr/tagservice/cmd/tagservice/repository"
	"github.com/lyzr/tagservice/common/clients"
	"github.com/lyzr/tagservice/common/clock"
	"github.com/lyzr/tagservice/common/logger"
)

// TagService owns the tag lifecycle. Every mutation is a single
// load, modify and save; concurrent writers resolve last-writer-wins.
type TagService struct {
	store     repository.TagStore
	tokens    *TokenCodec
	artifacts ArtifactGenerator
	events    EventPublisher
	query     *QueryEvaluator
	clock     clock.Clock
	log       *logger.Logger
}

// NewTagService creates a new tag service
func NewTagService(
	store repository.TagStore,
	tokens *TokenCodec,
	artifacts ArtifactGenerator,
	events EventPublisher,
	clk clock.Clock,
	log *logger.Logger,
) *TagService {
	if events == nil {
		events = NoopEventPublisher{}
	}
	return &TagService{
		store:     store,
		tokens:    tokens,
		artifacts: artifacts,
		events:    events,
		query:     NewQueryEvaluator(),
		clock:     clk,
		log:       log,
	}
}

// CreateTag creates an active, unlinked tag. The artifact is rendered
// before the first save when generateArtifact is set.
func (s *TagService) CreateTag(ctx context.Context, generateArtifact bool) (*models.Tag, error) {
	now := s.now()
	tag := &models.Tag{
		TagID:        uuid.NewString(),
		Status:       models.TagStatusActive,
		ActiveTokens: []models.TokenRecord{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if generateArtifact {
		artifact, err := s.artifacts.Generate(ctx, tag.TagID)
		if err != nil {
			return nil, fmt.Errorf("failed to generate artifact: %w", err)
		}
		tag.Artifact = artifact
	}

	if err := s.store.Save(ctx, tag); err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	s.log.Info("created tag", "tag_id", tag.TagID, "has_artifact", tag.Artifact != "")
	s.publish(ctx, models.TagEventCreated, nil, tag)

	return tag, nil
}

// GetTag retrieves a tag by id
func (s *TagService) GetTag(ctx context.Context, tagID string) (*models.Tag, error) {
	tag, err := s.store.GetByID(ctx, tagID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tag %s: %w", tagID, err)
	}
	return tag, nil
}

// LinkTag links the tag to ownerID and activates it.
// Relinking to the same owner is allowed; a different owner requires an unlink first.
func (s *TagService) LinkTag(ctx context.Context, tagID, ownerID string) (*models.Tag, error) {
	return s.mutate(ctx, tagID, models.TagEventLinked, func(tag *models.Tag) error {
		if tag.IsRevoked() {
			return fmt.Errorf("cannot link revoked tag: %w", models.ErrForbidden)
		}
		if tag.IsLinked() && !tag.LinkedTo(ownerID) {
			return fmt.Errorf("tag is already linked to another owner: %w", models.ErrForbidden)
		}
		owner := ownerID
		tag.OwnerID = &owner
		tag.Activate()
		return nil
	})
}

// UnlinkTag clears the owner link. Status is left untouched.
func (s *TagService) UnlinkTag(ctx context.Context, tagID string) (*models.Tag, error) {
	return s.mutate(ctx, tagID, models.TagEventUnlinked, func(tag *models.Tag) error {
		tag.OwnerID = nil
		return nil
	})
}

// RevokeTag revokes the tag, overwriting any previous reason
func (s *TagService) RevokeTag(ctx context.Context, tagID, reason string) (*models.Tag, error) {
	return s.mutate(ctx, tagID, models.TagEventRevoked, func(tag *models.Tag) error {
		tag.Revoke(reason)
		return nil
	})
}

// ReactivateTag makes the tag active again. The owner link is not restored.
func (s *TagService) ReactivateTag(ctx context.Context, tagID string) (*models.Tag, error) {
	return s.mutate(ctx, tagID, models.TagEventReactivated, func(tag *models.Tag) error {
		tag.Activate()
		return nil
	})
}

// DeactivateTag suspends an active tag without revoking it
func (s *TagService) DeactivateTag(ctx context.Context, tagID string) (*models.Tag, error) {
	return s.mutate(ctx, tagID, models.TagEventDeactivated, func(tag *models.Tag) error {
		if tag.IsRevoked() {
			return fmt.Errorf("cannot deactivate revoked tag: %w", models.ErrForbidden)
		}
		tag.Deactivate()
		return nil
	})
}

// RegenerateArtifact re-renders the tag artifact
func (s *TagService) RegenerateArtifact(ctx context.Context, tagID string) (*models.Tag, error) {
	return s.mutate(ctx, tagID, models.TagEventArtifactRegenerated, func(tag *models.Tag) error {
		artifact, err := s.artifacts.Generate(ctx, tag.TagID)
		if err != nil {
			return fmt.Errorf("failed to generate artifact: %w", err)
		}
		tag.Artifact = artifact
		return nil
	})
}

// IssueToken mints a temporary access token for an active tag and records it.
// Expired token records are pruned on the same write.
func (s *TagService) IssueToken(ctx context.Context, tagID string, expiresInHours int) (*models.IssuedToken, error) {
	var minted *MintedToken

	_, err := s.mutate(ctx, tagID, models.TagEventTokenIssued, func(tag *models.Tag) error {
		if !tag.IsActive() {
			return fmt.Errorf("cannot issue token for %s tag: %w", tag.Status, models.ErrForbidden)
		}

		var err error
		minted, err = s.tokens.Issue(tag.TagID, expiresInHours)
		if err != nil {
			return err
		}

		tag.PruneTokens(s.now())
		tag.ActiveTokens = append(tag.ActiveTokens, models.TokenRecord{
			TokenID:     minted.TokenID,
			Fingerprint: Fingerprint(minted.Token),
			ExpiresAt:   minted.ExpiresAt,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &models.IssuedToken{
		Token:     minted.Token,
		ExpiresAt: minted.ExpiresAt,
	}, nil
}

// VerifyToken reports whether token is a valid, unexpired token for tagID
func (s *TagService) VerifyToken(ctx context.Context, tagID, token string) bool {
	return s.tokens.Verify(tagID, token)
}

// ListByStatus returns all tags with the given status
func (s *TagService) ListByStatus(ctx context.Context, status models.TagStatus) ([]*models.Tag, error) {
	tags, err := s.store.Find(ctx, repository.ByStatus(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// FindByOwner returns the tag linked to ownerID, or nil when there is none
func (s *TagService) FindByOwner(ctx context.Context, ownerID string) (*models.Tag, error) {
	tag, err := s.store.FindOne(ctx, repository.ByOwner(ownerID))
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tag by owner: %w", err)
	}
	return tag, nil
}

// Search returns every tag matching a CEL predicate over `tag`
func (s *TagService) Search(ctx context.Context, expr string) ([]*models.Tag, error) {
	prg, err := s.query.Compile(expr)
	if err != nil {
		return nil, err
	}

	tags, err := s.store.Find(ctx, repository.TagFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	matched := make([]*models.Tag, 0)
	for _, tag := range tags {
		ok, err := s.query.Match(prg, tag)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, tag)
		}
	}
	return matched, nil
}

// mutate loads the tag, applies fn, stamps and saves it, then emits an event
func (s *TagService) mutate(ctx context.Context, tagID string, eventType models.TagEventType, fn func(tag *models.Tag) error) (*models.Tag, error) {
	tag, err := s.GetTag(ctx, tagID)
	if err != nil {
		return nil, err
	}

	before := tag.Clone()
	if err := fn(tag); err != nil {
		return nil, err
	}
	tag.UpdatedAt = s.now()

	if err := s.store.Save(ctx, tag); err != nil {
		return nil, fmt.Errorf("failed to save tag: %w", err)
	}

	s.log.Info("tag updated", "tag_id", tag.TagID, "event", eventType, "status", tag.Status)
	s.publish(ctx, eventType, before, tag)

	return tag, nil
}

// publish emits an event. Failures are logged and never fail the operation.
func (s *TagService) publish(ctx context.Context, eventType models.TagEventType, before, after *models.Tag) {
	changes, err := diffTags(before, after)
	if err != nil {
		s.log.Warn("failed to diff tag", "tag_id", after.TagID, "error", err)
	}

	actor, _ := clients.GetUserID(ctx)
	event := &models.TagEvent{
		Type:       eventType,
		TagID:      after.TagID,
		Actor:      actor,
		Changes:    changes,
		OccurredAt: s.now(),
	}

	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish tag event", "tag_id", after.TagID, "type", eventType, "error", err)
	}
}

func (s *TagService) now() time.Time {
	return s.clock.Now().UTC()
}
