package service

import (
	"context"

	"github.com/lyzr/tagservice/cmd/tagservice/models"
	"github.com/lyzr/tagservice/common/logger"
)

// AccessEvaluator decides whether a caller may read a tag
type AccessEvaluator struct {
	tags   *TagService
	tokens *TokenCodec
	log    *logger.Logger
}

// NewAccessEvaluator creates a new access evaluator
func NewAccessEvaluator(tags *TagService, tokens *TokenCodec, log *logger.Logger) *AccessEvaluator {
	return &AccessEvaluator{
		tags:   tags,
		tokens: tokens,
		log:    log,
	}
}

// CheckAccess evaluates access to tagID. An empty token means none was presented.
// Inactive tags are never disclosed.
func (a *AccessEvaluator) CheckAccess(ctx context.Context, tagID, token string) (*models.AccessDecision, error) {
	tag, err := a.tags.GetTag(ctx, tagID)
	if err != nil {
		return nil, err
	}

	if !tag.IsActive() {
		return &models.AccessDecision{HasAccess: false, IsTemporary: false}, nil
	}

	if token == "" {
		return &models.AccessDecision{HasAccess: true, IsTemporary: false, Tag: tag}, nil
	}

	valid := a.tokens.Verify(tagID, token)
	if !valid {
		a.log.Debug("rejected temporary token", "tag_id", tagID)
	}

	return &models.AccessDecision{
		HasAccess:   valid,
		IsTemporary: valid,
		Tag:         tag,
	}, nil
}
