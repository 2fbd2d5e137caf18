package service

import (
	"fmt"

	"github.com/google/cel-go/cel"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lyzr/tagservice/cmd/tagservice/models"
)

// DefaultQueryCacheSize bounds the number of compiled expressions kept
const DefaultQueryCacheSize = 256

// QueryEvaluator compiles and caches CEL predicates over tags. The cache
// evicts least recently used programs.
type QueryEvaluator struct {
	env    *cel.Env
	envErr error
	cache  *lru.Cache[string, cel.Program]
}

// NewQueryEvaluator creates a new evaluator with an empty cache
func NewQueryEvaluator() *QueryEvaluator {
	return NewQueryEvaluatorWithSize(DefaultQueryCacheSize)
}

// NewQueryEvaluatorWithSize creates an evaluator caching at most size programs
func NewQueryEvaluatorWithSize(size int) *QueryEvaluator {
	if size < 1 {
		size = DefaultQueryCacheSize
	}

	env, err := cel.NewEnv(
		cel.Variable("tag", cel.MapType(cel.StringType, cel.DynType)),
	)

	// New only fails for a non-positive size
	cache, _ := lru.New[string, cel.Program](size)

	return &QueryEvaluator{
		env:    env,
		envErr: err,
		cache:  cache,
	}
}

// Compile returns the program for expr, compiling it on first use
func (e *QueryEvaluator) Compile(expr string) (cel.Program, error) {
	if prg, ok := e.cache.Get(expr); ok {
		return prg, nil
	}

	if e.envErr != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", e.envErr)
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidQuery, issues.Err())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidQuery, err)
	}

	e.cache.Add(expr, prg)

	return prg, nil
}

// Match evaluates prg against tag
func (e *QueryEvaluator) Match(prg cel.Program, tag *models.Tag) (bool, error) {
	out, _, err := prg.Eval(map[string]interface{}{
		"tag": tagActivation(tag),
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", models.ErrInvalidQuery, err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: expression did not return boolean, got %T", models.ErrInvalidQuery, out.Value())
	}
	return result, nil
}

// CacheSize returns the number of cached expressions
func (e *QueryEvaluator) CacheSize() int {
	return e.cache.Len()
}

// tagActivation exposes tag fields to expressions. Optional fields are empty strings when unset.
func tagActivation(tag *models.Tag) map[string]interface{} {
	owner := ""
	if tag.OwnerID != nil {
		owner = *tag.OwnerID
	}
	reason := ""
	if tag.RevocationReason != nil {
		reason = *tag.RevocationReason
	}

	return map[string]interface{}{
		"tag_id":            tag.TagID,
		"status":            string(tag.Status),
		"owner_id":          owner,
		"linked":            tag.IsLinked(),
		"has_artifact":      tag.Artifact != "",
		"token_count":       int64(len(tag.ActiveTokens)),
		"revocation_reason": reason,
		"created_at":        tag.CreatedAt,
		"updated_at":        tag.UpdatedAt,
	}
}
