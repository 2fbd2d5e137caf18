package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/lyzr/tagservice/cmd/tagservice/models"
	"github.com/lyzr/tagservice/common/db"
)

const tagColumns = `tag_id, status, owner_id, artifact, revocation_reason, active_tokens, created_at, updated_at`

// TagRepository handles database operations for tags
type TagRepository struct {
	db *db.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *db.DB) *TagRepository {
	return &TagRepository{db: db}
}

// GetByID retrieves a tag by id
func (r *TagRepository) GetByID(ctx context.Context, tagID string) (*models.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tag WHERE tag_id = $1`

	tag, err := scanTag(r.db.QueryRow(ctx, query, tagID))
	if db.IsNoRows(err) {
		return nil, fmt.Errorf("tag %s: %w", tagID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}

	return tag, nil
}

// Find retrieves all tags matching filter
func (r *TagRepository) Find(ctx context.Context, filter TagFilter) ([]*models.Tag, error) {
	query, args := buildFindQuery(filter, 0)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find tags: %w", err)
	}
	defer rows.Close()

	tags := make([]*models.Tag, 0)
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}

	return tags, nil
}

// FindOne retrieves the first tag matching filter
func (r *TagRepository) FindOne(ctx context.Context, filter TagFilter) (*models.Tag, error) {
	query, args := buildFindQuery(filter, 1)

	tag, err := scanTag(r.db.QueryRow(ctx, query, args...))
	if db.IsNoRows(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tag: %w", err)
	}

	return tag, nil
}

// Save upserts the full tag row (last writer wins)
func (r *TagRepository) Save(ctx context.Context, tag *models.Tag) error {
	tokens := tag.ActiveTokens
	if tokens == nil {
		tokens = []models.TokenRecord{}
	}
	tokensJSON, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to encode active tokens: %w", err)
	}

	query := `
		INSERT INTO tag (` + tagColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tag_id) DO UPDATE
		SET status = EXCLUDED.status,
		    owner_id = EXCLUDED.owner_id,
		    artifact = EXCLUDED.artifact,
		    revocation_reason = EXCLUDED.revocation_reason,
		    active_tokens = EXCLUDED.active_tokens,
		    updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.Exec(ctx, query,
		tag.TagID,
		string(tag.Status),
		tag.OwnerID,
		tag.Artifact,
		tag.RevocationReason,
		string(tokensJSON),
		tag.CreatedAt,
		tag.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save tag: %w", err)
	}

	return nil
}

// buildFindQuery renders the SELECT for a filter; limit 0 means unlimited
func buildFindQuery(filter TagFilter, limit int) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		conds = append(conds, fmt.Sprintf("owner_id = $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + tagColumns + ` FROM tag`)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY created_at ASC, tag_id ASC")
	if limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}

	return b.String(), args
}

func scanTag(row pgx.Row) (*models.Tag, error) {
	tag := &models.Tag{}
	var (
		status     string
		tokensJSON []byte
	)

	err := row.Scan(
		&tag.TagID,
		&status,
		&tag.OwnerID,
		&tag.Artifact,
		&tag.RevocationReason,
		&tokensJSON,
		&tag.CreatedAt,
		&tag.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	tag.Status = models.TagStatus(status)
	tag.ActiveTokens = []models.TokenRecord{}
	if len(tokensJSON) > 0 {
		if err := json.Unmarshal(tokensJSON, &tag.ActiveTokens); err != nil {
			return nil, fmt.Errorf("decode active tokens: %w", err)
		}
	}

	return tag, nil
}
