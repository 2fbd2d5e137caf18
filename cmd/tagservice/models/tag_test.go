package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTagStatus(t *testing.T) {
	for _, s := range []string{"ACTIVE", "INACTIVE", "REVOKED"} {
		status, err := ParseTagStatus(s)
		require.NoError(t, err)
		assert.Equal(t, TagStatus(s), status)
	}

	_, err := ParseTagStatus("active")
	assert.Error(t, err)
}

func TestTag_Transitions(t *testing.T) {
	tag := &Tag{TagID: "t1", Status: TagStatusActive}

	tag.Revoke("lost")
	assert.True(t, tag.IsRevoked())
	assert.False(t, tag.IsActive())
	require.NotNil(t, tag.RevocationReason)
	assert.Equal(t, "lost", *tag.RevocationReason)

	tag.Activate()
	assert.True(t, tag.IsActive())
	assert.False(t, tag.IsRevoked())
	assert.Nil(t, tag.RevocationReason)

	tag.Deactivate()
	assert.False(t, tag.IsActive())
	assert.False(t, tag.IsRevoked())
}

func TestTag_Clone(t *testing.T) {
	owner := "pet-1"
	tag := &Tag{
		TagID:        "t1",
		Status:       TagStatusActive,
		OwnerID:      &owner,
		ActiveTokens: []TokenRecord{{TokenID: "a"}},
	}

	c := tag.Clone()
	*c.OwnerID = "pet-2"
	c.ActiveTokens[0].TokenID = "b"

	assert.Equal(t, "pet-1", *tag.OwnerID)
	assert.Equal(t, "a", tag.ActiveTokens[0].TokenID)
	assert.NotNil(t, (&Tag{}).Clone().ActiveTokens)
}

func TestTag_PruneTokens(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tag := &Tag{ActiveTokens: []TokenRecord{
		{TokenID: "expired", ExpiresAt: now.Add(-time.Minute)},
		{TokenID: "boundary", ExpiresAt: now},
		{TokenID: "live", ExpiresAt: now.Add(time.Hour)},
	}}

	tag.PruneTokens(now)

	require.Len(t, tag.ActiveTokens, 1)
	assert.Equal(t, "live", tag.ActiveTokens[0].TokenID)
}

func TestTag_LinkedTo(t *testing.T) {
	tag := &Tag{}
	assert.False(t, tag.IsLinked())
	assert.False(t, tag.LinkedTo("pet-1"))

	owner := "pet-1"
	tag.OwnerID = &owner
	assert.True(t, tag.LinkedTo("pet-1"))
	assert.False(t, tag.LinkedTo("pet-2"))
}
