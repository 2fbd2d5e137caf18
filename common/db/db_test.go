package db

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lyzr/tagservice/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolConfig(t *testing.T) {
	cfg := config.Default("tagservice")
	cfg.Database.MaxConns = 8
	cfg.Database.MinConns = 2
	cfg.Database.MaxIdleTime = time.Minute

	poolConfig, err := newPoolConfig(cfg)
	require.NoError(t, err)

	assert.EqualValues(t, 8, poolConfig.MaxConns)
	assert.EqualValues(t, 2, poolConfig.MinConns)
	assert.Equal(t, time.Minute, poolConfig.MaxConnIdleTime)
	assert.Equal(t, connectTimeout, poolConfig.ConnConfig.ConnectTimeout)
	assert.Equal(t, "localhost", poolConfig.ConnConfig.Host)
	assert.Equal(t, "tags", poolConfig.ConnConfig.Database)
	assert.Equal(t, "tagservice", poolConfig.ConnConfig.RuntimeParams["application_name"])
}

func TestNewPoolConfig_MinConnsCapped(t *testing.T) {
	cfg := config.Default("tagservice")
	cfg.Database.MaxConns = 3
	cfg.Database.MinConns = 10

	poolConfig, err := newPoolConfig(cfg)
	require.NoError(t, err)
	assert.EqualValues(t, 3, poolConfig.MinConns)
}

func TestIsNoRows(t *testing.T) {
	assert.True(t, IsNoRows(pgx.ErrNoRows))
	assert.True(t, IsNoRows(fmt.Errorf("get tag: %w", pgx.ErrNoRows)))
	assert.False(t, IsNoRows(errors.New("connection refused")))
	assert.False(t, IsNoRows(nil))
}
