package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/tagservice/cmd/tagservice/container"
	"github.com/lyzr/tagservice/cmd/tagservice/models"
	"github.com/lyzr/tagservice/cmd/tagservice/routes"
	"github.com/lyzr/tagservice/common/bootstrap"
	"github.com/lyzr/tagservice/common/config"
	"github.com/lyzr/tagservice/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) string {
	t.Helper()

	cfg := config.Default("tagservice")
	cfg.Cache.Enabled = false

	c, err := container.NewContainer(&bootstrap.Components{Config: cfg, Logger: logger.Discard()})
	require.NoError(t, err)

	e := echo.New()
	routes.RegisterTagRoutes(e, c)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--server", server, "--user", "ops", "--role", "admin"}, args...))

	err := rootCmd.Execute()
	return out.String(), err
}

func TestTagctl_Lifecycle(t *testing.T) {
	server := startServer(t)

	out, err := run(t, server, "create", "--no-qr")
	require.NoError(t, err)
	var tag models.Tag
	require.NoError(t, json.Unmarshal([]byte(out), &tag))
	assert.Empty(t, tag.Artifact)

	out, err = run(t, server, "link", tag.TagID, "pet-7")
	require.NoError(t, err)
	assert.Contains(t, out, `"owner_id": "pet-7"`)

	out, err = run(t, server, "owner", "pet-7")
	require.NoError(t, err)
	assert.Contains(t, out, tag.TagID)

	out, err = run(t, server, "owner", "pet-8")
	require.NoError(t, err)
	assert.Equal(t, "no tag linked to pet-8\n", out)

	out, err = run(t, server, "revoke", tag.TagID, "--reason", "lost")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "REVOKED"`)

	_, err = run(t, server, "link", tag.TagID, "pet-9")
	assert.Error(t, err)

	out, err = run(t, server, "list", "--status", "REVOKED")
	require.NoError(t, err)
	assert.Contains(t, out, tag.TagID)

	out, err = run(t, server, "search", `tag.revocation_reason == "lost"`)
	require.NoError(t, err)
	assert.Contains(t, out, tag.TagID)

	out, err = run(t, server, "reactivate", tag.TagID)
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "ACTIVE"`)
}

func TestTagctl_Tokens(t *testing.T) {
	server := startServer(t)

	out, err := run(t, server, "create", "--no-qr")
	require.NoError(t, err)
	var tag models.Tag
	require.NoError(t, json.Unmarshal([]byte(out), &tag))

	out, err = run(t, server, "token", "issue", tag.TagID, "--hours", "2")
	require.NoError(t, err)
	var issued models.IssuedToken
	require.NoError(t, json.Unmarshal([]byte(out), &issued))
	require.NotEmpty(t, issued.Token)

	out, err = run(t, server, "token", "verify", tag.TagID, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "valid: true\n", out)

	out, err = run(t, server, "token", "verify", tag.TagID, "forged")
	require.NoError(t, err)
	assert.Equal(t, "valid: false\n", out)

	out, err = run(t, server, "access", tag.TagID, "--token", issued.Token)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, `"is_temporary": true`), out)

	_, err = run(t, server, "token", "issue", tag.TagID, "--hours", "9999")
	assert.Error(t, err)
}
