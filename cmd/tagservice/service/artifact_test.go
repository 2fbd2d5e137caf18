package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRGenerator(t *testing.T) {
	g := NewQRGenerator("https://tags.example.com/t/", 128)

	artifact, err := g.Generate(context.Background(), "3f1c2d9e-0000-4000-8000-000000000001")
	require.NoError(t, err)

	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(artifact, prefix))

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(artifact, prefix))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))
}

func TestQRGenerator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewQRGenerator("https://tags.example.com/t/", 128).Generate(ctx, "t1")
	assert.ErrorIs(t, err, context.Canceled)
}
