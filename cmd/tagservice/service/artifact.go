package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// ArtifactGenerator renders the scannable artifact printed on a tag
type ArtifactGenerator interface {
	Generate(ctx context.Context, tagID string) (string, error)
}

// QRGenerator renders a QR code pointing at the public tag URL
type QRGenerator struct {
	baseURL string
	size    int
}

// NewQRGenerator creates a generator encoding baseURL + tag id
func NewQRGenerator(baseURL string, size int) *QRGenerator {
	return &QRGenerator{
		baseURL: baseURL,
		size:    size,
	}
}

// Generate returns the QR PNG as a data URL
func (g *QRGenerator) Generate(ctx context.Context, tagID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	png, err := qrcode.Encode(g.baseURL+tagID, qrcode.Medium, g.size)
	if err != nil {
		return "", fmt.Errorf("failed to render qr code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
