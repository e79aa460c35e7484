// Package image turns an image prompt into a stored, publicly reachable
// article image.
package image

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"articlegen/internal/domain"
	"articlegen/internal/providers/genai"
	"articlegen/internal/storage"
)

// GenerateRequest describes one article image.
type GenerateRequest struct {
	Prompt      string
	AltText     string
	AspectRatio string
	// KeyPrefix groups the stored object, e.g. articles/<job id>.
	KeyPrefix string
	// Slot names the image within the article: featured, section-01, ...
	Slot string
}

// Generator is the contract the image stage depends on.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (domain.Image, error)
}

type imageClient interface {
	GenerateImage(ctx context.Context, req genai.ImageRequest) (*genai.ImageAsset, error)
}

// GeminiGenerator renders with Gemini and uploads the bytes to an asset
// store.
type GeminiGenerator struct {
	client imageClient
	store  storage.AssetStore
	newID  func() string
}

func NewGeminiGenerator(client *genai.Client, store storage.AssetStore) *GeminiGenerator {
	return newGeminiGenerator(client, store)
}

func newGeminiGenerator(client imageClient, store storage.AssetStore) *GeminiGenerator {
	return &GeminiGenerator{client: client, store: store, newID: func() string { return uuid.NewString() }}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest) (domain.Image, error) {
	asset, err := g.client.GenerateImage(ctx, genai.ImageRequest{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Seed:        path.Join(req.KeyPrefix, req.Slot),
	})
	if err != nil {
		return domain.Image{}, err
	}
	if asset == nil || len(asset.Data) == 0 {
		return domain.Image{}, errors.New("image: provider returned no bytes")
	}

	slot := strings.TrimSpace(req.Slot)
	if slot == "" {
		slot = "image"
	}
	key := path.Join(req.KeyPrefix, fmt.Sprintf("%s-%s.%s", slot, g.newID(), extensionFor(asset.Format)))
	obj, err := g.store.Put(ctx, key, asset.Data, asset.Format)
	if err != nil {
		return domain.Image{}, fmt.Errorf("image: store %s: %w", slot, err)
	}
	return domain.Image{
		URL:        obj.URL,
		StorageKey: obj.Key,
		AltText:    strings.TrimSpace(req.AltText),
		Prompt:     req.Prompt,
		Format:     asset.Format,
		Width:      asset.Width,
		Height:     asset.Height,
	}, nil
}

func extensionFor(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}

var _ Generator = (*GeminiGenerator)(nil)
