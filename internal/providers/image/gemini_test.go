package image

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"articlegen/internal/providers/genai"
	"articlegen/internal/storage"
)

type fakeImageClient struct {
	asset *genai.ImageAsset
	err   error
	got   genai.ImageRequest
}

func (f *fakeImageClient) GenerateImage(_ context.Context, req genai.ImageRequest) (*genai.ImageAsset, error) {
	f.got = req
	return f.asset, f.err
}

type memStore struct {
	objects map[string][]byte
	err     error
}

func (m *memStore) Put(_ context.Context, key string, data []byte, _ string) (storage.Object, error) {
	if m.err != nil {
		return storage.Object{}, m.err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return storage.Object{Key: key, URL: "https://cdn.test/" + key}, nil
}

func TestGeminiGeneratorStoresImage(t *testing.T) {
	client := &fakeImageClient{asset: &genai.ImageAsset{Data: []byte("bytes"), Format: "image/jpeg", Width: 10, Height: 5}}
	store := &memStore{}
	g := newGeminiGenerator(client, store)
	g.newID = func() string { return "id1" }

	img, err := g.Generate(context.Background(), GenerateRequest{
		Prompt:      "cover",
		AltText:     " Featured image ",
		AspectRatio: "16:9",
		KeyPrefix:   "articles/job-1",
		Slot:        "featured",
	})
	require.NoError(t, err)
	assert.Equal(t, "articles/job-1/featured-id1.jpg", img.StorageKey)
	assert.Equal(t, "https://cdn.test/articles/job-1/featured-id1.jpg", img.URL)
	assert.Equal(t, "Featured image", img.AltText)
	assert.Equal(t, 10, img.Width)
	assert.Equal(t, "articles/job-1/featured", client.got.Seed)
	assert.Contains(t, store.objects, "articles/job-1/featured-id1.jpg")
}

func TestGeminiGeneratorErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := newGeminiGenerator(&fakeImageClient{err: boom}, &memStore{}).Generate(context.Background(), GenerateRequest{})
	assert.ErrorIs(t, err, boom)

	_, err = newGeminiGenerator(&fakeImageClient{asset: &genai.ImageAsset{}}, &memStore{}).Generate(context.Background(), GenerateRequest{})
	assert.Error(t, err)

	store := &memStore{err: errors.New("disk full")}
	_, err = newGeminiGenerator(&fakeImageClient{asset: &genai.ImageAsset{Data: []byte("x")}}, store).Generate(context.Background(), GenerateRequest{Slot: "section-01"})
	assert.ErrorContains(t, err, "section-01")
}

func TestBuildArticlePrompt(t *testing.T) {
	cover := BuildArticlePrompt(PromptInput{Title: "SEO Guide", Subject: "seo", ImageStyle: "flat vector"})
	assert.Contains(t, cover, `featured cover image for a blog article titled "SEO Guide"`)
	assert.Contains(t, cover, "flat vector")

	section := BuildArticlePrompt(PromptInput{Title: "SEO Guide", Subject: "seo", Section: "Keyword research", SubPoints: []string{"tools", " "}})
	assert.Contains(t, section, `blog section "Keyword research"`)
	assert.Contains(t, section, "The section covers: tools.")
	assert.True(t, strings.HasSuffix(section, DefaultNegativePrompt+"."))

	assert.Equal(t, "Illustration for Tools in Guide", AltText("Guide", "Tools"))
	assert.Equal(t, "Featured image for Guide", AltText("Guide", ""))
	assert.Equal(t, "Article illustration", AltText("", ""))
}
