package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"articlegen/internal/domain"
)

func TestGenerateImageSyntheticIsDeterministic(t *testing.T) {
	c := NewClient(Options{})
	if !c.Synthetic() {
		t.Fatal("client without api key should be synthetic")
	}
	req := ImageRequest{Prompt: "a lighthouse", AspectRatio: "16:9", Seed: "job-1/featured"}
	first, err := c.GenerateImage(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	second, err := c.GenerateImage(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if !bytes.Equal(first.Data, second.Data) {
		t.Fatal("synthetic output should be deterministic")
	}
	if first.Width != 1792 || first.Height != 1008 || first.Format != "image/png" || !first.Synthetic {
		t.Fatalf("asset = %+v", first)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(first.Data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if cfg.Width != 1792 {
		t.Fatalf("png width = %d", cfg.Width)
	}
}

func TestGenerateImageRemote(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 4))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())

	var got geminiGenerateContentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "key" {
			t.Fatalf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{
					map[string]any{"text": "here you go"},
					map[string]any{"inlineData": map[string]any{"mimeType": "image/png", "data": encoded}},
				}},
			}},
		})
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "key", BaseURL: srv.URL})
	asset, err := c.GenerateImage(context.Background(), ImageRequest{Prompt: "cover", AspectRatio: "16:9"})
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if asset.Width != 8 || asset.Height != 4 || asset.Synthetic {
		t.Fatalf("asset = %+v", asset)
	}
	if got.GenerationConfig == nil || got.GenerationConfig.ImageConfig == nil || got.GenerationConfig.ImageConfig.AspectRatio != "16:9" {
		t.Fatalf("generation config = %+v", got.GenerationConfig)
	}
}

func TestGenerateImageRemoteFailureIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":503,"message":"overloaded"}}`))
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "key", BaseURL: srv.URL})
	_, err := c.GenerateImage(context.Background(), ImageRequest{Prompt: "cover"})
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("err = %v, want provider failure", err)
	}
}

func TestGenerateImageRemoteWithoutImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"sorry"}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "key", BaseURL: srv.URL})
	_, err := c.GenerateImage(context.Background(), ImageRequest{Prompt: "cover"})
	if !errors.Is(err, domain.ErrEmptyCompletion) {
		t.Fatalf("err = %v", err)
	}
}

func TestNormalizeAspect(t *testing.T) {
	cases := map[string][2]int{
		"":     {1024, 1024},
		"16:9": {1792, 1008},
		"2:1":  {1024, 512},
		"bad":  {1024, 1024},
	}
	for in, want := range cases {
		w, h := normalizeAspect(in)
		if w != want[0] || h != want[1] {
			t.Fatalf("normalizeAspect(%q) = %d,%d want %v", in, w, h, want)
		}
	}
}
