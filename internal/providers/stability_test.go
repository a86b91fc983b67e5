package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"assetgen/internal/domain"
)

func backgroundRequest() domain.AssetRequest {
	return domain.AssetRequest{
		Prompt:   "neon alley",
		Type:     domain.AssetTypeImage,
		Category: "background",
		Style:    "cyberpunk",
		Width:    512,
		Height:   512,
	}
}

const stabilityPath = "/v1/generation/stable-diffusion-xl-1024-v1-0/text-to-image"

func TestStabilityGenerate(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x01}
	transport := newStubTransport()
	transport.setJSON(stabilityPath, http.StatusOK, map[string]any{
		"artifacts": []any{
			map[string]any{"base64": base64.StdEncoding.EncodeToString(payload)},
		},
	})

	client := NewStability(StabilityOptions{
		APIKey:     "key",
		BaseURL:    "https://stability.test/v1",
		HTTPClient: httpClientWith(transport),
	})
	artifact, err := client.Generate(context.Background(), backgroundRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !bytes.Equal(artifact.Data, payload) {
		t.Fatalf("decoded bytes mismatch")
	}
	if artifact.Format != "png" {
		t.Fatalf("format = %q, want png", artifact.Format)
	}

	var sent struct {
		TextPrompts []struct {
			Text   string  `json:"text"`
			Weight float64 `json:"weight"`
		} `json:"text_prompts"`
		Samples int `json:"samples"`
	}
	if err := json.Unmarshal(transport.lastBody(t), &sent); err != nil {
		t.Fatalf("decode sent payload: %v", err)
	}
	if len(sent.TextPrompts) != 1 || sent.TextPrompts[0].Weight != 1.0 {
		t.Fatalf("unexpected text prompts: %+v", sent.TextPrompts)
	}
	if sent.Samples != 1 {
		t.Fatalf("samples = %d, want 1", sent.Samples)
	}
}

func TestStabilityGenerateEmptyArtifacts(t *testing.T) {
	transport := newStubTransport()
	transport.setJSON(stabilityPath, http.StatusOK, map[string]any{"artifacts": []any{}})

	client := NewStability(StabilityOptions{
		BaseURL:    "https://stability.test/v1",
		HTTPClient: httpClientWith(transport),
	})
	_, err := client.Generate(context.Background(), backgroundRequest())
	if !errors.Is(err, domain.ErrNoArtifact) {
		t.Fatalf("got %v, want ErrNoArtifact", err)
	}
}

func TestStabilityGenerateNonSuccessStatus(t *testing.T) {
	transport := newStubTransport()
	transport.setJSON(stabilityPath, http.StatusInternalServerError, map[string]any{"message": "boom"})

	client := NewStability(StabilityOptions{
		BaseURL:    "https://stability.test/v1",
		HTTPClient: httpClientWith(transport),
	})
	_, err := client.Generate(context.Background(), backgroundRequest())
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("got %v, want ErrProviderFailure", err)
	}
}
