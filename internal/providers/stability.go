package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"assetgen/internal/domain"
	"assetgen/internal/infra"
)

// StabilityOptions configures the Stability AI client.
type StabilityOptions struct {
	APIKey     string
	BaseURL    string
	Engine     string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Stability is the high-fidelity diffusion path for backgrounds and
// environments, and the default image fallback.
type Stability struct {
	apiKey     string
	baseURL    string
	engine     string
	httpClient *http.Client
	logger     infra.Logger
}

type stabilityTextPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type stabilityRequest struct {
	TextPrompts        []stabilityTextPrompt `json:"text_prompts"`
	CfgScale           int                   `json:"cfg_scale"`
	ClipGuidancePreset string                `json:"clip_guidance_preset"`
	Height             int                   `json:"height"`
	Width              int                   `json:"width"`
	Samples            int                   `json:"samples"`
	Steps              int                   `json:"steps"`
}

type stabilityResponse struct {
	Artifacts []struct {
		Base64 string `json:"base64"`
	} `json:"artifacts"`
}

// NewStability constructs a client with sane defaults.
func NewStability(opts StabilityOptions) *Stability {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.stability.ai/v1"
	}
	engine := strings.TrimSpace(opts.Engine)
	if engine == "" {
		engine = "stable-diffusion-xl-1024-v1-0"
	}
	logger := infra.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Stability{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		engine:     engine,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Name identifies the provider in routing tables and reports.
func (s *Stability) Name() string { return "stability" }

// Generate issues one text-to-image call and decodes the first artifact.
func (s *Stability) Generate(ctx context.Context, req domain.AssetRequest) (Artifact, error) {
	payload := stabilityRequest{
		TextPrompts: []stabilityTextPrompt{{
			Text:   fmt.Sprintf("%s, %s aesthetic, game environment, high quality", req.Prompt, req.Style),
			Weight: 1.0,
		}},
		CfgScale:           7,
		ClipGuidancePreset: "FAST_BLUE",
		Height:             req.Height,
		Width:              req.Width,
		Samples:            1,
		Steps:              30,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Artifact{}, fmt.Errorf("stability: encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/generation/%s/text-to-image", s.baseURL, s.engine)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Artifact{}, fmt.Errorf("stability: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return Artifact{}, fmt.Errorf("stability: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Artifact{}, fmt.Errorf("stability: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return Artifact{}, fmt.Errorf("stability: status %d: %w", resp.StatusCode, domain.ErrProviderFailure)
	}

	var decoded stabilityResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Artifact{}, fmt.Errorf("stability: decode response: %w", err)
	}
	if len(decoded.Artifacts) == 0 {
		return Artifact{}, fmt.Errorf("stability: %w", domain.ErrNoArtifact)
	}
	data, err := base64.StdEncoding.DecodeString(decoded.Artifacts[0].Base64)
	if err != nil {
		return Artifact{}, fmt.Errorf("stability: decode artifact: %w", err)
	}
	s.logger.Debug().Int("bytes", len(data)).Msg("stability: generated image")
	return Artifact{Data: data, Format: "png"}, nil
}

var _ Client = (*Stability)(nil)
