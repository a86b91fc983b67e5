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

// NanoBananaOptions configures the NanoBanana client.
type NanoBananaOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// NanoBanana is the fast low-latency synthesis path for sprites and
// characters. One POST, inline base64 image in the response.
type NanoBanana struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     infra.Logger
}

type nanoBananaRequest struct {
	Prompt        string  `json:"prompt"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Steps         int     `json:"steps"`
	GuidanceScale float64 `json:"guidance_scale"`
	Format        string  `json:"format"`
}

type nanoBananaResponse struct {
	Image string `json:"image"`
}

// NewNanoBanana constructs a client with sane defaults.
func NewNanoBanana(opts NanoBananaOptions) *NanoBanana {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.nanobanana.com/v1"
	}
	logger := infra.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &NanoBanana{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Name identifies the provider in routing tables and reports.
func (n *NanoBanana) Name() string { return "nanobanana" }

// Generate performs a single synchronous generation call.
func (n *NanoBanana) Generate(ctx context.Context, req domain.AssetRequest) (Artifact, error) {
	payload := nanoBananaRequest{
		Prompt:        fmt.Sprintf("%s, %s style, game asset, clean background", req.Prompt, req.Style),
		Width:         req.Width,
		Height:        req.Height,
		Steps:         30,
		GuidanceScale: 7.5,
		Format:        "png",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Artifact{}, fmt.Errorf("nanobanana: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return Artifact{}, fmt.Errorf("nanobanana: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.httpClient.Do(httpReq)
	if err != nil {
		return Artifact{}, fmt.Errorf("nanobanana: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Artifact{}, fmt.Errorf("nanobanana: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return Artifact{}, fmt.Errorf("nanobanana: status %d: %w", resp.StatusCode, domain.ErrProviderFailure)
	}

	var decoded nanoBananaResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Artifact{}, fmt.Errorf("nanobanana: decode response: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(decoded.Image)
	if err != nil {
		return Artifact{}, fmt.Errorf("nanobanana: decode image payload: %w", err)
	}
	n.logger.Debug().Int("bytes", len(data)).Msg("nanobanana: generated image")
	return Artifact{Data: data, Format: "png"}, nil
}

var _ Client = (*NanoBanana)(nil)
