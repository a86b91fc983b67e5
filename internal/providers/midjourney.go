package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"assetgen/internal/domain"
	"assetgen/internal/infra"
)

// MidjourneyOptions configures the Midjourney client. PollInterval and
// MaxPollAttempts default to 10s and 30 (a 300-second ceiling) and exist as
// options so tests can shrink them.
type MidjourneyOptions struct {
	APIKey          string
	BaseURL         string
	PollInterval    time.Duration
	MaxPollAttempts int
	HTTPClient      *http.Client
	Logger          *infra.Logger
}

// Midjourney is the slow, queued, style-driven path for UI and icon assets.
// Generation is two-phase: submit a job, then poll it to completion.
type Midjourney struct {
	apiKey       string
	baseURL      string
	pollInterval time.Duration
	maxAttempts  int
	httpClient   *http.Client
	logger       infra.Logger
}

type midjourneyImagineRequest struct {
	Prompt  string `json:"prompt"`
	Quality int    `json:"quality"`
	Fast    bool   `json:"fast"`
}

type midjourneyImagineResponse struct {
	JobID string `json:"job_id"`
}

type midjourneyJobResponse struct {
	Status   string `json:"status"`
	ImageURL string `json:"image_url"`
}

// NewMidjourney constructs a client with sane defaults.
func NewMidjourney(opts MidjourneyOptions) *Midjourney {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.midjourney.com/v1"
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	maxAttempts := opts.MaxPollAttempts
	if maxAttempts <= 0 {
		maxAttempts = 30
	}
	logger := infra.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Midjourney{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
		httpClient:   httpClient,
		logger:       logger,
	}
}

// Name identifies the provider in routing tables and reports.
func (m *Midjourney) Name() string { return "midjourney" }

// Generate submits a job and polls it until completion, explicit failure, or
// exhaustion of the attempt budget.
func (m *Midjourney) Generate(ctx context.Context, req domain.AssetRequest) (Artifact, error) {
	payload := midjourneyImagineRequest{
		Prompt:  fmt.Sprintf("%s --style %s --ar %d:%d --v 6", req.Prompt, req.Style, req.Width, req.Height),
		Quality: 1,
		Fast:    true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Artifact{}, fmt.Errorf("midjourney: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/imagine", bytes.NewReader(body))
	if err != nil {
		return Artifact{}, fmt.Errorf("midjourney: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return Artifact{}, fmt.Errorf("midjourney: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Artifact{}, fmt.Errorf("midjourney: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return Artifact{}, fmt.Errorf("midjourney: status %d: %w", resp.StatusCode, domain.ErrProviderFailure)
	}
	var decoded midjourneyImagineResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Artifact{}, fmt.Errorf("midjourney: decode response: %w", err)
	}
	if decoded.JobID == "" {
		return Artifact{}, fmt.Errorf("midjourney: empty job id: %w", domain.ErrProviderFailure)
	}

	data, err := m.pollJob(ctx, decoded.JobID)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Data: data, Format: "png"}, nil
}

// pollJob checks the job on a fixed interval. Transient network or decode
// errors during a single poll are logged and tolerated; only an explicit
// "failed" status or budget exhaustion terminates the loop early.
func (m *Midjourney) pollJob(ctx context.Context, jobID string) ([]byte, error) {
	for attempt := 0; attempt < m.maxAttempts; attempt++ {
		if err := sleepContext(ctx, m.pollInterval); err != nil {
			return nil, err
		}
		status, imageURL, err := m.checkJob(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			m.logger.Warn().Err(err).Str("job_id", jobID).Int("attempt", attempt+1).Msg("midjourney: poll error")
			continue
		}
		switch status {
		case "completed":
			return m.download(ctx, imageURL)
		case "failed":
			return nil, fmt.Errorf("midjourney: job %s reported failed: %w", jobID, domain.ErrProviderFailure)
		default:
			// Still queued or in progress.
		}
	}
	return nil, fmt.Errorf("midjourney: job %s: %w", jobID, domain.ErrTimeout)
}

func (m *Midjourney) checkJob(ctx context.Context, jobID string) (status, imageURL string, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/jobs/"+jobID, nil)
	if err != nil {
		return "", "", fmt.Errorf("midjourney: build poll request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return "", "", fmt.Errorf("midjourney: poll request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("midjourney: poll status %d", resp.StatusCode)
	}
	var decoded midjourneyJobResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", "", fmt.Errorf("midjourney: decode poll response: %w", err)
	}
	return decoded.Status, decoded.ImageURL, nil
}

func (m *Midjourney) download(ctx context.Context, imageURL string) ([]byte, error) {
	parsed, err := url.Parse(strings.TrimSpace(imageURL))
	if err != nil || parsed.Scheme == "" {
		return nil, fmt.Errorf("midjourney: invalid image url: %s", imageURL)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("midjourney: build download request: %w", err)
	}
	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("midjourney: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("midjourney: download status %d: %w", resp.StatusCode, domain.ErrProviderFailure)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("midjourney: read image: %w", err)
	}
	return data, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Client = (*Midjourney)(nil)
