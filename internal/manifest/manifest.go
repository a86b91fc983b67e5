package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"assetgen/internal/domain"
)

const (
	// DefaultStyle is applied when a request omits the style modifier.
	DefaultStyle = "cyberpunk"
	// DefaultDimension is the fallback width and height in pixels.
	DefaultDimension = 512
	// DefaultDuration is the fallback clip length in seconds for audio requests.
	DefaultDuration = 2.0
	// DefaultQuality is the baseline generation quality.
	DefaultQuality = 0.8
)

// Manifest is the on-disk shape of an asset request file.
type Manifest struct {
	Assets []domain.AssetRequest `json:"assets"`
}

// Load reads a manifest file, applies defaults and validates every entry.
// Any invalid entry fails the whole load; generation never starts on a
// partially valid manifest.
func Load(path string) ([]domain.AssetRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: decode %s: %w", path, err)
	}
	for i := range m.Assets {
		Normalize(&m.Assets[i])
		if err := Validate(m.Assets[i]); err != nil {
			return nil, fmt.Errorf("manifest: asset %d: %w", i+1, err)
		}
	}
	if len(m.Assets) == 0 {
		return nil, fmt.Errorf("manifest: %s contains no asset requests", path)
	}
	return m.Assets, nil
}

// Normalize fills omitted optional fields with their documented defaults.
func Normalize(r *domain.AssetRequest) {
	if r == nil {
		return
	}
	if strings.TrimSpace(r.Style) == "" {
		r.Style = DefaultStyle
	}
	if r.Width <= 0 {
		r.Width = DefaultDimension
	}
	if r.Height <= 0 {
		r.Height = DefaultDimension
	}
	if r.Duration <= 0 {
		r.Duration = DefaultDuration
	}
	if r.Quality <= 0 {
		r.Quality = DefaultQuality
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
}

// Validate ensures a request satisfies the contract before any generation.
func Validate(r domain.AssetRequest) error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("prompt is required")
	}
	if !r.Type.Valid() {
		return fmt.Errorf("unknown asset type %q", r.Type)
	}
	if strings.TrimSpace(r.Category) == "" {
		return fmt.Errorf("category is required")
	}
	if r.Quality > 1 {
		return fmt.Errorf("quality must be between 0.0 and 1.0")
	}
	return nil
}
