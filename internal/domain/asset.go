package domain

import "time"

// AssetType enumerates supported asset categories.
type AssetType string

const (
	AssetTypeImage      AssetType = "image"
	AssetTypeVolumetric AssetType = "volumetric"
	AssetTypeAudio      AssetType = "audio"
)

// Valid reports whether the type is one of the recognized kinds.
func (t AssetType) Valid() bool {
	switch t {
	case AssetTypeImage, AssetTypeVolumetric, AssetTypeAudio:
		return true
	}
	return false
}

// AssetRequest describes one desired artifact. Requests are normalized and
// validated at manifest load time and treated as immutable afterwards.
type AssetRequest struct {
	Prompt   string         `json:"prompt"`
	Type     AssetType      `json:"type"`
	Category string         `json:"category"`
	Style    string         `json:"style"`
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	Duration float64        `json:"duration"`
	Quality  float64        `json:"quality"`
	Tags     []string       `json:"tags"`
	Metadata map[string]any `json:"metadata"`
}

// GeneratedAsset records one successful generation. It is constructed exactly
// once by the artifact store and not mutated after the orchestrator stamps the
// generation time.
type GeneratedAsset struct {
	ID             string         `json:"id"`
	Request        AssetRequest   `json:"request"`
	FilePath       string         `json:"file_path"`
	ServiceUsed    string         `json:"service_used"`
	GenerationTime float64        `json:"generation_time"`
	FileSize       int64          `json:"file_size"`
	Checksum       string         `json:"checksum"`
	Metadata       map[string]any `json:"metadata"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Session summarizes one batch invocation. It is written once to the report
// file and not mutated afterwards.
type Session struct {
	ID        string           `json:"session_id"`
	Timestamp time.Time        `json:"timestamp"`
	Requested int              `json:"total_assets"`
	Succeeded int              `json:"successful_generations"`
	Failed    int              `json:"failed_generations"`
	Skipped   int              `json:"skipped_generations"`
	Assets    []GeneratedAsset `json:"assets"`
}
