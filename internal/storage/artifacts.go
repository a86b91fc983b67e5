package storage

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"assetgen/internal/domain"
	"assetgen/internal/infra"
)

// SidecarVersion is the schema version written into metadata sidecars.
const SidecarVersion = "1.0"

const metadataDir = "metadata"

// ArtifactStore derives artifact identifiers, writes generated bytes to a
// type-specific directory and records a JSON metadata sidecar next to them.
type ArtifactStore struct {
	fs     *FileStore
	logger infra.Logger
	now    func() time.Time
}

// Sidecar is the metadata document persisted alongside every artifact.
type Sidecar struct {
	GenerationService string              `json:"generation_service"`
	OriginalRequest   domain.AssetRequest `json:"original_request"`
	FileFormat        string              `json:"file_format"`
	FileSize          int64               `json:"file_size"`
	Checksum          string              `json:"checksum"`
	CreatedAt         time.Time           `json:"created_at"`
	Version           string              `json:"version"`
}

// NewArtifactStore initializes a store rooted at the generated-assets base
// directory.
func NewArtifactStore(basePath string, logger *infra.Logger) (*ArtifactStore, error) {
	fs, err := NewFileStore(basePath)
	if err != nil {
		return nil, err
	}
	log := infra.Nop()
	if logger != nil {
		log = *logger
	}
	return &ArtifactStore{fs: fs, logger: log, now: time.Now}, nil
}

// Save persists the artifact bytes and their sidecar, returning the completed
// asset record. The artifact file is written first; a sidecar write failure
// fails the whole save, so an item is never reported successful without its
// metadata on disk. The orphaned artifact file in that case is an accepted
// gap.
func (s *ArtifactStore) Save(ctx context.Context, req domain.AssetRequest, data []byte, format, provider string) (*domain.GeneratedAsset, error) {
	now := s.now()
	id := assetID(req, now)

	filePath, err := s.fs.Write(ctx, fmt.Sprintf("%s/%s.%s", req.Type, id, format), data)
	if err != nil {
		return nil, fmt.Errorf("save artifact %s: %w", id, err)
	}

	sum := sha256.Sum256(data)
	checksum := hex.EncodeToString(sum[:])

	sidecar := Sidecar{
		GenerationService: provider,
		OriginalRequest:   req,
		FileFormat:        format,
		FileSize:          int64(len(data)),
		Checksum:          checksum,
		CreatedAt:         now,
		Version:           SidecarVersion,
	}
	sidecarBytes, err := json.MarshalIndent(sidecar, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode sidecar %s: %w", id, err)
	}
	if _, err := s.fs.Write(ctx, fmt.Sprintf("%s/%s.json", metadataDir, id), sidecarBytes); err != nil {
		return nil, fmt.Errorf("save sidecar %s: %w", id, err)
	}

	s.logger.Debug().Str("asset_id", id).Str("path", filePath).Msg("storage: persisted artifact")

	return &domain.GeneratedAsset{
		ID:          id,
		Request:     req,
		FilePath:    filePath,
		ServiceUsed: provider,
		FileSize:    int64(len(data)),
		Checksum:    checksum,
		Metadata: map[string]any{
			"generation_service": provider,
			"original_request":   req,
			"file_format":        format,
			"file_size":          int64(len(data)),
			"checksum":           checksum,
			"created_at":         now,
			"version":            SidecarVersion,
		},
		CreatedAt: now,
	}, nil
}

// assetID derives the artifact identifier from the request content and a
// one-second timestamp bucket. The short hash covers only the request fields,
// not the output bytes: two generations of the same prompt within the same
// second collide, and identical bytes from different prompts never
// deduplicate. That weak-dedup behavior is intentional and kept as-is.
func assetID(req domain.AssetRequest, now time.Time) string {
	content := fmt.Sprintf("%s-%s-%s-%s", req.Prompt, req.Type, req.Category, req.Style)
	sum := md5.Sum([]byte(content))
	short := hex.EncodeToString(sum[:])[:8]
	return fmt.Sprintf("%s_%s_%s_%d", req.Type, req.Category, short, now.Unix())
}
