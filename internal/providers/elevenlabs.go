package providers

import (
	"context"
	"fmt"

	"assetgen/internal/domain"
)

// ElevenLabs is the routing target for audio requests. SFX and music
// generation need endpoints this client does not speak yet, so every call
// yields the skip sentinel instead of attempting the network.
type ElevenLabs struct{}

// NewElevenLabs constructs the placeholder audio client.
func NewElevenLabs() *ElevenLabs {
	return &ElevenLabs{}
}

// Name identifies the provider in routing tables and reports.
func (e *ElevenLabs) Name() string { return "elevenlabs" }

// Generate reports the audio path as unsupported without a network call.
func (e *ElevenLabs) Generate(ctx context.Context, req domain.AssetRequest) (Artifact, error) {
	return Artifact{}, fmt.Errorf("elevenlabs: audio generation not implemented: %w", domain.ErrUnsupported)
}

var _ Client = (*ElevenLabs)(nil)
