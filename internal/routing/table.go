package routing

import (
	"fmt"

	"assetgen/internal/domain"
)

// Provider names used across the pipeline. They double as limiter and client
// registry keys.
const (
	ProviderNanoBanana = "nanobanana"
	ProviderStability  = "stability"
	ProviderMidjourney = "midjourney"
	ProviderElevenLabs = "elevenlabs"
)

// fallbackCategory is the table key matching any category not listed
// explicitly for a type.
const fallbackCategory = "*"

type route struct {
	Type     domain.AssetType
	Category string
}

// Table maps (type, category) pairs to provider names. The policy is data so
// new categories or providers are added here, not in dispatch code.
type Table map[route]string

// DefaultTable returns the routing policy shipped with the pipeline.
func DefaultTable() Table {
	return Table{
		{domain.AssetTypeImage, "sprite"}:         ProviderNanoBanana,
		{domain.AssetTypeImage, "character"}:      ProviderNanoBanana,
		{domain.AssetTypeImage, "background"}:     ProviderStability,
		{domain.AssetTypeImage, "environment"}:    ProviderStability,
		{domain.AssetTypeImage, "ui"}:             ProviderMidjourney,
		{domain.AssetTypeImage, "icon"}:           ProviderMidjourney,
		{domain.AssetTypeImage, fallbackCategory}: ProviderStability,
		{domain.AssetTypeAudio, fallbackCategory}: ProviderElevenLabs,
		// volumetric has no row: no provider is implemented for it.
	}
}

// Select resolves the provider responsible for a request. It is a pure
// function of (type, category); a request with no matching row and no
// fallback row yields domain.ErrUnsupported.
func (t Table) Select(req domain.AssetRequest) (string, error) {
	if provider, ok := t[route{req.Type, req.Category}]; ok {
		return provider, nil
	}
	if provider, ok := t[route{req.Type, fallbackCategory}]; ok {
		return provider, nil
	}
	return "", fmt.Errorf("routing: %s/%s: %w", req.Type, req.Category, domain.ErrUnsupported)
}
