package providers

import (
	"context"

	"assetgen/internal/domain"
)

// Artifact carries the raw generated bytes plus the file extension the
// artifact store should persist them under.
type Artifact struct {
	Data   []byte
	Format string
}

// Client is the contract implemented by every generation provider. Clients
// keep no state between calls; a shared rate limiter is the only
// serialization point in front of them.
type Client interface {
	Name() string
	Generate(ctx context.Context, req domain.AssetRequest) (Artifact, error)
}
