package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"assetgen/internal/domain"
	"assetgen/internal/infra"
	"assetgen/internal/providers"
	"assetgen/internal/ratelimit"
	"assetgen/internal/routing"
)

// Saver is the slice of the artifact store the orchestrator needs.
type Saver interface {
	Save(ctx context.Context, req domain.AssetRequest, data []byte, format, provider string) (*domain.GeneratedAsset, error)
}

// Options wires the orchestrator's collaborators. Limiters and clients are
// keyed by provider name; every concurrent item targeting a provider shares
// that provider's single limiter instance.
type Options struct {
	Table    routing.Table
	Clients  map[string]providers.Client
	Limiters map[string]*ratelimit.Limiter
	Store    Saver
	Logger   *infra.Logger
}

// Orchestrator fans a batch of asset requests out concurrently, isolates
// per-item failures and aggregates the successes into a session.
type Orchestrator struct {
	table    routing.Table
	clients  map[string]providers.Client
	limiters map[string]*ratelimit.Limiter
	store    Saver
	logger   infra.Logger
	now      func() time.Time
}

// New constructs an orchestrator.
func New(opts Options) *Orchestrator {
	logger := infra.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	table := opts.Table
	if table == nil {
		table = routing.DefaultTable()
	}
	return &Orchestrator{
		table:    table,
		clients:  opts.Clients,
		limiters: opts.Limiters,
		store:    opts.Store,
		logger:   logger,
		now:      time.Now,
	}
}

// Run processes every request independently and concurrently, then joins on
// all of them before assembling the session. One item's failure never aborts
// its siblings; the per-provider rate limiters are the only serialization
// points.
func (o *Orchestrator) Run(ctx context.Context, requests []domain.AssetRequest) *domain.Session {
	o.logger.Info().Int("count", len(requests)).Msg("batch: starting generation")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		assets  []domain.GeneratedAsset
		failed  int
		skipped int
	)
	for _, req := range requests {
		wg.Add(1)
		go func(req domain.AssetRequest) {
			defer wg.Done()
			asset, err := o.processOne(ctx, req)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				assets = append(assets, *asset)
			case errors.Is(err, domain.ErrUnsupported):
				skipped++
			default:
				failed++
			}
		}(req)
	}
	wg.Wait()

	session := &domain.Session{
		ID:        uuid.NewString(),
		Timestamp: o.now(),
		Requested: len(requests),
		Succeeded: len(assets),
		Failed:    failed,
		Skipped:   skipped,
		Assets:    assets,
	}
	o.logger.Info().
		Int("requested", session.Requested).
		Int("succeeded", session.Succeeded).
		Int("failed", session.Failed).
		Int("skipped", session.Skipped).
		Msg("batch: generation finished")
	return session
}

// processOne drives a single request from routing to persistence. All errors
// are returned to the caller, which folds them into the session counts; a
// domain.ErrUnsupported anywhere in the chain records a skip rather than a
// failure.
func (o *Orchestrator) processOne(ctx context.Context, req domain.AssetRequest) (*domain.GeneratedAsset, error) {
	prompt := truncatePrompt(req.Prompt)
	provider, err := o.table.Select(req)
	if err != nil {
		o.logger.Info().Str("type", string(req.Type)).Str("category", req.Category).Str("prompt", prompt).Msg("item: skipped, no provider")
		return nil, err
	}
	client, ok := o.clients[provider]
	if !ok {
		o.logger.Info().Str("provider", provider).Str("prompt", prompt).Msg("item: skipped, provider not configured")
		return nil, fmt.Errorf("provider %s not configured: %w", provider, domain.ErrUnsupported)
	}

	o.logger.Info().Str("provider", provider).Str("prompt", prompt).Msg("item: started")
	start := o.now()

	if limiter, ok := o.limiters[provider]; ok {
		if err := limiter.Acquire(ctx); err != nil {
			o.logger.Error().Err(err).Str("provider", provider).Str("prompt", prompt).Msg("item: failed waiting for rate limit")
			return nil, err
		}
	}

	artifact, err := client.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupported) {
			o.logger.Info().Str("provider", provider).Str("prompt", prompt).Msg("item: skipped, unsupported")
			return nil, err
		}
		o.logger.Error().Err(err).Str("provider", provider).Str("prompt", prompt).Msg("item: failed")
		return nil, err
	}

	asset, err := o.store.Save(ctx, req, artifact.Data, artifact.Format, provider)
	if err != nil {
		o.logger.Error().Err(err).Str("provider", provider).Str("prompt", prompt).Msg("item: failed to persist")
		return nil, err
	}
	asset.GenerationTime = o.now().Sub(start).Seconds()

	o.logger.Info().
		Str("asset_id", asset.ID).
		Str("provider", provider).
		Float64("seconds", asset.GenerationTime).
		Msg("item: succeeded")
	return asset, nil
}

func truncatePrompt(prompt string) string {
	const max = 50
	if len(prompt) <= max {
		return prompt
	}
	return prompt[:max] + "..."
}
