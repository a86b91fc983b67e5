package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"assetgen/internal/domain"
	"assetgen/internal/providers"
	"assetgen/internal/routing"
	"assetgen/internal/storage"
)

// stubClient returns a fixed artifact or error and counts its calls.
type stubClient struct {
	name     string
	artifact providers.Artifact
	err      error

	mu    sync.Mutex
	calls int
}

func (c *stubClient) Name() string { return c.name }

func (c *stubClient) Generate(ctx context.Context, req domain.AssetRequest) (providers.Artifact, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.err != nil {
		return providers.Artifact{}, c.err
	}
	return c.artifact, nil
}

func (c *stubClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// failingSaver simulates a persistence error after generation succeeded.
type failingSaver struct{}

func (failingSaver) Save(ctx context.Context, req domain.AssetRequest, data []byte, format, provider string) (*domain.GeneratedAsset, error) {
	return nil, errors.New("disk full")
}

func newTestStore(t *testing.T) *storage.ArtifactStore {
	t.Helper()
	store, err := storage.NewArtifactStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new artifact store: %v", err)
	}
	return store
}

func imageRequest(category, prompt string) domain.AssetRequest {
	return domain.AssetRequest{
		Prompt:   prompt,
		Type:     domain.AssetTypeImage,
		Category: category,
		Style:    "cyberpunk",
		Width:    512,
		Height:   512,
	}
}

func TestRunMixedBatchCounts(t *testing.T) {
	ok := &stubClient{name: routing.ProviderStability, artifact: providers.Artifact{Data: []byte{0x01}, Format: "png"}}
	failing := &stubClient{name: routing.ProviderNanoBanana, err: errors.New("synthesis exploded")}

	orch := New(Options{
		Clients: map[string]providers.Client{
			routing.ProviderStability:  ok,
			routing.ProviderNanoBanana: failing,
			routing.ProviderElevenLabs: providers.NewElevenLabs(),
		},
		Store: newTestStore(t),
	})

	requests := []domain.AssetRequest{
		imageRequest("background", "neon alley"),
		imageRequest("environment", "rainy rooftop"),
		imageRequest("sprite", "pixel hero"),
		imageRequest("sprite", "pixel villain"),
		{Prompt: "a crate", Type: domain.AssetTypeVolumetric, Category: "prop"},
		{Prompt: "laser zap", Type: domain.AssetTypeAudio, Category: "sfx"},
	}
	session := orch.Run(context.Background(), requests)

	if session.Requested != 6 {
		t.Fatalf("requested = %d, want 6", session.Requested)
	}
	if session.Succeeded != 2 || len(session.Assets) != 2 {
		t.Fatalf("succeeded = %d (assets %d), want 2", session.Succeeded, len(session.Assets))
	}
	if session.Failed != 2 {
		t.Fatalf("failed = %d, want 2", session.Failed)
	}
	if session.Skipped != 2 {
		t.Fatalf("skipped = %d, want 2", session.Skipped)
	}
	if ok.callCount() != 2 || failing.callCount() != 2 {
		t.Fatalf("call counts: ok %d, failing %d, want 2 each", ok.callCount(), failing.callCount())
	}
	for _, asset := range session.Assets {
		if asset.ServiceUsed != routing.ProviderStability {
			t.Fatalf("asset %s used %q, want stability", asset.ID, asset.ServiceUsed)
		}
		if asset.GenerationTime < 0 {
			t.Fatalf("asset %s has negative generation time", asset.ID)
		}
	}
}

func TestRunBackgroundScenario(t *testing.T) {
	stub := &stubClient{name: routing.ProviderStability, artifact: providers.Artifact{Data: []byte{0x89, 'P', 'N', 'G'}, Format: "png"}}
	orch := New(Options{
		Clients: map[string]providers.Client{routing.ProviderStability: stub},
		Store:   newTestStore(t),
	})

	session := orch.Run(context.Background(), []domain.AssetRequest{imageRequest("background", "neon alley")})
	if session.Succeeded != 1 {
		t.Fatalf("succeeded = %d, want 1", session.Succeeded)
	}
	asset := session.Assets[0]
	if asset.ServiceUsed != "stability" {
		t.Fatalf("service = %q, want stability", asset.ServiceUsed)
	}
	if !strings.HasSuffix(asset.FilePath, ".png") {
		t.Fatalf("file path %q missing png extension", asset.FilePath)
	}
	if asset.Request.Prompt != "neon alley" {
		t.Fatalf("asset not traceable to its request: %+v", asset.Request)
	}
}

func TestRunAudioIsAlwaysSkipped(t *testing.T) {
	orch := New(Options{
		Clients: map[string]providers.Client{routing.ProviderElevenLabs: providers.NewElevenLabs()},
		Store:   newTestStore(t),
	})
	session := orch.Run(context.Background(), []domain.AssetRequest{
		{Prompt: "boss theme", Type: domain.AssetTypeAudio, Category: "music"},
	})
	if session.Skipped != 1 || session.Succeeded != 0 || session.Failed != 0 {
		t.Fatalf("audio request: got %d/%d/%d succeeded/failed/skipped, want 0/0/1",
			session.Succeeded, session.Failed, session.Skipped)
	}
	if len(session.Assets) != 0 {
		t.Fatalf("skipped item must not appear in the asset list")
	}
}

func TestRunPersistenceFailureIsItemFailure(t *testing.T) {
	stub := &stubClient{name: routing.ProviderStability, artifact: providers.Artifact{Data: []byte{0x01}, Format: "png"}}
	orch := New(Options{
		Clients: map[string]providers.Client{routing.ProviderStability: stub},
		Store:   failingSaver{},
	})
	session := orch.Run(context.Background(), []domain.AssetRequest{imageRequest("background", "neon alley")})
	if session.Failed != 1 || session.Succeeded != 0 {
		t.Fatalf("persistence error: got %d failed / %d succeeded, want 1/0", session.Failed, session.Succeeded)
	}
}

func TestRunFailureDoesNotAbortSiblings(t *testing.T) {
	ok := &stubClient{name: routing.ProviderStability, artifact: providers.Artifact{Data: []byte{0x01}, Format: "png"}}
	failing := &stubClient{name: routing.ProviderNanoBanana, err: errors.New("boom")}
	orch := New(Options{
		Clients: map[string]providers.Client{
			routing.ProviderStability:  ok,
			routing.ProviderNanoBanana: failing,
		},
		Store: newTestStore(t),
	})

	var requests []domain.AssetRequest
	for i := 0; i < 10; i++ {
		requests = append(requests, imageRequest("sprite", "doomed"))
		requests = append(requests, imageRequest("background", "fine"))
	}
	session := orch.Run(context.Background(), requests)
	if session.Succeeded != 10 || session.Failed != 10 {
		t.Fatalf("got %d succeeded / %d failed, want 10/10", session.Succeeded, session.Failed)
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "report.json")
	session := &domain.Session{
		ID:        "session-1",
		Requested: 3,
		Succeeded: 1,
		Failed:    1,
		Skipped:   1,
		Assets: []domain.GeneratedAsset{{
			ID:          "image_background_abcd1234_1700000000",
			ServiceUsed: "stability",
		}},
	}
	if err := WriteReport(session, path); err != nil {
		t.Fatalf("write report: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded domain.Session
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if decoded.Requested != 3 || decoded.Succeeded != 1 {
		t.Fatalf("report counts mismatch: %+v", decoded)
	}
	if len(decoded.Assets) != 1 || decoded.Assets[0].ServiceUsed != "stability" {
		t.Fatalf("report assets mismatch: %+v", decoded.Assets)
	}
}

func TestDefaultReportPath(t *testing.T) {
	got := DefaultReportPath("/tmp/project")
	want := filepath.Join("/tmp/project", "assets", "generated", "generation_report.json")
	if got != want {
		t.Fatalf("default report path = %q, want %q", got, want)
	}
}
