package providers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
)

type stubResponse struct {
	status int
	body   []byte
}

// stubTransport serves canned responses keyed by URL path (or full URL for
// cross-host downloads) and records every request it sees.
type stubTransport struct {
	mu        sync.Mutex
	responses map[string]stubResponse
	requests  []string
	bodies    [][]byte
}

func newStubTransport() *stubTransport {
	return &stubTransport{responses: map[string]stubResponse{}}
}

func (t *stubTransport) setJSON(key string, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses[key] = stubResponse{status: status, body: body}
}

func (t *stubTransport) setBinary(key string, status int, body []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses[key] = stubResponse{status: status, body: body}
}

func (t *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = append(t.requests, req.URL.Path)
	if req.Body != nil {
		body, _ := io.ReadAll(req.Body)
		t.bodies = append(t.bodies, body)
	} else {
		t.bodies = append(t.bodies, nil)
	}

	resp, ok := t.responses[req.URL.String()]
	if !ok {
		resp, ok = t.responses[req.URL.Path]
	}
	if !ok {
		resp = stubResponse{status: http.StatusNotFound, body: []byte("not found")}
	}
	return &http.Response{
		StatusCode: resp.status,
		Body:       io.NopCloser(bytes.NewReader(resp.body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

func (t *stubTransport) countRequests(path string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, p := range t.requests {
		if p == path {
			n++
		}
	}
	return n
}

func (t *stubTransport) lastBody(tb testing.TB) []byte {
	tb.Helper()
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.bodies) == 0 {
		tb.Fatalf("no request bodies captured")
	}
	return t.bodies[len(t.bodies)-1]
}

func httpClientWith(t *stubTransport) *http.Client {
	return &http.Client{Transport: t}
}
