package tvmaze

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/google/go-cmp/cmp"

	"tvshows/internal/services"
	"tvshows/internal/testsupport"
)

const (
	bellePayload    = `{"id":82,"name":"Belle","status":"Running","network":{"name":"HBO","country":{"code":"US"}},"summary":"<p>A <b>drama</b> about <i>Belle</i>.</p>"}`
	sandyPayload    = `{"id":169,"name":"Sandy","status":"Ended","webChannel":{"name":"Netflix"}}`
	belleEpisodes   = `[{"id":1,"name":"Pilot","season":1,"number":1,"airdate":"2026-03-01"},{"id":2,"name":"Second","season":1,"number":2,"airdate":"2026-03-08"},{"id":3,"name":"Return","season":2,"number":1,"airdate":"2026-10-17"}]`
	sandyEpisodes   = `[{"id":10,"name":"Sandcastles","season":3,"number":4,"airdate":"2026-10-17"},{"id":11,"name":"Tide","season":3,"number":5,"airdate":"2026-10-18"}]`
	unairedEpisodes = `[{"id":20,"name":"TBA","season":1,"number":1,"airdate":""}]`
)

type fixtureServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newFixtureServer(t *testing.T, encoding string) *fixtureServer {
	t.Helper()
	routes := map[string]string{
		"/shows/82":           bellePayload,
		"/shows/169":          sandyPayload,
		"/shows/82/episodes":  belleEpisodes,
		"/shows/169/episodes": sandyEpisodes,
		"/shows/7":            `{"id":7,"name":"Unaired"}`,
		"/shows/7/episodes":   unairedEpisodes,
	}
	fs := &fixtureServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.hits.Add(1)
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"name":"Not Found","status":404}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if encoding == "br" {
			var buf bytes.Buffer
			bw := brotli.NewWriter(&buf)
			_, _ = bw.Write([]byte(body))
			_ = bw.Close()
			w.Header().Set("Content-Encoding", "br")
			_, _ = w.Write(buf.Bytes())
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(fs.Close)
	return fs
}

func newTestClient(t *testing.T, server *fixtureServer, opts ...Option) *Client {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithTVMazeURL(server.URL))
	opts = append([]Option{WithHTTPClient(server.Client())}, opts...)
	return NewClient(cfg, opts...)
}

func TestClientShowDecodesFields(t *testing.T) {
	server := newFixtureServer(t, "")
	client := newTestClient(t, server)

	show, err := client.Show(context.Background(), 82)
	if err != nil {
		t.Fatalf("Show returned error: %v", err)
	}
	if show.Name != "Belle" || show.Channel() != "HBO" || show.Country() != "US" {
		t.Fatalf("unexpected show: %+v", show)
	}
	if got := show.SummaryText(); got != "A drama about Belle." {
		t.Fatalf("unexpected summary text: %q", got)
	}

	sandy, err := client.Show(context.Background(), 169)
	if err != nil {
		t.Fatalf("Show returned error: %v", err)
	}
	if sandy.Channel() != "Netflix" || sandy.Country() != "" {
		t.Fatalf("unexpected web channel show: %+v", sandy)
	}
}

func TestClientDecodesBrotli(t *testing.T) {
	server := newFixtureServer(t, "br")
	client := newTestClient(t, server)

	show, err := client.Show(context.Background(), 82)
	if err != nil {
		t.Fatalf("Show returned error: %v", err)
	}
	if show.Name != "Belle" {
		t.Fatalf("unexpected show name %q", show.Name)
	}
}

func TestClientCachesResponsesInMemory(t *testing.T) {
	server := newFixtureServer(t, "")
	client := newTestClient(t, server)

	for range 3 {
		if _, err := client.Show(context.Background(), 82); err != nil {
			t.Fatalf("Show returned error: %v", err)
		}
	}
	if got := server.hits.Load(); got != 1 {
		t.Fatalf("expected a single request, got %d", got)
	}
}

type memoryResponses struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func (m *memoryResponses) GetResponse(_ context.Context, key string, _ time.Duration) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.entries[key]
	return body, ok, nil
}

func (m *memoryResponses) PutResponse(_ context.Context, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[key] = body
	return nil
}

func TestClientUsesPersistentCache(t *testing.T) {
	server := newFixtureServer(t, "")
	responses := &memoryResponses{}

	first := newTestClient(t, server, WithResponseCache(responses))
	if _, err := first.Show(context.Background(), 82); err != nil {
		t.Fatalf("Show returned error: %v", err)
	}
	if _, ok := responses.entries["/shows/82"]; !ok {
		t.Fatalf("expected response to be persisted, got keys %v", responses.entries)
	}

	second := newTestClient(t, server, WithResponseCache(responses))
	if _, err := second.Show(context.Background(), 82); err != nil {
		t.Fatalf("Show returned error: %v", err)
	}
	if got := server.hits.Load(); got != 1 {
		t.Fatalf("expected persistent cache to avoid a second request, got %d requests", got)
	}
}

func TestClientNotFound(t *testing.T) {
	server := newFixtureServer(t, "")
	client := newTestClient(t, server)

	_, err := client.Show(context.Background(), 404)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEpisodeHelpers(t *testing.T) {
	ep := Episode{ShowTitle: "Belle", Season: 2, Number: 9, Airdate: "2026-10-17", Summary: "<p>Line one<br>line two</p>"}
	if got := ep.Code(); got != "S02E09" {
		t.Fatalf("unexpected code %q", got)
	}
	if got := ep.ReleaseName(); got != "Belle S02E09" {
		t.Fatalf("unexpected release name %q", got)
	}
	day, ok := ep.AirDate()
	if !ok || day.Year() != 2026 || day.Month() != time.October || day.Day() != 17 {
		t.Fatalf("unexpected air date %v ok=%v", day, ok)
	}
	if _, ok := (Episode{}).AirDate(); ok {
		t.Fatal("expected missing airdate to report false")
	}
	if diff := cmp.Diff("Line oneline two", ep.SummaryText()); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}
