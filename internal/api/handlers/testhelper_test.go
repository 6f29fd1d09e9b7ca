package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/satishskid/gbseo/internal/ai"
	"github.com/satishskid/gbseo/internal/storage"
)

// newTestStore creates an in-memory SQLite store with migrations applied. It
// registers a cleanup function to close the database when the test completes.
func newTestStore(t *testing.T) *storage.Store {
	t.Helper()

	ctx := context.Background()
	db, err := storage.OpenDatabase(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(ctx, db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	return storage.NewStore(db)
}

// fakeProviders answers every provider under /<key>. Keys in failing get
// a 500; all others return "generated by <key>" after delay.
type fakeProviders struct {
	server *httptest.Server

	mu       sync.Mutex
	failing  map[string]bool
	delay    time.Duration
	calls    int
	lastBody string
}

func newFakeProviders(t *testing.T) *fakeProviders {
	t.Helper()
	f := &fakeProviders{failing: make(map[string]bool)}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/")
		body, _ := io.ReadAll(r.Body)

		f.mu.Lock()
		f.calls++
		f.lastBody = string(body)
		fail := f.failing[key]
		delay := f.delay
		f.mu.Unlock()

		time.Sleep(delay)

		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch key {
		case ai.KeyGroq, ai.KeyOpenAI:
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"generated by ` + key + `"}}]}`))
		default:
			w.WriteHeader(http.StatusNotImplemented)
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeProviders) fail(keys ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		f.failing[k] = true
	}
}

// slow makes every provider response wait d.
func (f *fakeProviders) slow(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

func (f *fakeProviders) lastRequest() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBody
}

func (f *fakeProviders) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// client builds a generation client whose listed providers are configured
// and pointed at the fake.
func (f *fakeProviders) client(t *testing.T, configured ...string) *ai.Client {
	t.Helper()
	cfgs := make(map[string]ai.ProviderConfig)
	for _, key := range ai.DefaultOrder {
		cfgs[key] = ai.ProviderConfig{Endpoint: f.server.URL + "/" + key}
	}
	for _, key := range configured {
		cfg := cfgs[key]
		cfg.APIKey = "test-" + key
		cfgs[key] = cfg
	}
	reg, err := ai.NewDefaultRegistry(cfgs)
	if err != nil {
		t.Fatalf("NewDefaultRegistry() error: %v", err)
	}
	return ai.NewClient(reg, ai.ClientOptions{})
}
