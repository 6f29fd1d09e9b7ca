package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/satishskid/gbseo/internal/models"
)

// successBodies holds a well-formed response for each provider.
var successBodies = map[string]string{
	KeyGroq:        `{"choices":[{"message":{"content":"from groq"}}]}`,
	KeyGoogle:      `{"candidates":[{"content":{"parts":[{"text":"from google"}]}}]}`,
	KeyHuggingFace: `[{"generated_text":"from huggingface"}]`,
	KeyCohere:      `{"generations":[{"text":"from cohere"}]}`,
	KeyOpenAI:      `{"choices":[{"message":{"content":"from openai"}}]}`,
	KeyAnthropic:   `{"content":[{"text":"from anthropic"}]}`,
}

// fakeUpstream serves every provider under /<key> and counts calls.
type fakeUpstream struct {
	server *httptest.Server

	mu     sync.Mutex
	status map[string]int
	hits   map[string]int
	order  []string
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{
		status: make(map[string]int),
		hits:   make(map[string]int),
	}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/")

		f.mu.Lock()
		f.hits[key]++
		f.order = append(f.order, key)
		status, ok := f.status[key]
		f.mu.Unlock()

		if r.Method != http.MethodPost {
			t.Errorf("%s: got method %s, want POST", key, r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s: got Content-Type %q", key, ct)
		}

		if !ok {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(successBodies[key]))
		}
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeUpstream) fail(keys ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		f.status[k] = http.StatusInternalServerError
	}
}

func (f *fakeUpstream) hitCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func (f *fakeUpstream) totalHits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}

// registry builds the default registry pointed at the fake upstream. Only
// the listed keys receive a credential.
func (f *fakeUpstream) registry(t *testing.T, configured ...string) *Registry {
	t.Helper()
	cfgs := make(map[string]ProviderConfig, len(DefaultOrder))
	for _, key := range DefaultOrder {
		cfgs[key] = ProviderConfig{Endpoint: f.server.URL + "/" + key}
	}
	for _, key := range configured {
		cfg := cfgs[key]
		cfg.APIKey = "test-" + key
		cfgs[key] = cfg
	}
	reg, err := NewDefaultRegistry(cfgs)
	if err != nil {
		t.Fatalf("NewDefaultRegistry() error: %v", err)
	}
	return reg
}

func keywordRequest() models.ContentRequest {
	return models.ContentRequest{Type: models.ContentKeywords, Business: skidsHealth()}
}

func TestGenerate_FallsBackToSixthProvider(t *testing.T) {
	up := newFakeUpstream(t)
	up.fail(KeyGroq, KeyGoogle, KeyHuggingFace, KeyCohere, KeyOpenAI)
	client := NewClient(up.registry(t, DefaultOrder...), ClientOptions{})

	result := client.Generate(context.Background(), keywordRequest())

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.Provider != "Claude" {
		t.Errorf("Provider = %q, want %q", result.Provider, "Claude")
	}
	if result.ProviderKey != KeyAnthropic {
		t.Errorf("ProviderKey = %q, want %q", result.ProviderKey, KeyAnthropic)
	}
	if result.Content != "from anthropic" {
		t.Errorf("Content = %q", result.Content)
	}
	if len(result.Attempts) != 6 {
		t.Fatalf("got %d attempts, want 6", len(result.Attempts))
	}
	for i, a := range result.Attempts[:5] {
		if a.Error == "" || a.Provider != DefaultOrder[i] {
			t.Errorf("attempt %d = %+v, want failure from %s", i, a, DefaultOrder[i])
		}
	}
	if up.totalHits() != 6 {
		t.Errorf("got %d upstream calls, want 6", up.totalHits())
	}
}

func TestGenerate_AllProvidersFail(t *testing.T) {
	up := newFakeUpstream(t)
	up.fail(DefaultOrder...)
	client := NewClient(up.registry(t, DefaultOrder...), ClientOptions{})

	result := client.Generate(context.Background(), keywordRequest())

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Content != "" {
		t.Errorf("Content = %q, want empty", result.Content)
	}
	if !strings.Contains(result.Error, ErrAllProvidersFailed.Error()) {
		t.Errorf("Error = %q, want it to mention exhaustion", result.Error)
	}
	if !strings.Contains(result.Error, "500") {
		t.Errorf("Error = %q, want last provider failure attached", result.Error)
	}
	if up.totalHits() != len(DefaultOrder) {
		t.Errorf("got %d upstream calls, want exactly %d", up.totalHits(), len(DefaultOrder))
	}
	for _, key := range DefaultOrder {
		if up.hitCount(key) != 1 {
			t.Errorf("%s called %d times, want 1", key, up.hitCount(key))
		}
	}
	if client.Cursor() != 0 {
		t.Errorf("cursor = %d, want wrap-around back to 0", client.Cursor())
	}
}

func TestGenerate_OnlyOneConfiguredProvider(t *testing.T) {
	for start := range len(DefaultOrder) {
		up := newFakeUpstream(t)
		client := NewClient(up.registry(t, KeyCohere), ClientOptions{})

		result, _ := client.Dispatch(context.Background(), keywordRequest(), start)

		if !result.Success || result.ProviderKey != KeyCohere {
			t.Errorf("start %d: got %+v, want success from cohere", start, result)
		}
		if up.totalHits() != 1 || up.hitCount(KeyCohere) != 1 {
			t.Errorf("start %d: unconfigured providers were called: total=%d", start, up.totalHits())
		}
	}
}

func TestGenerate_OnlyConfiguredProviderFails(t *testing.T) {
	up := newFakeUpstream(t)
	up.fail(KeyOpenAI)
	client := NewClient(up.registry(t, KeyOpenAI), ClientOptions{})

	result := client.Generate(context.Background(), keywordRequest())

	if result.Success {
		t.Fatal("expected failure when the only configured provider fails")
	}
	if up.totalHits() != 1 {
		t.Errorf("got %d upstream calls, want 1", up.totalHits())
	}
	skipped := 0
	for _, a := range result.Attempts {
		if a.Skipped {
			skipped++
		}
	}
	if skipped != 5 {
		t.Errorf("got %d skipped attempts, want 5", skipped)
	}
}

func TestGenerate_NoCredentials(t *testing.T) {
	up := newFakeUpstream(t)
	client := NewClient(up.registry(t), ClientOptions{})

	result := client.Generate(context.Background(), keywordRequest())

	if result.Success {
		t.Fatal("expected failure with no credentials")
	}
	if !strings.Contains(result.Error, ErrNotConfigured.Error()) {
		t.Errorf("Error = %q, want not-configured reason", result.Error)
	}
	if up.totalHits() != 0 {
		t.Errorf("got %d upstream calls, want 0", up.totalHits())
	}
}

func TestGenerate_EmptyContentFallsBack(t *testing.T) {
	up := newFakeUpstream(t)
	successBodiesBackup := successBodies[KeyGroq]
	successBodies[KeyGroq] = `{"choices":[{"message":{"content":"   "}}]}`
	t.Cleanup(func() { successBodies[KeyGroq] = successBodiesBackup })

	client := NewClient(up.registry(t, KeyGroq, KeyGoogle), ClientOptions{})
	result := client.Generate(context.Background(), keywordRequest())

	if !result.Success || result.ProviderKey != KeyGoogle {
		t.Fatalf("got %+v, want fallback to google", result)
	}
	if result.Attempts[0].Error != ErrEmptyContent.Error() {
		t.Errorf("first attempt error = %q, want %q", result.Attempts[0].Error, ErrEmptyContent.Error())
	}
}

func TestRotationPolicies(t *testing.T) {
	tests := []struct {
		name       string
		policy     RotationPolicy
		wantCursor int
		wantSecond string
	}{
		{"sticky keeps successful provider", RotationSticky, 1, KeyGoogle},
		{"round robin advances past success", RotationRoundRobin, 2, KeyHuggingFace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := newFakeUpstream(t)
			up.fail(KeyGroq)
			client := NewClient(up.registry(t, DefaultOrder...), ClientOptions{Rotation: tt.policy})

			first := client.Generate(context.Background(), keywordRequest())
			if !first.Success || first.ProviderKey != KeyGoogle {
				t.Fatalf("first call got %+v, want google", first)
			}
			if client.Cursor() != tt.wantCursor {
				t.Errorf("cursor = %d, want %d", client.Cursor(), tt.wantCursor)
			}

			second := client.Generate(context.Background(), keywordRequest())
			if second.ProviderKey != tt.wantSecond {
				t.Errorf("second call provider = %q, want %q", second.ProviderKey, tt.wantSecond)
			}
			if up.hitCount(KeyGroq) != 1 {
				t.Errorf("groq called %d times, want 1", up.hitCount(KeyGroq))
			}
		})
	}
}

func TestDispatch_ExplicitCursor(t *testing.T) {
	up := newFakeUpstream(t)
	client := NewClient(up.registry(t, DefaultOrder...), ClientOptions{Rotation: RotationRoundRobin})

	result, next := client.Dispatch(context.Background(), keywordRequest(), 4)
	if result.ProviderKey != KeyOpenAI {
		t.Errorf("provider = %q, want openai", result.ProviderKey)
	}
	if next != 5 {
		t.Errorf("next = %d, want 5", next)
	}

	result, next = client.Dispatch(context.Background(), keywordRequest(), 5)
	if result.ProviderKey != KeyAnthropic || next != 0 {
		t.Errorf("got %s next=%d, want anthropic next=0", result.ProviderKey, next)
	}

	if client.Cursor() != 0 {
		t.Error("Dispatch must not touch the shared cursor")
	}
}

func TestDispatch_NegativeAndLargeStart(t *testing.T) {
	up := newFakeUpstream(t)
	client := NewClient(up.registry(t, DefaultOrder...), ClientOptions{})

	if r, _ := client.Dispatch(context.Background(), keywordRequest(), -1); r.ProviderKey != KeyAnthropic {
		t.Errorf("start -1 provider = %q, want anthropic", r.ProviderKey)
	}
	if r, _ := client.Dispatch(context.Background(), keywordRequest(), 7); r.ProviderKey != KeyGoogle {
		t.Errorf("start 7 provider = %q, want google", r.ProviderKey)
	}
}

func TestDispatch_UnknownContentType(t *testing.T) {
	up := newFakeUpstream(t)
	client := NewClient(up.registry(t, DefaultOrder...), ClientOptions{})

	result, next := client.Dispatch(context.Background(), models.ContentRequest{Type: "poetry"}, 3)
	if result.Success || result.Error == "" {
		t.Errorf("got %+v, want failure", result)
	}
	if next != 3 {
		t.Errorf("next = %d, want cursor unchanged", next)
	}
	if up.totalHits() != 0 {
		t.Error("no provider should be called for an unknown type")
	}
}

func TestDispatch_CancelledContext(t *testing.T) {
	up := newFakeUpstream(t)
	client := NewClient(up.registry(t, DefaultOrder...), ClientOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, _ := client.Dispatch(ctx, keywordRequest(), 0)
	if result.Success {
		t.Fatal("expected failure on cancelled context")
	}
	if !strings.Contains(result.Error, "cancelled") {
		t.Errorf("Error = %q, want cancellation", result.Error)
	}
	if up.totalHits() != 0 {
		t.Errorf("got %d upstream calls after cancellation", up.totalHits())
	}
}

func TestAttemptTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)

	up := newFakeUpstream(t)
	reg, err := NewRegistry(
		NewGroqProvider("k", "", slow.URL),
		NewOpenAIProvider("k", "", up.server.URL+"/"+KeyOpenAI),
	)
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	client := NewClient(reg, ClientOptions{AttemptTimeout: 100 * time.Millisecond})

	start := time.Now()
	result := client.Generate(context.Background(), keywordRequest())
	if !result.Success || result.ProviderKey != KeyOpenAI {
		t.Fatalf("got %+v, want fallback to openai after timeout", result)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("fallback took %v, attempt timeout not applied", elapsed)
	}
}

func TestConvenienceWrappers(t *testing.T) {
	up := newFakeUpstream(t)
	client := NewClient(up.registry(t, KeyGroq), ClientOptions{})
	ctx := context.Background()
	profile := skidsHealth()

	wrappers := map[string]func(context.Context, models.BusinessProfile) models.GenerationResult{
		"keywords":   client.GenerateKeywords,
		"content":    client.GenerateContentStrategy,
		"social":     client.GenerateSocialMedia,
		"technical":  client.GenerateTechnicalSEO,
		"conversion": client.GenerateConversionStrategy,
	}
	for name, fn := range wrappers {
		if r := fn(ctx, profile); !r.Success {
			t.Errorf("%s: got error %q", name, r.Error)
		}
	}
}

func TestComplete(t *testing.T) {
	up := newFakeUpstream(t)
	client := NewClient(up.registry(t, KeyCohere), ClientOptions{})

	text, err := client.Complete(context.Background(), KeyCohere, "ping")
	if err != nil || text != "from cohere" {
		t.Errorf("Complete(cohere) = %q, %v", text, err)
	}

	if _, err := client.Complete(context.Background(), KeyOpenAI, "ping"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Complete(openai) error = %v, want ErrNotConfigured", err)
	}
	if _, err := client.Complete(context.Background(), "bogus", "ping"); err == nil {
		t.Error("Complete(bogus) should fail")
	}
}

func TestRegistry(t *testing.T) {
	reg, err := NewDefaultRegistry(map[string]ProviderConfig{
		KeyOpenAI: {APIKey: "k"},
	})
	if err != nil {
		t.Fatalf("NewDefaultRegistry() error: %v", err)
	}

	if reg.Len() != len(DefaultOrder) {
		t.Errorf("Len() = %d, want %d", reg.Len(), len(DefaultOrder))
	}
	for i, p := range reg.Providers() {
		if p.Key() != DefaultOrder[i] {
			t.Errorf("provider %d = %q, want %q", i, p.Key(), DefaultOrder[i])
		}
	}
	if reg.ConfiguredCount() != 1 {
		t.Errorf("ConfiguredCount() = %d, want 1", reg.ConfiguredCount())
	}
	if p, ok := reg.Lookup(KeyOpenAI); !ok || !p.Configured() {
		t.Error("Lookup(openai) should return the configured provider")
	}
	if _, ok := reg.Lookup("bogus"); ok {
		t.Error("Lookup(bogus) should fail")
	}

	if _, err := NewDefaultRegistry(map[string]ProviderConfig{"bogus": {}}); err == nil {
		t.Error("unknown provider key should be rejected")
	}
	if _, err := NewRegistry(NewGroqProvider("", "", ""), NewGroqProvider("", "", "")); err == nil {
		t.Error("duplicate keys should be rejected")
	}
}
