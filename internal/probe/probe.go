// Package probe checks that every external credential the service depends
// on actually works: each generation provider, the payment gateway and the
// auth provider's backend API.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/satishskid/gbseo/internal/ai"
	"golang.org/x/sync/errgroup"
)

// TestPrompt is sent to every configured generation provider.
const TestPrompt = "Generate 5 healthcare SEO keywords for telemedicine services in Mumbai, India targeting families with children."

const (
	defaultRazorpayURL = "https://api.razorpay.com/v1/payments"
	defaultClerkURL    = "https://api.clerk.com/v1/users"
	httpTimeout        = 15 * time.Second
	previewLength      = 100
)

// Status is the outcome of one check.
type Status string

const (
	StatusOK            Status = "ok"
	StatusFailed        Status = "failed"
	StatusNotConfigured Status = "not_configured"
)

// Check is the result of probing one credential.
type Check struct {
	Name     string        `json:"name"`
	Key      string        `json:"key,omitempty"`
	Status   Status        `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether the check passed.
func (c Check) OK() bool { return c.Status == StatusOK }

// Report collects every check from one Run.
type Report struct {
	Providers []Check `json:"providers"`
	Payments  Check   `json:"payments"`
	Auth      Check   `json:"auth"`
}

// WorkingProviders returns the provider checks that passed.
func (r Report) WorkingProviders() []Check {
	var ok []Check
	for _, c := range r.Providers {
		if c.OK() {
			ok = append(ok, c)
		}
	}
	return ok
}

// Ready reports whether the service can be deployed: at least one provider
// generates content and both the payment and auth credentials are valid.
func (r Report) Ready() bool {
	return len(r.WorkingProviders()) > 0 && r.Payments.OK() && r.Auth.OK()
}

// NextSteps lists what must be configured before the report is ready.
func (r Report) NextSteps() []string {
	var steps []string
	if len(r.WorkingProviders()) == 0 {
		steps = append(steps, "Configure at least one AI provider API key")
	}
	if !r.Payments.OK() {
		steps = append(steps, "Configure Razorpay credentials")
	}
	if !r.Auth.OK() {
		steps = append(steps, "Configure Clerk authentication")
	}
	return steps
}

// Options holds the non-provider credentials and endpoint overrides.
type Options struct {
	RazorpayKeyID     string
	RazorpayKeySecret string
	ClerkSecretKey    string

	// RazorpayURL and ClerkURL override the production endpoints.
	RazorpayURL string
	ClerkURL    string

	// HTTPClient is used for the payment and auth checks.
	HTTPClient *http.Client
}

// Prober runs credential checks.
type Prober struct {
	client *ai.Client
	opts   Options
	http   *http.Client
}

// New creates a Prober that checks generation providers through client.
func New(client *ai.Client, opts Options) *Prober {
	if opts.RazorpayURL == "" {
		opts.RazorpayURL = defaultRazorpayURL
	}
	if opts.ClerkURL == "" {
		opts.ClerkURL = defaultClerkURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: httpTimeout}
	}
	return &Prober{client: client, opts: opts, http: hc}
}

// Run performs every check concurrently. Individual failures are recorded
// in the report, never returned.
func (p *Prober) Run(ctx context.Context) Report {
	providers := p.client.Registry().Providers()
	report := Report{Providers: make([]Check, len(providers))}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)

	for i, prov := range providers {
		g.Go(func() error {
			c := p.checkProvider(ctx, prov)
			mu.Lock()
			report.Providers[i] = c
			mu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		c := p.checkRazorpay(ctx)
		mu.Lock()
		report.Payments = c
		mu.Unlock()
		return nil
	})
	g.Go(func() error {
		c := p.checkClerk(ctx)
		mu.Lock()
		report.Auth = c
		mu.Unlock()
		return nil
	})
	_ = g.Wait()

	return report
}

func (p *Prober) checkProvider(ctx context.Context, prov ai.Provider) Check {
	c := Check{Name: prov.Name(), Key: prov.Key()}
	if !prov.Configured() {
		c.Status = StatusNotConfigured
		c.Detail = "API key not configured"
		return c
	}

	start := time.Now()
	text, err := p.client.Complete(ctx, prov.Key(), TestPrompt)
	c.Duration = time.Since(start)
	if err != nil {
		c.Status = StatusFailed
		c.Detail = err.Error()
		return c
	}
	c.Status = StatusOK
	c.Detail = preview(text)
	return c
}

func (p *Prober) checkRazorpay(ctx context.Context) Check {
	c := Check{Name: "Razorpay"}
	if p.opts.RazorpayKeyID == "" || p.opts.RazorpayKeySecret == "" {
		c.Status = StatusNotConfigured
		c.Detail = "credentials not configured"
		return c
	}
	return p.get(ctx, c, p.opts.RazorpayURL, func(r *http.Request) {
		r.SetBasicAuth(p.opts.RazorpayKeyID, p.opts.RazorpayKeySecret)
	})
}

func (p *Prober) checkClerk(ctx context.Context) Check {
	c := Check{Name: "Clerk"}
	if p.opts.ClerkSecretKey == "" {
		c.Status = StatusNotConfigured
		c.Detail = "secret key not configured"
		return c
	}
	return p.get(ctx, c, p.opts.ClerkURL, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+p.opts.ClerkSecretKey)
		r.Header.Set("Content-Type", "application/json")
	})
}

// get issues an authenticated GET and passes the check on HTTP 200.
func (p *Prober) get(ctx context.Context, c Check, url string, authorize func(*http.Request)) Check {
	start := time.Now()
	err := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		authorize(req)

		resp, err := p.http.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return nil
	}()

	c.Duration = time.Since(start)
	if err != nil {
		c.Status = StatusFailed
		c.Detail = err.Error()
		return c
	}
	c.Status = StatusOK
	c.Detail = "API credentials valid"
	return c
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > previewLength {
		return string(r[:previewLength]) + "..."
	}
	return s
}

// Print writes a human-readable summary of r to w.
func (r Report) Print(w io.Writer) error {
	var errs []error
	printf := func(format string, args ...any) {
		if _, err := fmt.Fprintf(w, format, args...); err != nil {
			errs = append(errs, err)
		}
	}

	printf("AI content generation providers:\n")
	for _, c := range r.Providers {
		printf("  %s %s: %s\n", mark(c), c.Name, c.Detail)
	}
	printf("\nPayment gateway:\n  %s %s: %s\n", mark(r.Payments), r.Payments.Name, r.Payments.Detail)
	printf("\nAuthentication:\n  %s %s: %s\n", mark(r.Auth), r.Auth.Name, r.Auth.Detail)

	printf("\nSummary:\n")
	printf("  AI providers: %d/%d working\n", len(r.WorkingProviders()), len(r.Providers))
	if r.Ready() {
		printf("  Platform readiness: READY FOR DEPLOYMENT\n")
	} else {
		printf("  Platform readiness: NEEDS CONFIGURATION\n")
		for _, step := range r.NextSteps() {
			printf("    - %s\n", step)
		}
	}
	return errors.Join(errs...)
}

func mark(c Check) string {
	switch c.Status {
	case StatusOK:
		return "[ok]  "
	case StatusNotConfigured:
		return "[skip]"
	default:
		return "[fail]"
	}
}
