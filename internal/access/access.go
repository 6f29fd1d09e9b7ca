// Package access decides what a signed-in user is entitled to.
//
// Entitlement has three levels: no identity, internal team member (listed in
// the configured allow-list) and external user. External users get a small
// free allowance of successful generations, or a paid plan once the payment
// gateway is enabled.
package access

import "strings"

// Level is a caller's entitlement tier.
type Level string

const (
	LevelNone     Level = "none"
	LevelInternal Level = "internal"
	LevelExternal Level = "external"
)

// Feature names reported in a Subscription.
const (
	FeatureUnlimitedGenerations = "unlimited_generations"
	FeatureAllBusinessTypes     = "all_business_types"
	FeaturePrioritySupport      = "priority_support"
	FeatureLimitedGenerations   = "limited_generations"
	FeatureBasicGeneration      = "basic_generation"
)

// Access is the resolved entitlement for one caller.
type Access struct {
	Level                 Level  `json:"level"`
	Email                 string `json:"email,omitempty"`
	IsInternalTeam        bool   `json:"is_internal_team"`
	PaymentGatewayEnabled bool   `json:"payment_gateway_enabled"`
	HasFullAccess         bool   `json:"has_full_access"`
}

// Subscription is the plan view derived from an Access.
type Subscription struct {
	Plan     string   `json:"plan"`
	Status   string   `json:"status"`
	Features []string `json:"features"`

	// RemainingGenerations is nil for unlimited plans.
	RemainingGenerations *int `json:"remaining_generations,omitempty"`
}

// Unlimited reports whether the plan has no generation allowance.
func (s Subscription) Unlimited() bool {
	return s.RemainingGenerations == nil
}

// CanUseFeature reports whether the plan includes the named feature.
// Unlimited plans include everything.
func (s Subscription) CanUseFeature(feature string) bool {
	if s.Unlimited() {
		return true
	}
	return feature == FeatureBasicGeneration
}

// Exhausted reports whether a limited plan has no generations left.
func (s Subscription) Exhausted() bool {
	return s.RemainingGenerations != nil && *s.RemainingGenerations <= 0
}

// Policy resolves callers against the allow-list and payment flag.
// It is immutable after construction and safe for concurrent use.
type Policy struct {
	internal        map[string]struct{}
	gatewayEnabled  bool
	freeGenerations int
}

// NewPolicy builds a Policy. Allow-list entries are trimmed and compared
// case-insensitively; blank entries are ignored.
func NewPolicy(internalEmails []string, paymentGatewayEnabled bool, freeGenerations int) *Policy {
	internal := make(map[string]struct{}, len(internalEmails))
	for _, e := range internalEmails {
		if e = normalize(e); e != "" {
			internal[e] = struct{}{}
		}
	}
	if freeGenerations < 0 {
		freeGenerations = 0
	}
	return &Policy{
		internal:        internal,
		gatewayEnabled:  paymentGatewayEnabled,
		freeGenerations: freeGenerations,
	}
}

// FreeGenerations returns the allowance for external users.
func (p *Policy) FreeGenerations() int {
	return p.freeGenerations
}

// Resolve returns the entitlement for the given email. An empty email means
// the caller is not signed in.
func (p *Policy) Resolve(email string) Access {
	email = strings.TrimSpace(email)
	if email == "" {
		return Access{Level: LevelNone, PaymentGatewayEnabled: p.gatewayEnabled}
	}

	_, internal := p.internal[normalize(email)]
	a := Access{
		Level:                 LevelExternal,
		Email:                 email,
		IsInternalTeam:        internal,
		PaymentGatewayEnabled: p.gatewayEnabled,
		HasFullAccess:         internal || p.gatewayEnabled,
	}
	if internal {
		a.Level = LevelInternal
	}
	return a
}

// Subscription returns the plan view for a, given the number of successful
// generations the caller has already used.
func (p *Policy) Subscription(a Access, used int) Subscription {
	if a.IsInternalTeam {
		return Subscription{
			Plan:     "Internal Team",
			Status:   "active",
			Features: []string{FeatureUnlimitedGenerations, FeatureAllBusinessTypes, FeaturePrioritySupport},
		}
	}

	remaining := p.freeGenerations - used
	if remaining < 0 {
		remaining = 0
	}

	// Paid plans are not looked up yet. An enabled gateway only renames the
	// free plan.
	plan := "Free Preview"
	if a.PaymentGatewayEnabled {
		plan = "Free"
	}
	return Subscription{
		Plan:                 plan,
		Status:               "trial",
		Features:             []string{FeatureLimitedGenerations},
		RemainingGenerations: &remaining,
	}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
