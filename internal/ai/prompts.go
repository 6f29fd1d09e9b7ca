package ai

import (
	"fmt"
	"strings"

	"github.com/satishskid/gbseo/internal/models"
)

// notSpecified replaces absent optional fields in prompts.
const notSpecified = "Not specified"

// Templates take positional arguments: 1 name, 2 business type, 3 cities,
// 4 description, 5 target customer, 6 service type, 7 key services.
const keywordPromptTmpl = `Generate a comprehensive keyword research strategy for %[1]s, a %[2]s business targeting %[3]s in India.

Business Description: %[4]s
Target Customer: %[5]s
Service Type: %[6]s
Key Services: %[7]s

Focus on:
1. High-intent commercial keywords for Indian market
2. Location-specific terms for each target city
3. Problem-solving keywords with research to purchase intent
4. Urgent/immediate need keywords (highest conversion)
5. Long-tail opportunities with low competition
6. Hindi-English mixed search patterns
7. Mobile voice search optimization

Provide keyword difficulty, search volume estimates, and content pillar recommendations.
Format the response with clear sections and actionable insights for the Indian healthcare/edtech/AI market.`

const contentPromptTmpl = `Create a comprehensive content strategy for %[1]s, targeting the Indian %[2]s market.

Business Context:
- Name: %[1]s
- Industry: %[2]s
- Service Model: %[6]s
- Target Cities: %[3]s
- Description: %[4]s
- Target Customer: %[5]s
- Key Services: %[7]s

Generate:
1. Homepage optimization strategy (Hindi + English)
2. Service pages content outline (15+ pages)
3. Location-specific landing pages for each city
4. Blog content calendar (20 SEO-optimized posts)
5. Internal linking strategy
6. Mobile-first optimization guidelines
7. Multi-language content approach
8. Trust signals and social proof integration

Focus on Indian market specifics: mobile users, payment preferences, cultural considerations, and local competition.`

const socialPromptTmpl = `Generate social media content for %[1]s, a %[2]s business in India.

Business Details:
- Target Cities: %[3]s
- Industry: %[2]s
- Description: %[4]s
- Target Audience: %[5]s
- Service Type: %[6]s
- Key Services: %[7]s

Create 4 posts each for:
1. LinkedIn (Professional, B2B focused)
2. Twitter (Engaging threads, news updates)
3. Facebook (Community building, detailed posts)
4. Instagram (Visual content, stories)

Requirements:
- Include relevant hashtags for Indian market
- Incorporate trust-building elements
- Use appropriate mix of Hindi/English
- Focus on healthcare/education/AI trends
- Include location-specific content
- Add call-to-actions for Indian users
- Consider cultural festivals and events`

const technicalPromptTmpl = `Generate technical SEO strategy for %[1]s, optimized for Indian users and %[2]s industry.

Business Context:
- Industry: %[2]s
- Target Locations: %[3]s
- Service Model: %[6]s
- Description: %[4]s
- Target Customer: %[5]s

Focus Areas:
1. Core Web Vitals optimization for 3G/4G networks
2. Schema markup for healthcare/edtech/AI industries
3. Mobile-first indexing for Indian users (78%% mobile traffic)
4. Multilingual SEO (Hindi + English + regional)
5. Indian-specific technical requirements
6. Page speed optimization for low-bandwidth areas
7. Local business schema with Indian address formats
8. Payment gateway integration considerations
9. Compliance with Indian data protection laws
10. CDN setup with Indian edge servers

Provide specific implementation guidelines and code snippets where applicable.`

const conversionPromptTmpl = `Create conversion optimization strategy for %[1]s targeting Indian %[2]s market.

Business Profile:
- Industry: %[2]s
- Target Cities: %[3]s
- Description: %[4]s
- Customer Base: %[5]s
- Service Type: %[6]s
- Key Services: %[7]s

Optimization Areas:
1. High-converting CTAs in Hindi + English
2. Indian payment method integration (UPI, NetBanking, Cards)
3. Trust signals for Indian healthcare/education market
4. Mobile conversion optimization (78%% traffic)
5. Regional adaptation for each target city
6. WhatsApp Business integration
7. Cultural considerations and pricing psychology
8. Social proof and testimonial strategy
9. Multi-language customer support options
10. Festival timing and seasonal offers

Include specific recommendations for form optimization, checkout flow, and user journey mapping for Indian users.`

// KeywordPrompt builds the keyword research prompt.
func KeywordPrompt(p models.BusinessProfile) string {
	return render(keywordPromptTmpl, p)
}

// ContentPrompt builds the content strategy prompt. Existing blog posts found
// on the business website are listed so the calendar avoids duplicates.
func ContentPrompt(p models.BusinessProfile) string {
	prompt := render(contentPromptTmpl, p)
	if len(p.RecentPosts) == 0 {
		return prompt
	}

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nExisting blog posts (do not duplicate these topics):\n")
	for _, title := range p.RecentPosts {
		fmt.Fprintf(&b, "- %s\n", title)
	}
	return strings.TrimRight(b.String(), "\n")
}

// SocialPrompt builds the social media content prompt.
func SocialPrompt(p models.BusinessProfile) string {
	return render(socialPromptTmpl, p)
}

// TechnicalPrompt builds the technical SEO prompt.
func TechnicalPrompt(p models.BusinessProfile) string {
	return render(technicalPromptTmpl, p)
}

// ConversionPrompt builds the conversion optimization prompt.
func ConversionPrompt(p models.BusinessProfile) string {
	return render(conversionPromptTmpl, p)
}

// BuildPrompt selects the builder for ct.
func BuildPrompt(ct models.ContentType, p models.BusinessProfile) (string, error) {
	switch ct {
	case models.ContentKeywords:
		return KeywordPrompt(p), nil
	case models.ContentStrategy:
		return ContentPrompt(p), nil
	case models.ContentSocial:
		return SocialPrompt(p), nil
	case models.ContentTechnical:
		return TechnicalPrompt(p), nil
	case models.ContentConversion:
		return ConversionPrompt(p), nil
	default:
		return "", fmt.Errorf("%w: %q", models.ErrUnknownContentType, ct)
	}
}

func render(tmpl string, p models.BusinessProfile) string {
	return fmt.Sprintf(tmpl,
		orPlaceholder(p.Name),
		orPlaceholder(p.BusinessType),
		strings.Join(p.SelectedCities, ", "),
		orPlaceholder(p.Description),
		orPlaceholder(p.TargetCustomer),
		orPlaceholder(p.ServiceType),
		orPlaceholder(p.KeyServices),
	)
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}
