package models

import (
	"errors"
	"fmt"
	"strings"
)

// BusinessProfile describes the customer's business. It is the only semantic
// input to prompt construction and is never mutated by the generation client.
type BusinessProfile struct {
	Name           string   `json:"name"`
	Website        string   `json:"website,omitempty"`
	BusinessType   string   `json:"businessType"`
	ServiceType    string   `json:"serviceType"`
	SelectedCities []string `json:"selectedCities"`
	Description    string   `json:"description"`
	TargetCustomer string   `json:"targetCustomer"`
	KeyServices    string   `json:"keyServices,omitempty"`

	// RecentPosts holds blog post titles discovered on the business website.
	// Only website enrichment fills it.
	RecentPosts []string `json:"recentPosts,omitempty"`
}

// Validate reports the required fields that are missing. Cities are optional;
// an empty set renders as an empty list in prompts.
func (p BusinessProfile) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(p.BusinessType) == "" {
		missing = append(missing, "businessType")
	}
	if strings.TrimSpace(p.Description) == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ContentType selects which prompt builder is applied to a profile.
type ContentType string

const (
	ContentKeywords   ContentType = "keywords"
	ContentStrategy   ContentType = "content"
	ContentSocial     ContentType = "social"
	ContentTechnical  ContentType = "technical"
	ContentConversion ContentType = "conversion"
)

// ContentTypes lists every supported content type.
var ContentTypes = []ContentType{
	ContentKeywords,
	ContentStrategy,
	ContentSocial,
	ContentTechnical,
	ContentConversion,
}

// ErrUnknownContentType is returned when a tag is not one of ContentTypes.
var ErrUnknownContentType = errors.New("unknown content type")

// ParseContentType converts a raw tag into a ContentType.
func ParseContentType(s string) (ContentType, error) {
	for _, ct := range ContentTypes {
		if string(ct) == s {
			return ct, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownContentType, s)
}

// ContentRequest pairs a profile with the content type to generate.
type ContentRequest struct {
	Type     ContentType     `json:"type"`
	Business BusinessProfile `json:"business"`
}
