package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RawListing holds one sitter record exactly as it was decoded from the
// page's embedded data. It is never mutated after extraction.
type RawListing map[string]any

// Identity returns the listing's unique key (personOpk) as text.
// Numeric and string identities render the same way, so "42" and 42 collide.
func (r RawListing) Identity() string {
	switch v := r["personOpk"].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Name returns the sitter's display name.
func (r RawListing) Name() string {
	s, _ := r["shortName"].(string)
	return s
}

// WebURL returns the profile URL as served by the site.
func (r RawListing) WebURL() string {
	s, _ := r["webUrl"].(string)
	return s
}

// NormalizedListing is the typed projection of a RawListing used by the
// qualification policy. It is recomputed each time it is needed.
type NormalizedListing struct {
	Price             float64
	DistanceMiles     float64
	ReviewsCount      int
	RatingsAverage    float64
	YearsOfExperience int
	RepeatClientCount int
	ServiceSlugs      []string
	BadgeSlug         string
	HasBadge          bool
}

// OffersService reports whether slug is among the listing's services.
func (n *NormalizedListing) OffersService(slug string) bool {
	for _, s := range n.ServiceSlugs {
		if s == slug {
			return true
		}
	}
	return false
}

// Verdict is the outcome of the qualification policy. Reason names the first
// failing check and is empty when the listing qualifies.
type Verdict struct {
	Qualified bool
	Reason    string
}

// ExportRecord is the flattened, display-ready row written to CSV.
type ExportRecord struct {
	Identity          string
	Name              string
	URL               string
	Price             float64
	DistanceMiles     float64
	ReviewsCount      int
	RatingsAverage    float64
	YearsOfExperience int
	RepeatClientCount int
}

// RunSummary holds the computed statistics over one scrape run.
type RunSummary struct {
	PagesFetched  int
	Added         int
	Seen          int
	Rejected      int
	Invalid       int
	RejectReasons map[string]int

	Exported     int
	AveragePrice float64
	MinPrice     float64
	MaxPrice     float64
	Closest      *ExportRecord
	TopRated     []*ExportRecord
	OutputPath   string
}
