package services

import (
	"encoding/json"

	"sitter-scraper/geo"
	"sitter-scraper/models"
)

var home = geo.Point{Lat: 47.6062, Lon: -122.3321}

// sampleSitter returns a listing that passes basePolicy, shaped the way the
// extractor decodes it (numbers as json.Number).
func sampleSitter(id string) models.RawListing {
	return models.RawListing{
		"personOpk":             id,
		"shortName":             "Sitter " + id,
		"webUrl":                "https://www.rover.com/members/sitter-" + id + "/",
		"price":                 json.Number("35"),
		"latitude":              json.Number("47.6062"),
		"longitude":             json.Number("-122.3321"),
		"reviewsCount":          json.Number("40"),
		"ratingsAverage":        json.Number("4.95"),
		"yearsOfExperience":     "6 years",
		"providerProfile":       map[string]any{"repeatClientCount": json.Number("8")},
		"browsableServiceSlugs": []any{"dog-walking", "overnight-traveling"},
	}
}

func basePolicy() *Policy {
	return &Policy{
		MaxPrice:             50,
		MaxDistanceMiles:     5,
		MinReviews:           10,
		MinRatingAverage:     4.8,
		MinYearsExperience:   2,
		MinRepeatClientCount: 3,
		RequiredService:      "overnight-traveling",
		RequiredBadge:        "verified-enhanced-background-check",
	}
}
