package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"sitter-scraper/geo"
	"sitter-scraper/models"
)

// ProfileBaseURL is prepended to the member path when rebuilding profile links.
const ProfileBaseURL = "https://www.rover.com"

var (
	errMissing     = errors.New("missing")
	errNotNumeric  = errors.New("not numeric")
	errNotCount    = errors.New("not a non-negative integer")
	errWrongShape  = errors.New("unexpected type")
	errNoLeadToken = errors.New("no leading numeric token")
)

// NormalizationError reports a single listing field that could not be coerced.
// It is scoped to that one listing; callers log it and move on.
type NormalizationError struct {
	Identity string
	Field    string
	Err      error
}

func (e *NormalizationError) Error() string {
	if e.Identity == "" {
		return fmt.Sprintf("normalize: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("normalize %s: %s: %v", e.Identity, e.Field, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// Normalizer converts raw listings into typed fields relative to a fixed
// reference coordinate.
type Normalizer struct {
	ref geo.Point
}

// NewNormalizer creates a Normalizer measuring distances from ref.
func NewNormalizer(ref geo.Point) *Normalizer {
	return &Normalizer{ref: ref}
}

// Normalize coerces raw into a NormalizedListing. It does not modify raw.
func (n *Normalizer) Normalize(raw models.RawListing) (*models.NormalizedListing, error) {
	fail := func(field string, err error) error {
		return &NormalizationError{Identity: raw.Identity(), Field: field, Err: err}
	}

	price, err := toNumber(raw["price"])
	if err != nil {
		return nil, fail("price", err)
	}
	lat, err := toNumber(raw["latitude"])
	if err != nil {
		return nil, fail("latitude", err)
	}
	lng, err := toNumber(raw["longitude"])
	if err != nil {
		return nil, fail("longitude", err)
	}
	dist, err := n.ref.MilesTo(geo.Point{Lat: lat, Lon: lng})
	if err != nil {
		return nil, fail("distance", err)
	}
	reviews, err := toCount(raw["reviewsCount"])
	if err != nil {
		return nil, fail("reviewsCount", err)
	}
	rating, err := toNumber(raw["ratingsAverage"])
	if err != nil {
		return nil, fail("ratingsAverage", err)
	}
	years, err := leadingCount(raw["yearsOfExperience"])
	if err != nil {
		return nil, fail("yearsOfExperience", err)
	}

	profile, ok := raw["providerProfile"].(map[string]any)
	if !ok {
		return nil, fail("providerProfile", errMissing)
	}
	repeat, err := toCount(profile["repeatClientCount"])
	if err != nil {
		return nil, fail("providerProfile.repeatClientCount", err)
	}

	slugs, err := toStrings(raw["browsableServiceSlugs"])
	if err != nil {
		return nil, fail("browsableServiceSlugs", err)
	}

	out := &models.NormalizedListing{
		Price:             round2(price),
		DistanceMiles:     dist,
		ReviewsCount:      reviews,
		RatingsAverage:    rating,
		YearsOfExperience: years,
		RepeatClientCount: repeat,
		ServiceSlugs:      slugs,
	}
	if badge, ok := raw["primaryBadgeData"].(map[string]any); ok {
		if slug, _ := badge["slug"].(string); slug != "" {
			out.BadgeSlug = slug
			out.HasBadge = true
		}
	}
	return out, nil
}

// ExportRecord derives the display row for a stored listing.
func (n *Normalizer) ExportRecord(raw models.RawListing) (models.ExportRecord, error) {
	nl, err := n.Normalize(raw)
	if err != nil {
		return models.ExportRecord{}, err
	}
	return models.ExportRecord{
		Identity:          raw.Identity(),
		Name:              raw.Name(),
		URL:               CanonicalProfileURL(raw.WebURL()),
		Price:             nl.Price,
		DistanceMiles:     nl.DistanceMiles,
		ReviewsCount:      nl.ReviewsCount,
		RatingsAverage:    nl.RatingsAverage,
		YearsOfExperience: nl.YearsOfExperience,
		RepeatClientCount: nl.RepeatClientCount,
	}, nil
}

// CanonicalProfileURL rebuilds a profile link on the public host from the
// member path in webURL. URLs without a member path are returned unchanged.
func CanonicalProfileURL(webURL string) string {
	const marker = "/members/"
	i := strings.Index(webURL, marker)
	if i < 0 {
		return webURL
	}
	return ProfileBaseURL + marker + webURL[i+len(marker):]
}

// toNumber mirrors the field types the site actually serves: JSON numbers
// and numeric strings. Everything else, including "", is rejected.
func toNumber(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, errMissing
	case json.Number:
		parsed, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return 0, errNotNumeric
		}
		f = parsed
	case float64:
		f = x
	case int:
		f = float64(x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, errMissing
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", errNotNumeric, x)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: %T", errWrongShape, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotNumeric
	}
	return f, nil
}

func toCount(v any) (int, error) {
	f, err := toNumber(v)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %v", errNotCount, f)
	}
	return int(f), nil
}

// leadingCount reads text like "5 years" by taking its first
// whitespace-delimited token.
func leadingCount(v any) (int, error) {
	s, ok := v.(string)
	if !ok {
		return toCount(v)
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, errMissing
	}
	n, err := toCount(fields[0])
	if err != nil {
		return 0, fmt.Errorf("%w in %q", errNoLeadToken, s)
	}
	return n, nil
}

func toStrings(v any) ([]string, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		// undefined is repaired to "" upstream
		if x == "" {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: string", errWrongShape)
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, nil
	case []string:
		return append([]string(nil), x...), nil
	default:
		return nil, fmt.Errorf("%w: %T", errWrongShape, v)
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
