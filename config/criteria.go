package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

const (
	DefaultRequiredService = "overnight-traveling"
	DefaultRequiredBadge   = "verified-enhanced-background-check"
)

// Criteria mirrors criteria.json: what to search for and which sitters to keep.
type Criteria struct {
	ScriptSettings ScriptSettings `json:"script_settings"`
	URLQueries     URLQueries     `json:"url_queries"`
	CustomQueries  CustomQueries  `json:"custom_queries"`
}

type ScriptSettings struct {
	PagesToSearch int `json:"pages_to_search"`
}

// CustomQueries holds the reference coordinate and every qualification threshold.
type CustomQueries struct {
	MyLat                float64 `json:"my_lat"`
	MyLon                float64 `json:"my_lon"`
	MaxPrice             float64 `json:"max_price"`
	MaxDistanceFromMe    float64 `json:"max_distance_from_me"`
	MinReviews           int     `json:"min_reviews"`
	MinRatingAvg         float64 `json:"min_rating_avg"`
	MinYearsExperience   int     `json:"min_years_experience"`
	MinRepeatClientCount int     `json:"min_repeat_client_count"`
	RequiredService      string  `json:"required_service"`
	RequiredBadge        string  `json:"required_badge"`
}

// QueryParam is one url_queries entry. Value holds the decoded string for
// JSON strings and the literal JSON text for anything else.
type QueryParam struct {
	Name     string
	Value    string
	IsString bool
}

// URLQueries keeps url_queries in file order, which a Go map would lose.
type URLQueries []QueryParam

// UnmarshalJSON walks the object token by token to preserve key order.
func (q *URLQueries) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*q = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("url_queries: expected object, got %v", tok)
	}

	var out URLQueries
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("url_queries[%q]: %w", key, err)
		}

		p := QueryParam{Name: key}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			p.Value = s
			p.IsString = true
		} else {
			p.Value = string(bytes.TrimSpace(raw))
		}
		out = append(out, p)
	}

	*q = out
	return nil
}

// LoadCriteria reads and decodes the criteria file at path, filling in the
// categorical requirements when the file leaves them out.
func LoadCriteria(path string) (*Criteria, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read criteria %q: %w", path, err)
	}
	return ParseCriteria(data)
}

// ParseCriteria decodes criteria JSON.
func ParseCriteria(data []byte) (*Criteria, error) {
	var c Criteria
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: decode criteria: %w", err)
	}
	if c.CustomQueries.RequiredService == "" {
		c.CustomQueries.RequiredService = DefaultRequiredService
	}
	if c.CustomQueries.RequiredBadge == "" {
		c.CustomQueries.RequiredBadge = DefaultRequiredBadge
	}
	return &c, nil
}

// Validate rejects criteria a run cannot use.
func (c *Criteria) Validate() error {
	if c.ScriptSettings.PagesToSearch <= 0 {
		return &ValidationError{Field: "script_settings.pages_to_search", Msg: "must be a positive integer"}
	}
	cq := c.CustomQueries
	if !finite(cq.MyLat) || !finite(cq.MyLon) || math.Abs(cq.MyLat) > 90 || math.Abs(cq.MyLon) > 180 {
		return &ValidationError{Field: "custom_queries.my_lat/my_lon", Msg: "reference coordinate out of range"}
	}
	return nil
}

// ValidationError reports a configuration value that cannot be used.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
