package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleCriteria = `{
  "script_settings": { "pages_to_search": 3 },
  "url_queries": {
    "service_type": "overnight-traveling",
    "location": "Seattle, WA",
    "dogs": 1,
    "puppy": false
  },
  "custom_queries": {
    "my_lat": 47.6062,
    "my_lon": -122.3321,
    "max_price": 60,
    "max_distance_from_me": 5,
    "min_reviews": 10,
    "min_rating_avg": 4.8,
    "min_years_experience": 2,
    "min_repeat_client_count": 3
  }
}`

func TestParseCriteriaKeepsQueryOrder(t *testing.T) {
	c, err := ParseCriteria([]byte(sampleCriteria))
	if err != nil {
		t.Fatalf("ParseCriteria: %v", err)
	}

	want := URLQueries{
		{Name: "service_type", Value: "overnight-traveling", IsString: true},
		{Name: "location", Value: "Seattle, WA", IsString: true},
		{Name: "dogs", Value: "1"},
		{Name: "puppy", Value: "false"},
	}
	if len(c.URLQueries) != len(want) {
		t.Fatalf("url_queries: got %d entries, want %d", len(c.URLQueries), len(want))
	}
	for i := range want {
		if c.URLQueries[i] != want[i] {
			t.Errorf("url_queries[%d] = %+v; want %+v", i, c.URLQueries[i], want[i])
		}
	}
}

func TestParseCriteriaDefaults(t *testing.T) {
	c, err := ParseCriteria([]byte(sampleCriteria))
	if err != nil {
		t.Fatal(err)
	}
	if c.ScriptSettings.PagesToSearch != 3 {
		t.Errorf("pages_to_search: got %d, want 3", c.ScriptSettings.PagesToSearch)
	}
	if c.CustomQueries.RequiredService != DefaultRequiredService {
		t.Errorf("required_service: got %q", c.CustomQueries.RequiredService)
	}
	if c.CustomQueries.RequiredBadge != DefaultRequiredBadge {
		t.Errorf("required_badge: got %q", c.CustomQueries.RequiredBadge)
	}
	if c.CustomQueries.MinRatingAvg != 4.8 {
		t.Errorf("min_rating_avg: got %v", c.CustomQueries.MinRatingAvg)
	}
}

func TestParseCriteriaRejectsNonObjectQueries(t *testing.T) {
	_, err := ParseCriteria([]byte(`{"url_queries": ["a", "b"]}`))
	if err == nil {
		t.Fatal("expected error for array url_queries")
	}
}

func TestCriteriaValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Criteria)
		wantErr bool
	}{
		{"valid", func(c *Criteria) {}, false},
		{"zero pages", func(c *Criteria) { c.ScriptSettings.PagesToSearch = 0 }, true},
		{"negative pages", func(c *Criteria) { c.ScriptSettings.PagesToSearch = -2 }, true},
		{"latitude out of range", func(c *Criteria) { c.CustomQueries.MyLat = 91 }, true},
	}

	for _, tt := range tests {
		c, err := ParseCriteria([]byte(sampleCriteria))
		if err != nil {
			t.Fatal(err)
		}
		tt.mutate(c)
		err = c.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() = %v; wantErr %v", tt.name, err, tt.wantErr)
		}
		var ve *ValidationError
		if err != nil && !errors.As(err, &ve) {
			t.Errorf("%s: error %v is not a *ValidationError", tt.name, err)
		}
	}
}

func TestLoadCriteriaMissingFile(t *testing.T) {
	_, err := LoadCriteria(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadCriteria error = %v; want os.ErrNotExist", err)
	}
}

func TestLoadReadsEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "criteria.json")
	if err := os.WriteFile(path, []byte(sampleCriteria), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CRITERIA_PATH", path)
	t.Setenv("OUTPUT_DIR", dir)
	t.Setenv("MIN_DELAY_MS", "10")
	t.Setenv("MAX_DELAY_MS", "20")
	t.Setenv("HEADLESS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != dir {
		t.Errorf("OutputDir: got %q, want %q", cfg.OutputDir, dir)
	}
	if cfg.MinDelayMs != 10 || cfg.MaxDelayMs != 20 {
		t.Errorf("delay: got [%d,%d], want [10,20]", cfg.MinDelayMs, cfg.MaxDelayMs)
	}
	if cfg.Headless {
		t.Error("Headless: got true, want false")
	}
	if cfg.Criteria.ScriptSettings.PagesToSearch != 3 {
		t.Errorf("criteria not loaded: %+v", cfg.Criteria.ScriptSettings)
	}
}

func TestLoadRejectsInvertedDelay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "criteria.json")
	if err := os.WriteFile(path, []byte(sampleCriteria), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CRITERIA_PATH", path)
	t.Setenv("MIN_DELAY_MS", "500")
	t.Setenv("MAX_DELAY_MS", "100")

	if _, err := Load(); err == nil {
		t.Error("expected error for min delay > max delay")
	}
}
