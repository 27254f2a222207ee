package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sitter-scraper/models"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestCSVWriterFormatsRows(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)
	w.now = fixedClock(time.UnixMilli(1700000000123))

	path, err := w.WriteFile([]models.ExportRecord{{
		Name:              "Jane D.",
		URL:               "https://www.rover.com/members/jane-d/",
		Price:             35,
		DistanceMiles:     1.25,
		ReviewsCount:      42,
		RatingsAverage:    4.9,
		YearsOfExperience: 5,
		RepeatClientCount: 7,
	}})
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if want := filepath.Join(dir, "1700000000123_sitters.csv"); path != want {
		t.Errorf("path: got %q, want %q", path, want)
	}

	rows := readCSV(t, path)
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rows))
	}
	if rows[0][0] != "Name" || rows[0][7] != "repeatClientCount" {
		t.Errorf("header: got %v", rows[0])
	}
	want := []string{"Jane D.", "https://www.rover.com/members/jane-d/", "$35.00", "1.25", "42", "4.9", "5", "7"}
	for i := range want {
		if rows[1][i] != want[i] {
			t.Errorf("column %d: got %q, want %q", i, rows[1][i], want[i])
		}
	}
}

func TestCSVWriterQuotesCommas(t *testing.T) {
	w := NewCSVWriter(t.TempDir())
	path, err := w.WriteFile([]models.ExportRecord{{Name: "Smith, John"}})
	if err != nil {
		t.Fatal(err)
	}
	rows := readCSV(t, path)
	if rows[1][0] != "Smith, John" {
		t.Errorf("name: got %q, want %q", rows[1][0], "Smith, John")
	}
}

func TestCSVWriterNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir)
	w.now = fixedClock(time.UnixMilli(1000))

	first, err := w.WriteFile([]models.ExportRecord{{Name: "first"}})
	if err != nil {
		t.Fatal(err)
	}
	second, err := w.WriteFile([]models.ExportRecord{{Name: "second"}, {Name: "extra"}})
	if err != nil {
		t.Fatal(err)
	}

	if first == second {
		t.Fatalf("both exports wrote to %s", first)
	}
	if want := filepath.Join(dir, "1001_sitters.csv"); second != want {
		t.Errorf("second path: got %q, want %q", second, want)
	}
	if rows := readCSV(t, first); len(rows) != 2 || rows[1][0] != "first" {
		t.Errorf("first file was modified: %v", rows)
	}
}

func TestCSVWriterEmptyExportHasHeader(t *testing.T) {
	w := NewCSVWriter(filepath.Join(t.TempDir(), "nested", "out"))
	path, err := w.WriteFile(nil)
	if err != nil {
		t.Fatal(err)
	}
	if rows := readCSV(t, path); len(rows) != 1 {
		t.Errorf("rows: got %d, want header only", len(rows))
	}
}
