package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"sitter-scraper/models"
)

// maxNameAttempts bounds the search for an unused timestamped file name.
const maxNameAttempts = 1000

var csvHeader = []string{
	"Name", "url", "price", "distanceInMiles", "reviewsCount",
	"ratingsAverage", "yearsOfExperience", "repeatClientCount",
}

// CSVWriter writes each export to its own timestamped CSV file in a directory.
type CSVWriter struct {
	dir string
	now func() time.Time
}

// NewCSVWriter creates a CSVWriter that places files in dir.
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir, now: time.Now}
}

// WriteFile writes records to <dir>/<epoch-millis>_sitters.csv. Existing files
// are never opened for writing: if the name is taken the stamp is bumped by a
// millisecond until a free name is found.
func (c *CSVWriter) WriteFile(records []models.ExportRecord) (string, error) {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("csv: create output dir: %w", err)
	}

	f, path, err := c.createUnique()
	if err != nil {
		return "", err
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return path, fmt.Errorf("csv: write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(recordRow(r)); err != nil {
			_ = f.Close()
			return path, fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return path, fmt.Errorf("csv: flush: %w", err)
	}
	if err := f.Close(); err != nil {
		return path, fmt.Errorf("csv: close %q: %w", path, err)
	}
	return path, nil
}

func (c *CSVWriter) createUnique() (*os.File, string, error) {
	stamp := c.now().UnixMilli()
	for i := 0; i < maxNameAttempts; i++ {
		path := filepath.Join(c.dir, fmt.Sprintf("%d_sitters.csv", stamp))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("csv: create file %q: %w", path, err)
		}
		stamp++
	}
	return nil, "", fmt.Errorf("csv: no free file name in %q after %d attempts", c.dir, maxNameAttempts)
}

func recordRow(r models.ExportRecord) []string {
	return []string{
		r.Name,
		r.URL,
		fmt.Sprintf("$%.2f", r.Price),
		strconv.FormatFloat(r.DistanceMiles, 'f', -1, 64),
		strconv.Itoa(r.ReviewsCount),
		strconv.FormatFloat(r.RatingsAverage, 'f', -1, 64),
		strconv.Itoa(r.YearsOfExperience),
		strconv.Itoa(r.RepeatClientCount),
	}
}
