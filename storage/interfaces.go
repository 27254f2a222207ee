package storage

import "sitter-scraper/models"

// SitterWriter is the interface any secondary storage backend must satisfy.
type SitterWriter interface {
	Write(records []models.ExportRecord) error
	Close() error
}

// RecordFileWriter writes one complete export to a new file and returns its path.
type RecordFileWriter interface {
	WriteFile(records []models.ExportRecord) (string, error)
}
