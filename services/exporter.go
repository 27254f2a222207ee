package services

import (
	"fmt"

	"sitter-scraper/models"
	"sitter-scraper/storage"
	"sitter-scraper/utils"
)

// ExportResult describes one export: the file written and what went into it.
type ExportResult struct {
	Path    string
	Records []models.ExportRecord
	Skipped int
}

// Exporter turns accumulated listings into rows and writes them out. The CSV
// file is the product of a run; mirrors are best effort.
type Exporter struct {
	normalizer *Normalizer
	file       storage.RecordFileWriter
	mirrors    []storage.SitterWriter
	logger     *utils.Logger
}

// NewExporter creates an Exporter writing files through file and copying the
// rows to every mirror.
func NewExporter(normalizer *Normalizer, file storage.RecordFileWriter, logger *utils.Logger, mirrors ...storage.SitterWriter) *Exporter {
	return &Exporter{
		normalizer: normalizer,
		file:       file,
		mirrors:    mirrors,
		logger:     logger,
	}
}

// Export writes listings, in order, to a new file. It is safe to call more
// than once; every call produces a separate file.
func (e *Exporter) Export(listings []models.RawListing) (*ExportResult, error) {
	res := &ExportResult{Records: make([]models.ExportRecord, 0, len(listings))}

	for _, raw := range listings {
		rec, err := e.normalizer.ExportRecord(raw)
		if err != nil {
			e.logger.Warn("[export] Skipping %s: %v", raw.Name(), err)
			res.Skipped++
			continue
		}
		res.Records = append(res.Records, rec)
	}

	path, err := e.file.WriteFile(res.Records)
	if err != nil {
		return res, fmt.Errorf("export: %w", err)
	}
	res.Path = path
	e.logger.Info("[export] Wrote %d sitters to %s", len(res.Records), path)

	for _, m := range e.mirrors {
		if err := m.Write(res.Records); err != nil {
			e.logger.Warn("[export] Mirror write failed: %v", err)
		}
	}
	return res, nil
}
