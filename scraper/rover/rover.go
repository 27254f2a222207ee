package rover

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"sitter-scraper/config"
	"sitter-scraper/geo"
	"sitter-scraper/models"
	"sitter-scraper/services"
	"sitter-scraper/storage"
	"sitter-scraper/utils"
)

// ResultExporter writes out whatever a run has accumulated.
type ResultExporter interface {
	Export(listings []models.RawListing) (*services.ExportResult, error)
}

// RunResult is what a run produced, complete or not.
type RunResult struct {
	Summary *models.RunSummary
	Export  *services.ExportResult
}

// Scraper walks the search result pages one at a time and keeps the sitters
// that pass the policy.
type Scraper struct {
	searchURL string
	pages     int
	queries   config.URLQueries
	minDelay  int
	maxDelay  int

	fetcher    PageFetcher
	extractor  *Extractor
	normalizer *services.Normalizer
	policy     *services.Policy
	exporter   ResultExporter
	logger     *utils.Logger

	rng   *rand.Rand
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a ready-to-use Scraper.
func New(cfg *config.Config, fetcher PageFetcher, exporter ResultExporter, logger *utils.Logger) *Scraper {
	cq := cfg.Criteria.CustomQueries
	return &Scraper{
		searchURL: DefaultSearchURL,
		pages:     cfg.Criteria.ScriptSettings.PagesToSearch,
		queries:   cfg.Criteria.URLQueries,
		minDelay:  cfg.MinDelayMs,
		maxDelay:  cfg.MaxDelayMs,

		fetcher:    fetcher,
		extractor:  NewExtractor(DefaultMarker),
		normalizer: services.NewNormalizer(geo.Point{Lat: cq.MyLat, Lon: cq.MyLon}),
		policy:     services.NewPolicy(cq),
		exporter:   exporter,
		logger:     logger,

		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: sleepContext,
	}
}

// Run scrapes every configured page and then exports what was collected.
// The export happens even when a page fails, so a late failure never costs
// the sitters already found; the returned error then carries the failure.
func (s *Scraper) Run(ctx context.Context) (*RunResult, error) {
	s.logger.Info("[rover] Scraping %d page(s) of sitters...", s.pages)

	res := &RunResult{Summary: &models.RunSummary{RejectReasons: make(map[string]int)}}
	store := storage.NewListingStore()

	crawlErr := s.crawl(ctx, store, res.Summary)
	if crawlErr != nil {
		s.logger.Error("[rover] Run stopped early, saving %d sitters: %v", store.Len(), crawlErr)
	} else {
		s.logger.Info("[rover] Done scraping, %d sitters qualified", store.Len())
	}

	exp, exportErr := s.exporter.Export(store.Listings())
	res.Export = exp
	if exp != nil {
		res.Summary.OutputPath = exp.Path
	}
	return res, errors.Join(crawlErr, exportErr)
}

func (s *Scraper) crawl(ctx context.Context, store *storage.ListingStore, summary *models.RunSummary) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rover: panic while scraping: %v", r)
		}
	}()

	for page := 1; page <= s.pages; page++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("rover: stopped before page %d: %w", page, err)
		}
		if err := s.scrapePage(ctx, page, store, summary); err != nil {
			return err
		}

		if page < s.pages {
			delay := s.randomDelay()
			s.logger.Info("[rover] Sleeping for %.3f seconds...", delay.Seconds())
			if err := s.sleep(ctx, delay); err != nil {
				return fmt.Errorf("rover: interrupted after page %d: %w", page, err)
			}
		}
	}
	return nil
}

func (s *Scraper) scrapePage(ctx context.Context, page int, store *storage.ListingStore, summary *models.RunSummary) error {
	pageURL := BuildSearchURL(s.searchURL, page, s.queries)
	s.logger.Info("[rover] Browsing page #%d: %s", page, pageURL)

	markup, err := s.fetcher.FetchRenderedPage(ctx, pageURL)
	if err != nil {
		return &FetchError{Page: page, URL: pageURL, Err: err}
	}

	listings, err := s.extractor.Extract(markup)
	if err != nil {
		return fmt.Errorf("rover: page %d: %w", page, err)
	}
	summary.PagesFetched++
	s.logger.Info("[rover] Found %d sitters on page %d", len(listings), page)

	for _, raw := range listings {
		s.classify(raw, store, summary)
	}
	return nil
}

func (s *Scraper) classify(raw models.RawListing, store *storage.ListingStore, summary *models.RunSummary) {
	id := raw.Identity()
	if id == "" {
		summary.Invalid++
		s.logger.Warn("[INVALID] Skipping %q: no identity", raw.Name())
		return
	}

	n, err := s.normalizer.Normalize(raw)
	if err != nil {
		summary.Invalid++
		s.logger.Warn("[INVALID] Skipping %s: %v", raw.Name(), err)
		return
	}

	verdict := s.policy.Evaluate(n)
	switch store.TryInsert(id, raw, verdict) {
	case storage.Added:
		summary.Added++
		s.logger.Info("[ADDED] %s to list, current count: %d", raw.Name(), store.Len())
	case storage.AlreadySeen:
		summary.Seen++
		s.logger.Debug("[SEEN] Skipping %s, already seen", raw.Name())
	case storage.Rejected:
		summary.Rejected++
		summary.RejectReasons[verdict.Reason]++
		s.logger.Debug("[FAILED CRITERIA] Skipping %s (%s): %s",
			raw.Name(), verdict.Reason, services.CanonicalProfileURL(raw.WebURL()))
	}
}

// randomDelay picks a whole number of milliseconds in [minDelay, maxDelay].
func (s *Scraper) randomDelay() time.Duration {
	ms := s.minDelay
	if span := s.maxDelay - s.minDelay; span > 0 {
		ms += s.rng.Intn(span + 1)
	}
	return time.Duration(ms) * time.Millisecond
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
