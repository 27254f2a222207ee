package services

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"sitter-scraper/models"
	"sitter-scraper/utils"
)

type InsightService struct {
	logger *utils.Logger
	out    io.Writer
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger, out: os.Stdout}
}

// Generate fills the statistics part of summary from the exported records.
// The counters are expected to be set by the scraper already.
func (s *InsightService) Generate(summary *models.RunSummary, records []models.ExportRecord) *models.RunSummary {
	if summary == nil {
		summary = &models.RunSummary{}
	}
	if summary.RejectReasons == nil {
		summary.RejectReasons = make(map[string]int)
	}

	summary.Exported = len(records)
	summary.TopRated = nil
	summary.Closest = nil
	if len(records) == 0 {
		return summary
	}

	rated := make([]*models.ExportRecord, 0, len(records))
	var total float64
	summary.MinPrice = records[0].Price
	summary.MaxPrice = records[0].Price
	for i := range records {
		r := &records[i]
		total += r.Price
		if r.Price < summary.MinPrice {
			summary.MinPrice = r.Price
		}
		if r.Price > summary.MaxPrice {
			summary.MaxPrice = r.Price
		}
		if summary.Closest == nil || r.DistanceMiles < summary.Closest.DistanceMiles {
			summary.Closest = r
		}
		rated = append(rated, r)
	}
	summary.AveragePrice = round2(total / float64(len(records)))

	// Top 5 by rating, more reviews first on ties
	sort.SliceStable(rated, func(i, j int) bool {
		if rated[i].RatingsAverage != rated[j].RatingsAverage {
			return rated[i].RatingsAverage > rated[j].RatingsAverage
		}
		return rated[i].ReviewsCount > rated[j].ReviewsCount
	})
	if len(rated) > 5 {
		rated = rated[:5]
	}
	summary.TopRated = rated

	return summary
}

func (s *InsightService) Print(r *models.RunSummary) {
	w := s.out
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🐕 SITTER SEARCH SUMMARY\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Pages fetched     : \033[1m%d\033[0m\n", r.PagesFetched)
	fmt.Fprintf(w, "  Added             : \033[1m%d\033[0m\n", r.Added)
	fmt.Fprintf(w, "  Already seen      : \033[1m%d\033[0m\n", r.Seen)
	fmt.Fprintf(w, "  Failed criteria   : \033[1m%d\033[0m\n", r.Rejected)
	fmt.Fprintf(w, "  Invalid records   : \033[1m%d\033[0m\n", r.Invalid)
	fmt.Fprintf(w, "  Exported          : \033[1m%d\033[0m\n", r.Exported)
	if r.OutputPath != "" {
		fmt.Fprintf(w, "  Output file       : %s\n", r.OutputPath)
	}
	fmt.Fprintln(w)

	if len(r.RejectReasons) > 0 {
		fmt.Fprintf(w, "\033[1;33m  Rejections by check\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		type reasonCount struct {
			reason string
			count  int
		}
		var reasons []reasonCount
		for reason, cnt := range r.RejectReasons {
			reasons = append(reasons, reasonCount{reason, cnt})
		}
		sort.Slice(reasons, func(i, j int) bool {
			if reasons[i].count != reasons[j].count {
				return reasons[i].count > reasons[j].count
			}
			return reasons[i].reason < reasons[j].reason
		})
		for _, rc := range reasons {
			bar := strings.Repeat("█", rc.count)
			fmt.Fprintf(w, "  %-16s %s (%d)\n", rc.reason, truncate(bar, 30), rc.count)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\033[1;33m  Price Statistics (exported sitters)\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.Exported > 0 {
		fmt.Fprintf(w, "  Average price : \033[1;32m$%.2f\033[0m\n", r.AveragePrice)
		fmt.Fprintf(w, "  Minimum price : \033[1;32m$%.2f\033[0m\n", r.MinPrice)
		fmt.Fprintf(w, "  Maximum price : \033[1;32m$%.2f\033[0m\n", r.MaxPrice)
	} else {
		fmt.Fprintf(w, "  No sitters exported\n")
	}
	fmt.Fprintln(w)

	if r.Closest != nil {
		fmt.Fprintf(w, "\033[1;33m  Closest Sitter\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s\n", truncate(r.Closest.Name, 50))
		fmt.Fprintf(w, "  Distance : %.2f mi\n", r.Closest.DistanceMiles)
		fmt.Fprintf(w, "  Profile  : %s\n", r.Closest.URL)
		fmt.Fprintln(w)
	}

	if len(r.TopRated) > 0 {
		fmt.Fprintf(w, "\033[1;33m  Top Rated Sitters\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		for i, l := range r.TopRated {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-34s \033[1;32m%.2f ★\033[0m (%d reviews)\n",
				i+1, truncate(l.Name, 32), l.RatingsAverage, l.ReviewsCount)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
