package services

import (
	"sitter-scraper/config"
	"sitter-scraper/models"
)

// Rejection reasons, one per check, in evaluation order.
const (
	ReasonPrice         = "price"
	ReasonDistance      = "distance"
	ReasonReviews       = "reviews"
	ReasonRating        = "rating"
	ReasonRepeatClients = "repeat_clients"
	ReasonService       = "service"
	ReasonBadge         = "badge"
	ReasonExperience    = "experience"
)

// Policy decides whether a normalized listing is worth exporting.
type Policy struct {
	MaxPrice             float64
	MaxDistanceMiles     float64
	MinReviews           int
	MinRatingAverage     float64
	MinYearsExperience   int
	MinRepeatClientCount int

	RequiredService string
	// RequiredBadge only applies to listings that carry a badge at all.
	RequiredBadge string
}

// NewPolicy builds a Policy from the custom_queries section of the criteria.
func NewPolicy(cq config.CustomQueries) *Policy {
	return &Policy{
		MaxPrice:             cq.MaxPrice,
		MaxDistanceMiles:     cq.MaxDistanceFromMe,
		MinReviews:           cq.MinReviews,
		MinRatingAverage:     cq.MinRatingAvg,
		MinYearsExperience:   cq.MinYearsExperience,
		MinRepeatClientCount: cq.MinRepeatClientCount,
		RequiredService:      cq.RequiredService,
		RequiredBadge:        cq.RequiredBadge,
	}
}

type check struct {
	reason string
	pass   func(p *Policy, n *models.NormalizedListing) bool
}

// checks run in this order; the first failure is the reported reason.
var checks = []check{
	{ReasonPrice, func(p *Policy, n *models.NormalizedListing) bool { return n.Price <= p.MaxPrice }},
	{ReasonDistance, func(p *Policy, n *models.NormalizedListing) bool { return n.DistanceMiles <= p.MaxDistanceMiles }},
	{ReasonReviews, func(p *Policy, n *models.NormalizedListing) bool { return n.ReviewsCount >= p.MinReviews }},
	{ReasonRating, func(p *Policy, n *models.NormalizedListing) bool { return n.RatingsAverage >= p.MinRatingAverage }},
	{ReasonRepeatClients, func(p *Policy, n *models.NormalizedListing) bool { return n.RepeatClientCount >= p.MinRepeatClientCount }},
	{ReasonService, func(p *Policy, n *models.NormalizedListing) bool { return n.OffersService(p.RequiredService) }},
	// An absent badge passes; a different badge does not.
	{ReasonBadge, func(p *Policy, n *models.NormalizedListing) bool { return !n.HasBadge || n.BadgeSlug == p.RequiredBadge }},
	{ReasonExperience, func(p *Policy, n *models.NormalizedListing) bool { return n.YearsOfExperience >= p.MinYearsExperience }},
}

// Evaluate returns the verdict for n.
func (p *Policy) Evaluate(n *models.NormalizedListing) models.Verdict {
	for _, c := range checks {
		if !c.pass(p, n) {
			return models.Verdict{Qualified: false, Reason: c.reason}
		}
	}
	return models.Verdict{Qualified: true}
}
