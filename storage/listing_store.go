package storage

import "sitter-scraper/models"

// InsertResult is the outcome of ListingStore.TryInsert.
type InsertResult int

const (
	Added InsertResult = iota
	AlreadySeen
	Rejected
)

func (r InsertResult) String() string {
	switch r {
	case Added:
		return "added"
	case AlreadySeen:
		return "already seen"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ListingStore accumulates qualifying listings keyed by identity, in
// insertion order. The first listing stored for an identity wins; entries are
// never overwritten or removed.
//
// A store is owned by a single scrape run and is not safe for concurrent use.
type ListingStore struct {
	order    []string
	listings map[string]models.RawListing
}

// NewListingStore creates an empty ListingStore.
func NewListingStore() *ListingStore {
	return &ListingStore{listings: make(map[string]models.RawListing)}
}

// TryInsert stores raw under identity when the identity is new and the
// verdict qualifies. An identity already in the store is reported as
// AlreadySeen whatever the verdict says.
//
// Rejected listings are not stored, so an identity that failed on one page can
// still be added if a later page serves it with qualifying data.
func (s *ListingStore) TryInsert(identity string, raw models.RawListing, v models.Verdict) InsertResult {
	if _, exists := s.listings[identity]; exists {
		return AlreadySeen
	}
	if !v.Qualified {
		return Rejected
	}
	s.order = append(s.order, identity)
	s.listings[identity] = raw
	return Added
}

// Has returns true if a listing is stored under identity.
func (s *ListingStore) Has(identity string) bool {
	_, ok := s.listings[identity]
	return ok
}

// Len returns the number of stored listings.
func (s *ListingStore) Len() int {
	return len(s.order)
}

// Listings returns the stored listings in insertion order.
func (s *ListingStore) Listings() []models.RawListing {
	out := make([]models.RawListing, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.listings[id])
	}
	return out
}
