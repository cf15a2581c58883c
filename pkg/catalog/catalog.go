// Package catalog holds the ordered, read-only list of offers players can buy
package catalog

import (
	"fmt"
	"strings"

	"github.com/fadedpez/playtimeshop/internal/types"
	"github.com/fadedpez/playtimeshop/pkg/entities"
)

// Match policies accepted by MatcherFor
const (
	MatchPrefix = "prefix"
	MatchExact  = "exact"
)

// Matcher decides whether the text a player typed selects the named offer
type Matcher func(offerName, text string) bool

// ExactMatch selects an offer whose name equals the text, ignoring case and surrounding space
func ExactMatch(offerName, text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), offerName)
}

// PrefixMatch selects an offer when the text starts with its name, ignoring case.
// "neodymium" therefore buys "neo".
func PrefixMatch(offerName, text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	return offerName != "" && strings.HasPrefix(text, strings.ToLower(offerName))
}

// MatcherFor returns the matcher for a policy name
func MatcherFor(policy string) (Matcher, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case MatchPrefix, "":
		return PrefixMatch, nil
	case MatchExact:
		return ExactMatch, nil
	default:
		return nil, types.NewShopError(types.ErrInvalidConfig, fmt.Sprintf("unknown match policy %q", policy))
	}
}

// Catalog is an immutable ordered list of offers
type Catalog struct {
	offers []entities.Offer
}

// New validates offers and builds a catalog preserving their order
func New(offers ...entities.Offer) (*Catalog, error) {
	seen := make(map[string]bool, len(offers))
	stored := make([]entities.Offer, 0, len(offers))

	for i, offer := range offers {
		if err := offer.Validate(); err != nil {
			return nil, types.WrapError(types.ErrInvalidCatalog, fmt.Sprintf("offer %d is invalid", i), err)
		}

		key := strings.ToLower(offer.Name)
		if seen[key] {
			return nil, types.NewShopError(types.ErrInvalidCatalog, fmt.Sprintf("duplicate offer name %q", offer.Name))
		}
		seen[key] = true

		stored = append(stored, copyOffer(offer))
	}

	return &Catalog{offers: stored}, nil
}

// Offers returns a copy of the offers in catalog order
func (c *Catalog) Offers() []entities.Offer {
	result := make([]entities.Offer, len(c.offers))
	for i, offer := range c.offers {
		result[i] = copyOffer(offer)
	}
	return result
}

// Len returns the number of offers
func (c *Catalog) Len() int {
	return len(c.offers)
}

// FindByName returns the first offer, in catalog order, that match selects.
// A nil matcher falls back to ExactMatch.
func (c *Catalog) FindByName(text string, match Matcher) (entities.Offer, bool) {
	if match == nil {
		match = ExactMatch
	}

	for _, offer := range c.offers {
		if match(offer.Name, text) {
			return copyOffer(offer), true
		}
	}

	return entities.Offer{}, false
}

// copyOffer detaches the payload pointers so callers cannot mutate the catalog
func copyOffer(offer entities.Offer) entities.Offer {
	if offer.Item != nil {
		item := *offer.Item
		offer.Item = &item
	}
	if offer.Stat != nil {
		stat := *offer.Stat
		offer.Stat = &stat
	}
	return offer
}

// DefaultOffers is the catalog seeded on first start
func DefaultOffers() []entities.Offer {
	return []entities.Offer{
		entities.NewItemOffer("neo", "Neodymium Ore", 100, 100, 4300),
		entities.NewStatOffer("life", "Maximum Health", 100, 100, entities.StatHealth, 2000),
		entities.NewStatOffer("exp", "Experience", 100, 1000, entities.StatExperience, 500000),
	}
}

// Default builds the seeded catalog
func Default() *Catalog {
	c, err := New(DefaultOffers()...)
	if err != nil {
		panic(fmt.Sprintf("default catalog is invalid: %v", err))
	}
	return c
}
