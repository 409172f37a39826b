// Package catalog filters, sorts and resolves the cards of a campaign.
package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/jason-s-yu/deckforge/internal/models"
)

const (
	SortByName   = "name"
	SortByRarity = "rarity"

	DefaultPageSize = 24
	MaxPageSize     = 200
)

// Query selects and orders cards. Zero values disable a filter.
type Query struct {
	Search   string
	Rarity   int
	Category string
	Type     string
	Tag      string
	Sort     string
	Page     int
	PageSize int
}

// Page is one page of a filtered card list.
type Page struct {
	Cards    []models.PlayingCard `json:"cards"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"pageSize"`
}

// Filter returns the cards that satisfy every filter of q, in catalog order.
func Filter(cards []models.PlayingCard, q Query) []models.PlayingCard {
	out := make([]models.PlayingCard, 0, len(cards))
	for _, c := range cards {
		if q.Rarity != 0 && c.Rarity != q.Rarity {
			continue
		}
		if q.Category != "" && c.Category != q.Category {
			continue
		}
		if q.Type != "" && c.Type != q.Type {
			continue
		}
		if q.Tag != "" && !slices.Contains(c.Tags, q.Tag) {
			continue
		}
		if !Matches(q.Search, c.Name, c.Description) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Sort orders cards in place. Unknown keys leave the order untouched.
func Sort(cards []models.PlayingCard, key string) {
	switch key {
	case SortByName:
		slices.SortStableFunc(cards, func(a, b models.PlayingCard) int {
			return strings.Compare(fold(a.Name), fold(b.Name))
		})
	case SortByRarity:
		slices.SortStableFunc(cards, func(a, b models.PlayingCard) int {
			if c := cmp.Compare(a.Rarity, b.Rarity); c != 0 {
				return c
			}
			return strings.Compare(fold(a.Name), fold(b.Name))
		})
	}
}

// Search filters, sorts and paginates cards. The input slice is not modified.
func Search(cards []models.PlayingCard, q Query) Page {
	filtered := Filter(cards, q)
	Sort(filtered, q.Sort)

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	start := len(filtered)
	if page-1 < len(filtered)/size+1 {
		start = min((page-1)*size, len(filtered))
	}
	end := min(start+size, len(filtered))

	return Page{
		Cards:    filtered[start:end],
		Total:    len(filtered),
		Page:     page,
		PageSize: size,
	}
}

// Facets are the values a client can filter the catalog by.
type Facets struct {
	Tags       []string `json:"tags"`
	Types      []string `json:"types"`
	Categories []string `json:"categories"`
}

// CollectFacets merges the base tags with every tag, type and category in use.
func CollectFacets(cards []models.PlayingCard) Facets {
	tags := append([]string{}, models.BaseTags...)
	var types, categories []string
	for _, c := range cards {
		tags = append(tags, c.Tags...)
		types = append(types, c.Type)
		categories = append(categories, c.Category)
	}
	return Facets{
		Tags:       distinct(tags),
		Types:      distinct(types),
		Categories: distinct(categories),
	}
}

func distinct(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
