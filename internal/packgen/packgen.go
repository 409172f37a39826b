// Package packgen computes the contents of an opened pack.
package packgen

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/jason-s-yu/deckforge/internal/models"
)

// ErrEmptyPool is returned when none of a pack's pool entries reference a
// card in the catalog with a positive weight.
var ErrEmptyPool = errors.New("pack has no drawable cards")

// ErrWeightTooLarge is returned when a pool weight exceeds MaxWeight.
var ErrWeightTooLarge = errors.New("pack weight out of range")

// MaxWeight bounds a single pool weight so the pool total cannot overflow.
const MaxWeight = 1 << 20

// Candidate is one drawable entry of a pack pool with its effective weight.
type Candidate struct {
	CardID string
	Weight int
}

type options struct {
	preset *float64
	rng    *rand.Rand
}

// Option tweaks how samples are taken.
type Option func(*options)

// WithPresetRandom replaces every uniform sample with f, reduced modulo 1.
func WithPresetRandom(f float64) Option {
	return func(o *options) {
		f = math.Mod(f, 1)
		if f < 0 {
			f++
		}
		o.preset = &f
	}
}

// WithRand draws samples from r instead of the global source.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rng = r
	}
}

// Pool builds the eligible pool for a pack: entries whose card exists in the
// catalog, weighted by their explicit weight or else the card's rarity.
// Entries with a non-positive weight can never be drawn and are left out.
func Pool(pack models.Pack, cards []models.PlayingCard) []Candidate {
	byID := make(map[string]models.PlayingCard, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}

	pool := make([]Candidate, 0, len(pack.CardPool))
	for _, entry := range pack.CardPool {
		card, ok := byID[entry.CardID]
		if !ok {
			continue
		}
		weight := card.Rarity
		if entry.Weight != nil {
			weight = *entry.Weight
		}
		if weight <= 0 {
			continue
		}
		pool = append(pool, Candidate{CardID: entry.CardID, Weight: weight})
	}
	return pool
}

// Pick returns the candidate whose cumulative-weight interval contains
// f*total. If rounding leaves the sample unconsumed the last candidate wins.
func Pick(pool []Candidate, total int, f float64) string {
	x := f * float64(total)
	cumulative := 0
	for _, c := range pool {
		cumulative += c.Weight
		if x < float64(cumulative) {
			return c.CardID
		}
	}
	return pool[len(pool)-1].CardID
}

// Generate draws pack.CardsPerPack card ids with replacement. A pack asking
// for fewer than one card yields one.
func Generate(pack models.Pack, cards []models.PlayingCard, opts ...Option) ([]string, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	pool := Pool(pack, cards)
	total := 0
	for _, c := range pool {
		if c.Weight > MaxWeight {
			return nil, fmt.Errorf("%w: card %s has weight %d", ErrWeightTooLarge, c.CardID, c.Weight)
		}
		total += c.Weight
	}
	if len(pool) == 0 || total <= 0 {
		return nil, ErrEmptyPool
	}

	n := pack.CardsPerPack
	if n < 1 {
		n = 1
	}

	picked := make([]string, n)
	for i := range picked {
		picked[i] = Pick(pool, total, o.sample())
	}
	return picked, nil
}

func (o *options) sample() float64 {
	switch {
	case o.preset != nil:
		return *o.preset
	case o.rng != nil:
		return o.rng.Float64()
	default:
		return rand.Float64()
	}
}
