package reward

import (
	"math/rand/v2"
	"time"

	"github.com/dukerupert/north/internal/model"
)

// ProofLuckBoost is added to the roll for drops earned by submitting proof.
const ProofLuckBoost = 0.25

const (
	legendaryRoll = 1.25
	rareRoll      = 0.85
)

// Rand is the random source used for drops. *rand.Rand from math/rand/v2
// satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// NewRand returns a PCG-backed source. Tests pass a fixed seed.
func NewRand(seed1, seed2 uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed1, seed2))
}

// DefaultRand returns a source seeded from the runtime generator.
func DefaultRand() *rand.Rand {
	return NewRand(rand.Uint64(), rand.Uint64())
}

type item struct {
	name  string
	emoji string
}

var pools = map[model.Rarity][]item{
	model.RarityCommon: {
		{"Wood Shelf", "🪵"},
		{"Wall Sticker", "⭐"},
	},
	model.RarityRare: {
		{"Cozy Lamp", "🛋️"},
		{"Mint Plant", "🪴"},
	},
	model.RarityLegendary: {
		{"Aurora Window", "🪟"},
		{"Golden Loom", "🧵"},
	},
}

// RarityFor maps a boosted roll onto a rarity tier.
func RarityFor(roll float64) model.Rarity {
	switch {
	case roll > legendaryRoll:
		return model.RarityLegendary
	case roll > rareRoll:
		return model.RarityRare
	default:
		return model.RarityCommon
	}
}

// Drop rolls a collectible. The tier comes from r.Float64()+luckBoost and the
// item is picked uniformly from that tier's pool.
func Drop(r Rand, luckBoost float64, now time.Time, newID func() string) model.Collectible {
	rarity := RarityFor(r.Float64() + luckBoost)
	pool := pools[rarity]
	it := pool[r.IntN(len(pool))]
	return model.Collectible{
		ID:         newID(),
		Name:       it.name,
		Emoji:      it.emoji,
		Rarity:     rarity,
		UnlockedAt: now,
	}
}
