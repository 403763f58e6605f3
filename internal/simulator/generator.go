// Package simulator serves synthetic heart-rate readings over a websocket,
// standing in for a wearable sensor backend.
package simulator

import (
	"math"
	"math/rand"
	"time"
)

// Generator produces readings around 80 bpm: two uniform swings of ±10 plus
// ±5 noise, truncated toward zero.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator seeds the sequence. Seed 0 picks a time-based seed.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

func (g *Generator) Next() int {
	base := 80 + 20*(g.rng.Float64()-0.5) + 20*(g.rng.Float64()-0.5)
	noise := -5 + 10*g.rng.Float64()
	return int(math.Trunc(base + noise))
}
