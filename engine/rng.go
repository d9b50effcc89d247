package engine

// Rand is the randomness the engine consumes. *math/rand/v2.Rand satisfies
// it, as does Xorshift.
type Rand interface {
	// IntN returns a uniform value in [0, n). n must be > 0.
	IntN(n int) int
}

// ---------------------------------------------------------------------------
// xorshift64 RNG: small, seedable, no allocation
// ---------------------------------------------------------------------------

// Xorshift is a xorshift64 generator. The zero value is not usable; build
// one with NewXorshift.
type Xorshift struct {
	state uint64
}

// NewXorshift seeds a generator. A zero seed is remapped because xorshift
// cannot leave the all-zero state.
func NewXorshift(seed uint64) *Xorshift {
	if seed == 0 {
		seed = 1
	}
	return &Xorshift{state: seed}
}

// Uint64 advances the generator.
func (x *Xorshift) Uint64() uint64 {
	s := x.state
	s ^= s << 13
	s ^= s >> 7
	s ^= s << 17
	x.state = s
	return s
}

// IntN returns a value in [0, n).
func (x *Xorshift) IntN(n int) int {
	if n <= 0 {
		panic("engine: IntN called with n <= 0")
	}
	return int(x.Uint64() % uint64(n))
}

// Float64 returns a value in [0, 1).
func (x *Xorshift) Float64() float64 {
	return float64(x.Uint64()>>11) / (1 << 53)
}

// Shuffle permutes cards in place with Fisher-Yates.
func Shuffle(cards []CardInstance, rng Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}
