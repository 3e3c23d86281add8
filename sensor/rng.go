package sensor

// RNG is a small xorshift32 pseudorandom generator. Each owner constructs
// its own instance with an explicit seed; there is no shared global state.
type RNG struct {
	state uint32
}

// NewRNG creates a generator from the given seed. Xorshift cannot run from
// a zero state, so a zero seed falls back to 1.
func NewRNG(seed uint32) *RNG {
	if seed == 0 {
		seed = 1
	}
	return &RNG{state: seed}
}

func (r *RNG) next() uint32 {
	r.state ^= r.state << 13
	r.state ^= r.state >> 17
	r.state ^= r.state << 5
	return r.state
}

// Uniform returns a value in [0, n). n must be positive; non-positive n
// yields 0.
func (r *RNG) Uniform(n int) uint32 {
	if n <= 0 {
		return 0
	}
	if n&(n-1) == 0 {
		return r.next() & uint32(n-1)
	}
	return uint32((uint64(r.next()) * uint64(n)) >> 32)
}

// OneIn reports true with probability 1/n.
func (r *RNG) OneIn(n int) bool {
	if n <= 0 {
		return false
	}
	return r.Uniform(n) == 0
}

// Skewed returns a value in [0, 2^maxLog) biased toward smaller numbers.
func (r *RNG) Skewed(maxLog int) uint32 {
	if maxLog < 0 {
		return 0
	}
	return r.Uniform(1 << r.Uniform(maxLog+1))
}
