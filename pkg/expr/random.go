package expr

// RandomContext reproduces VBA's Rnd() LCG exactly, per spec.md's pinned
// recurrence: x <- (x*1140671485 + 12820163) mod 2^24, result x/2^24.
// Grounded on original_source's DefaultNumberFunctions.RND (isPure()
// false; delegates seeding to the evaluation context) and spec.md §9.
type RandomContext struct {
	state   uint32
	hasLast bool
	last    float64
}

const (
	lcgMul  = 1140671485
	lcgAdd  = 12820163
	lcgMask = 1 << 24
)

func (r *RandomContext) next() float64 {
	r.state = uint32((uint64(r.state)*lcgMul + lcgAdd) % lcgMask)
	r.last = float64(r.state) / float64(lcgMask)
	r.hasLast = true
	return r.last
}

// Rnd implements Rnd(seed) for seed > 0 or no explicit seed (advances
// and returns the next value), seed == 0 (returns the last generated
// value without advancing, or 0 if nothing has been generated yet), and
// seed < 0 (reseeds deterministically from the seed and returns the
// first post-reseed value without a further advance — see DESIGN.md's
// Open Question resolution for the exact reseed derivation, since the
// original delegates this path to a general-purpose PRNG out of scope
// for bit-exact reproduction).
func (r *RandomContext) Rnd(seed float64) float64 {
	switch {
	case seed > 0:
		return r.next()
	case seed == 0:
		if !r.hasLast {
			return 0
		}
		return r.last
	default:
		r.state = uint32(int32(seed))*1103515245 + 12345
		r.state %= lcgMask
		return r.next()
	}
}

// RndNoArg implements the no-argument Rnd() call, equivalent to a
// positive seed: always advances.
func (r *RandomContext) RndNoArg() float64 {
	return r.next()
}
