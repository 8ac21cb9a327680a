package crops

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// Random is a stand-in oracle for running without field data. Instead of
// rolling a dice per call it hashes the quantized query location, so the same
// location always gives the same answer within a run and across runs with the
// same seed. Locations are quantized to the query width, matching the
// planner's sampling lattice.
type Random struct {
	seed    uint64
	density float64
}

// NewRandom returns a Random oracle. density is the fraction of locations
// carrying crop, clamped to [0, 1].
func NewRandom(seed uint64, density float64) *Random {
	return &Random{seed: seed, density: math.Min(math.Max(density, 0), 1)}
}

// HasFruit hashes the quantized location against the density threshold.
func (r *Random) HasFruit(x, y, width float64) bool {
	if r.density <= 0 {
		return false
	}
	if r.density >= 1 {
		return true
	}

	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], r.seed)
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(quantize(x, width)))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(quantize(y, width)))
	h.Write(buf[:])

	return float64(h.Sum64()%10000)/10000 < r.density
}

// quantize snaps a coordinate to its width-sized cell.
func quantize(v, width float64) float64 {
	if width <= 0 {
		return v
	}
	return math.Floor(v/width) * width
}
