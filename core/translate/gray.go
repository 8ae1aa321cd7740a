package translate

import "math"

// SignificantPlaces is the decimal precision kept when doubles are encoded
// as bit groups.
const SignificantPlaces = 6

var doubleScale = math.Pow10(SignificantPlaces)

// maxBits bounds a single bit group so that it fits an uint64 with headroom.
const maxBits = 62

// BitsForRange returns the number of bits needed for an integer range:
// 0 for a constant, 1 for a range of one, ceil(log2(r)) otherwise.
func BitsForRange(r float64) int {
	switch {
	case r <= 0:
		return 0
	case r <= 1:
		return 1
	}
	n := int(math.Ceil(math.Log2(r)))
	if n > maxBits {
		return maxBits
	}
	return n
}

func scaledRange(b Bounds) float64 { return math.Round(b.Range() * doubleScale) }

// GrayDecode reads a gray-coded group, most significant bit first.
func GrayDecode(bits []bool) uint64 {
	var v uint64
	prev := false
	for _, g := range bits {
		cur := prev != g
		v <<= 1
		if cur {
			v |= 1
		}
		prev = cur
	}
	return v
}

// GrayEncode writes v as a gray-coded group of len(dst) bits, most
// significant bit first.
func GrayEncode(dst []bool, v uint64) {
	g := v ^ (v >> 1)
	n := len(dst)
	for i := range dst {
		dst[i] = g&(1<<uint(n-1-i)) != 0
	}
}

// rescale maps a decoded group value onto [0, r].
func rescale(v uint64, bits int, r float64) float64 {
	return math.Round(float64(v) / math.Exp2(float64(bits)) * r)
}

// quantize is the inverse of rescale.
func quantize(x float64, bits int, r float64) uint64 {
	if bits == 0 || r <= 0 {
		return 0
	}
	top := math.Exp2(float64(bits))
	q := math.Round(x / r * top)
	if q < 0 {
		q = 0
	}
	if q > top-1 {
		q = top - 1
	}
	return uint64(q)
}
