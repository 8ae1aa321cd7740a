package translate

import (
	"fmt"
	"math"
)

// booleanThreshold splits the real line into false (below) and true.
const booleanThreshold = 0.5

type realCodec struct {
	scheme Scheme
}

// RealFullRange encodes every variable as one double.
type RealFullRange struct {
	realCodec
}

// NewRealFullRange returns the plain real-valued translator.
func NewRealFullRange() RealFullRange {
	return RealFullRange{realCodec{scheme: Scheme{Representation: Real}}}
}

// Scheme implements Translator.
func (r realCodec) Scheme() Scheme { return r.scheme }

// Describe implements Translator.
func (r realCodec) Describe(shape Shape) (VariableInfo, error) {
	bounds, err := expandBounds(shape)
	if err != nil {
		return VariableInfo{}, err
	}
	switch shape.Type {
	case Boolean, Long, Double:
	default:
		return VariableInfo{}, fmt.Errorf("unknown variable type %d", shape.Type)
	}
	info := VariableInfo{Type: shape.Type, Count: shape.Count, Bounds: bounds, Widths: make([]int, shape.Count), Length: shape.Count, scheme: r.scheme}
	for i := range info.Widths {
		info.Widths[i] = 1
	}
	return info, nil
}

// DecodeBooleans implements Translator.
func (r RealFullRange) DecodeBooleans(s []float64, info VariableInfo) ([]bool, error) {
	if err := check(r.scheme, s, info, Boolean); err != nil {
		return nil, err
	}
	out := make([]bool, info.Count)
	for i := range out {
		out[i] = s[info.Offset+i] >= booleanThreshold
	}
	return out, nil
}

// EncodeBooleans implements Translator.
func (r RealFullRange) EncodeBooleans(dst []float64, info VariableInfo, v []bool) error {
	if err := check(r.scheme, dst, info, Boolean); err != nil {
		return err
	}
	if err := checkLen(info, len(v)); err != nil {
		return err
	}
	for i, b := range v {
		dst[info.Offset+i] = 0
		if b {
			dst[info.Offset+i] = 1
		}
	}
	return nil
}

// DecodeLongs implements Translator. Values are rounded and wrapped into
// their bounds when outside. NaN and infinite genes decode to the minimum.
func (r realCodec) DecodeLongs(s []float64, info VariableInfo) ([]int64, error) {
	if err := check(r.scheme, s, info, Long); err != nil {
		return nil, err
	}
	out := make([]int64, info.Count)
	for i := range out {
		bd := info.Bounds[i]
		v := math.Round(finiteOr(s[info.Offset+i], bd.Min))
		if v < bd.Min || v > bd.Max {
			v = bd.Min + floorMod(v-bd.Min, bd.Range()+1)
		}
		out[i] = int64(v)
	}
	return out, nil
}

// EncodeLongs implements Translator.
func (r realCodec) EncodeLongs(dst []float64, info VariableInfo, v []int64) error {
	if err := check(r.scheme, dst, info, Long); err != nil {
		return err
	}
	if err := checkLen(info, len(v)); err != nil {
		return err
	}
	for i, x := range v {
		dst[info.Offset+i] = float64(x)
	}
	return nil
}

// DecodeDoubles implements Translator. Values outside their bounds are
// wrapped back in. NaN and infinite genes decode to the minimum.
func (r realCodec) DecodeDoubles(s []float64, info VariableInfo) ([]float64, error) {
	if err := check(r.scheme, s, info, Double); err != nil {
		return nil, err
	}
	out := make([]float64, info.Count)
	for i := range out {
		bd := info.Bounds[i]
		v := finiteOr(s[info.Offset+i], bd.Min)
		if v < bd.Min || v > bd.Max {
			if bd.Range() == 0 {
				v = bd.Min
			} else {
				v = bd.Min + floorMod(v-bd.Min, bd.Range())
			}
		}
		out[i] = v
	}
	return out, nil
}

// EncodeDoubles implements Translator.
func (r realCodec) EncodeDoubles(dst []float64, info VariableInfo, v []float64) error {
	if err := check(r.scheme, dst, info, Double); err != nil {
		return err
	}
	if err := checkLen(info, len(v)); err != nil {
		return err
	}
	copy(dst[info.Offset:], v)
	return nil
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
