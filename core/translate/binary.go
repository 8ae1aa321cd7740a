package translate

import "fmt"

// binaryCodec holds the full-range bit group codec shared by both binary
// translators.
type binaryCodec struct {
	scheme Scheme
}

// BinaryFullRange encodes every variable as a gray-coded bit group.
type BinaryFullRange struct {
	binaryCodec
}

// NewBinaryFullRange returns the plain binary translator.
func NewBinaryFullRange() BinaryFullRange {
	return BinaryFullRange{binaryCodec{scheme: Scheme{Representation: Binary}}}
}

// Scheme implements Translator.
func (b binaryCodec) Scheme() Scheme { return b.scheme }

// Describe implements Translator.
func (b BinaryFullRange) Describe(shape Shape) (VariableInfo, error) {
	return b.describe(shape, 1)
}

func (b binaryCodec) describe(shape Shape, boolWidth int) (VariableInfo, error) {
	bounds, err := expandBounds(shape)
	if err != nil {
		return VariableInfo{}, err
	}
	info := VariableInfo{Type: shape.Type, Count: shape.Count, Bounds: bounds, Widths: make([]int, shape.Count), scheme: b.scheme}
	for i := range info.Widths {
		switch shape.Type {
		case Boolean:
			info.Widths[i] = boolWidth
		case Long:
			info.Widths[i] = BitsForRange(bounds[i].Range())
		case Double:
			info.Widths[i] = BitsForRange(scaledRange(bounds[i]))
		default:
			return VariableInfo{}, fmt.Errorf("unknown variable type %d", shape.Type)
		}
		info.Length += info.Widths[i]
	}
	return info, nil
}

// DecodeBooleans implements Translator.
func (b BinaryFullRange) DecodeBooleans(s []bool, info VariableInfo) ([]bool, error) {
	if err := check(b.scheme, s, info, Boolean); err != nil {
		return nil, err
	}
	out := make([]bool, info.Count)
	copy(out, s[info.Offset:info.Offset+info.Count])
	return out, nil
}

// EncodeBooleans implements Translator.
func (b BinaryFullRange) EncodeBooleans(dst []bool, info VariableInfo, v []bool) error {
	if err := check(b.scheme, dst, info, Boolean); err != nil {
		return err
	}
	if err := checkLen(info, len(v)); err != nil {
		return err
	}
	copy(dst[info.Offset:], v)
	return nil
}

// DecodeLongs implements Translator.
func (b binaryCodec) DecodeLongs(s []bool, info VariableInfo) ([]int64, error) {
	if err := check(b.scheme, s, info, Long); err != nil {
		return nil, err
	}
	out := make([]int64, info.Count)
	pos := info.Offset
	for i, w := range info.Widths {
		bd := info.Bounds[i]
		v := rescale(GrayDecode(s[pos:pos+w]), w, bd.Range()) + bd.Min
		out[i] = int64(clamp(v, bd.Min, bd.Max))
		pos += w
	}
	return out, nil
}

// EncodeLongs implements Translator. A group decodes at most to
// round((2^w-1)/2^w * range) + min, so unless the range is 1 the upper bound
// itself is not representable and encodes as the closest value below it.
func (b binaryCodec) EncodeLongs(dst []bool, info VariableInfo, v []int64) error {
	if err := check(b.scheme, dst, info, Long); err != nil {
		return err
	}
	if err := checkLen(info, len(v)); err != nil {
		return err
	}
	pos := info.Offset
	for i, w := range info.Widths {
		bd := info.Bounds[i]
		x := clamp(float64(v[i]), bd.Min, bd.Max) - bd.Min
		GrayEncode(dst[pos:pos+w], quantize(x, w, bd.Range()))
		pos += w
	}
	return nil
}

// DecodeDoubles implements Translator. Values are decoded at
// SignificantPlaces precision and clamped into their bounds.
func (b binaryCodec) DecodeDoubles(s []bool, info VariableInfo) ([]float64, error) {
	if err := check(b.scheme, s, info, Double); err != nil {
		return nil, err
	}
	out := make([]float64, info.Count)
	pos := info.Offset
	for i, w := range info.Widths {
		bd := info.Bounds[i]
		v := rescale(GrayDecode(s[pos:pos+w]), w, scaledRange(bd))/doubleScale + bd.Min
		out[i] = clamp(v, bd.Min, bd.Max)
		pos += w
	}
	return out, nil
}

// EncodeDoubles implements Translator.
func (b binaryCodec) EncodeDoubles(dst []bool, info VariableInfo, v []float64) error {
	if err := check(b.scheme, dst, info, Double); err != nil {
		return err
	}
	if err := checkLen(info, len(v)); err != nil {
		return err
	}
	pos := info.Offset
	for i, w := range info.Widths {
		bd := info.Bounds[i]
		x := (clamp(v[i], bd.Min, bd.Max) - bd.Min) * doubleScale
		GrayEncode(dst[pos:pos+w], quantize(x, w, scaledRange(bd)))
		pos += w
	}
	return nil
}
