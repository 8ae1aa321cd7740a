package translate

import (
	"errors"
	"fmt"
	"math"
)

// ErrShapeMismatch is returned when a VariableInfo does not belong to the
// translator or the solution it is used with.
var ErrShapeMismatch = errors.New("variable shape mismatch")

// VariableType is the kind of a decision variable.
type VariableType int

const (
	Boolean VariableType = iota
	Long
	Double
)

func (t VariableType) String() string {
	switch t {
	case Boolean:
		return "boolean"
	case Long:
		return "long"
	case Double:
		return "double"
	default:
		return "unknown"
	}
}

func (t VariableType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *VariableType) UnmarshalText(b []byte) error {
	for _, v := range []VariableType{Boolean, Long, Double} {
		if v.String() == string(b) {
			*t = v
			return nil
		}
	}
	return fmt.Errorf("unknown variable type %q", b)
}

// Bounds is the closed value range of a long or double variable.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Range returns Max-Min.
func (b Bounds) Range() float64 { return b.Max - b.Min }

// Shape describes a block of variables a device needs for one horizon.
// Bounds holds either one entry shared by all variables or one per variable;
// it is ignored for booleans.
type Shape struct {
	Type   VariableType
	Count  int
	Bounds []Bounds
}

// Representation is the solution encoding family.
type Representation string

const (
	Binary Representation = "binary"
	Real   Representation = "real"
)

// Scheme identifies a translator configuration. Two translators agree on
// sizing if and only if their schemes are equal.
type Scheme struct {
	Representation Representation
	BiState        bool
	// Bits is the bits-per-activation (binary) or bits-per-state (real)
	// of the bi-state variants, zero otherwise.
	Bits int
}

func (s Scheme) String() string {
	if s.BiState {
		return fmt.Sprintf("%s-bistate-%d", s.Representation, s.Bits)
	}
	return fmt.Sprintf("%s-fullrange", s.Representation)
}

// VariableInfo is the result of sizing a Shape. It must be produced by the
// translator that later decodes with it.
type VariableInfo struct {
	Type   VariableType
	Count  int
	Bounds []Bounds
	// Widths holds the encoded length of each variable.
	Widths []int
	// Offset is the position of the first variable in the solution.
	Offset int
	// Length is the sum of Widths.
	Length int

	scheme Scheme
}

// Scheme returns the scheme of the translator that sized the block.
func (i VariableInfo) Scheme() Scheme { return i.scheme }

// At returns a copy of i positioned at offset.
func (i VariableInfo) At(offset int) VariableInfo {
	i.Offset = offset
	return i
}

// Transition is a bi-state per-slot signal.
type Transition uint8

const (
	TurnOff Transition = 0
	TurnOn  Transition = 1
	Hold    Transition = 2
)

func (t Transition) String() string {
	switch t {
	case TurnOff:
		return "off"
	case TurnOn:
		return "on"
	case Hold:
		return "hold"
	default:
		return "invalid"
	}
}

func (t Transition) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Transition) UnmarshalText(b []byte) error {
	for _, v := range []Transition{TurnOff, TurnOn, Hold} {
		if v.String() == string(b) {
			*t = v
			return nil
		}
	}
	return fmt.Errorf("unknown transition %q", b)
}

// Translator converts between an optimizer solution vector and typed
// decision variables.
type Translator[S any] interface {
	Scheme() Scheme
	// Describe sizes a block of variables. It must be called before any
	// decode or encode of that block.
	Describe(shape Shape) (VariableInfo, error)
	DecodeBooleans(s S, info VariableInfo) ([]bool, error)
	DecodeLongs(s S, info VariableInfo) ([]int64, error)
	DecodeDoubles(s S, info VariableInfo) ([]float64, error)
	EncodeBooleans(dst S, info VariableInfo, v []bool) error
	EncodeLongs(dst S, info VariableInfo, v []int64) error
	EncodeDoubles(dst S, info VariableInfo, v []float64) error
}

// TransitionCodec is implemented by the bi-state translators.
type TransitionCodec[S any] interface {
	DecodeTransitions(s S, info VariableInfo) ([]Transition, error)
	EncodeTransitions(dst S, info VariableInfo, v []Transition) error
}

// ResolveTransitions turns transitions into absolute on/off states. Hold
// keeps the previous state, starting from initial.
func ResolveTransitions(initial bool, ts []Transition) []bool {
	out := make([]bool, len(ts))
	cur := initial
	for i, t := range ts {
		switch t {
		case TurnOn:
			cur = true
		case TurnOff:
			cur = false
		}
		out[i] = cur
	}
	return out
}

// Values holds one decoded block.
type Values struct {
	Type        VariableType `json:"type"`
	Booleans    []bool       `json:"booleans,omitempty"`
	Transitions []Transition `json:"transitions,omitempty"`
	Longs       []int64      `json:"longs,omitempty"`
	Doubles     []float64    `json:"doubles,omitempty"`
}

// Decode decodes one block according to its type. Bi-state translators also
// fill Transitions for boolean blocks.
func Decode[S any](t Translator[S], s S, info VariableInfo) (Values, error) {
	v := Values{Type: info.Type}
	var err error
	switch info.Type {
	case Boolean:
		if tc, ok := t.(TransitionCodec[S]); ok {
			if v.Transitions, err = tc.DecodeTransitions(s, info); err != nil {
				return v, err
			}
			v.Booleans = ResolveTransitions(false, v.Transitions)
			return v, nil
		}
		v.Booleans, err = t.DecodeBooleans(s, info)
	case Long:
		v.Longs, err = t.DecodeLongs(s, info)
	case Double:
		v.Doubles, err = t.DecodeDoubles(s, info)
	default:
		err = fmt.Errorf("%w: unknown variable type %d", ErrShapeMismatch, info.Type)
	}
	return v, err
}

// Layout places sized blocks one after another in a solution vector.
type Layout struct {
	Blocks []VariableInfo
	length int
}

// Add appends info and returns it with its offset assigned.
func (l *Layout) Add(info VariableInfo) VariableInfo {
	info = info.At(l.length)
	l.length += info.Length
	l.Blocks = append(l.Blocks, info)
	return info
}

// Len returns the total solution length.
func (l *Layout) Len() int { return l.length }

func expandBounds(shape Shape) ([]Bounds, error) {
	if shape.Count < 0 {
		return nil, fmt.Errorf("negative variable count %d", shape.Count)
	}
	if shape.Type == Boolean {
		return nil, nil
	}
	var out []Bounds
	switch len(shape.Bounds) {
	case 1:
		out = make([]Bounds, shape.Count)
		for i := range out {
			out[i] = shape.Bounds[0]
		}
	case shape.Count:
		out = append([]Bounds(nil), shape.Bounds...)
	default:
		return nil, fmt.Errorf("expected 1 or %d bounds, got %d", shape.Count, len(shape.Bounds))
	}
	for i, b := range out {
		if math.IsNaN(b.Min) || math.IsNaN(b.Max) || b.Min > b.Max {
			return nil, fmt.Errorf("invalid bounds %d: [%v,%v]", i, b.Min, b.Max)
		}
		if shape.Type == Long {
			out[i] = Bounds{Min: math.Round(b.Min), Max: math.Round(b.Max)}
		}
	}
	return out, nil
}

func check[E any](scheme Scheme, s []E, info VariableInfo, want VariableType) error {
	if info.scheme != scheme {
		return fmt.Errorf("%w: sized by %s, used with %s", ErrShapeMismatch, info.scheme, scheme)
	}
	if info.Type != want {
		return fmt.Errorf("%w: block holds %s, requested %s", ErrShapeMismatch, info.Type, want)
	}
	if info.Offset < 0 || info.Offset+info.Length > len(s) {
		return fmt.Errorf("%w: block [%d,%d) outside solution of length %d",
			ErrShapeMismatch, info.Offset, info.Offset+info.Length, len(s))
	}
	return nil
}

func checkLen(info VariableInfo, n int) error {
	if n != info.Count {
		return fmt.Errorf("%w: %d values for %d variables", ErrShapeMismatch, n, info.Count)
	}
	return nil
}

func floorMod(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var (
	_ Translator[[]bool]         = BinaryFullRange{}
	_ Translator[[]bool]         = BinaryBiState{}
	_ Translator[[]float64]      = RealFullRange{}
	_ Translator[[]float64]      = RealBiState{}
	_ TransitionCodec[[]bool]    = BinaryBiState{}
	_ TransitionCodec[[]float64] = RealBiState{}
)
