package translate

import (
	"errors"
	"fmt"
	"math"
)

// ErrHoldUnrepresentable is returned when Hold is encoded into a one-bit group.
var ErrHoldUnrepresentable = errors.New("hold needs at least two bits per activation")

// BinaryBiState encodes boolean variables as transition signals: a group of
// BitsPerActivation bits that are all set turns the device on, all clear
// turns it off, anything else holds the previous state. Longs and doubles
// use the full-range encoding.
type BinaryBiState struct {
	binaryCodec
	bits int
}

// NewBinaryBiState returns a bi-state binary translator.
func NewBinaryBiState(bitsPerActivation int) (BinaryBiState, error) {
	if bitsPerActivation < 1 || bitsPerActivation > maxBits {
		return BinaryBiState{}, fmt.Errorf("bits per activation must be in [1,%d], got %d", maxBits, bitsPerActivation)
	}
	s := Scheme{Representation: Binary, BiState: true, Bits: bitsPerActivation}
	return BinaryBiState{binaryCodec: binaryCodec{scheme: s}, bits: bitsPerActivation}, nil
}

// Describe implements Translator.
func (b BinaryBiState) Describe(shape Shape) (VariableInfo, error) {
	return b.describe(shape, b.bits)
}

// DecodeTransitions implements TransitionCodec.
func (b BinaryBiState) DecodeTransitions(s []bool, info VariableInfo) ([]Transition, error) {
	if err := check(b.scheme, s, info, Boolean); err != nil {
		return nil, err
	}
	out := make([]Transition, info.Count)
	pos := info.Offset
	for i, w := range info.Widths {
		out[i] = groupTransition(s[pos : pos+w])
		pos += w
	}
	return out, nil
}

func groupTransition(g []bool) Transition {
	ones := 0
	for _, bit := range g {
		if bit {
			ones++
		}
	}
	switch ones {
	case len(g):
		return TurnOn
	case 0:
		return TurnOff
	default:
		return Hold
	}
}

// EncodeTransitions implements TransitionCodec. Hold is written as a group
// whose first bit is set and the rest clear.
func (b BinaryBiState) EncodeTransitions(dst []bool, info VariableInfo, v []Transition) error {
	if err := check(b.scheme, dst, info, Boolean); err != nil {
		return err
	}
	if err := checkLen(info, len(v)); err != nil {
		return err
	}
	pos := info.Offset
	for i, w := range info.Widths {
		g := dst[pos : pos+w]
		switch v[i] {
		case TurnOn, TurnOff:
			for j := range g {
				g[j] = v[i] == TurnOn
			}
		case Hold:
			if w < 2 {
				return ErrHoldUnrepresentable
			}
			g[0] = true
			for j := 1; j < w; j++ {
				g[j] = false
			}
		default:
			return fmt.Errorf("invalid transition %d", v[i])
		}
		pos += w
	}
	return nil
}

// DecodeBooleans resolves the transitions starting from the off state.
func (b BinaryBiState) DecodeBooleans(s []bool, info VariableInfo) ([]bool, error) {
	ts, err := b.DecodeTransitions(s, info)
	if err != nil {
		return nil, err
	}
	return ResolveTransitions(false, ts), nil
}

// EncodeBooleans writes absolute states as explicit on/off transitions.
func (b BinaryBiState) EncodeBooleans(dst []bool, info VariableInfo, v []bool) error {
	return b.EncodeTransitions(dst, info, absolute(v))
}

// RealBiState encodes boolean variables as transition signals in [0,1]:
// values below 2^-BitsPerState turn off, values above 1-2^-BitsPerState
// turn on, the middle band holds. Longs and doubles use the full-range
// encoding.
type RealBiState struct {
	realCodec
	band float64
}

// NewRealBiState returns a bi-state real translator.
func NewRealBiState(bitsPerState int) (RealBiState, error) {
	if bitsPerState < 1 || bitsPerState > maxBits {
		return RealBiState{}, fmt.Errorf("bits per state must be in [1,%d], got %d", maxBits, bitsPerState)
	}
	s := Scheme{Representation: Real, BiState: true, Bits: bitsPerState}
	return RealBiState{realCodec: realCodec{scheme: s}, band: math.Exp2(-float64(bitsPerState))}, nil
}

// Band returns the width of the off and on bands.
func (r RealBiState) Band() float64 { return r.band }

// DecodeTransitions implements TransitionCodec.
func (r RealBiState) DecodeTransitions(s []float64, info VariableInfo) ([]Transition, error) {
	if err := check(r.scheme, s, info, Boolean); err != nil {
		return nil, err
	}
	out := make([]Transition, info.Count)
	for i := range out {
		v := s[info.Offset+i]
		switch {
		case v < r.band:
			out[i] = TurnOff
		case v > 1-r.band:
			out[i] = TurnOn
		case r.band == 0.5:
			// no middle band: the boundary itself belongs to "on"
			out[i] = TurnOn
		default:
			out[i] = Hold
		}
	}
	return out, nil
}

// EncodeTransitions implements TransitionCodec.
func (r RealBiState) EncodeTransitions(dst []float64, info VariableInfo, v []Transition) error {
	if err := check(r.scheme, dst, info, Boolean); err != nil {
		return err
	}
	if err := checkLen(info, len(v)); err != nil {
		return err
	}
	for i, t := range v {
		switch t {
		case TurnOff:
			dst[info.Offset+i] = 0
		case TurnOn:
			dst[info.Offset+i] = 1
		case Hold:
			if r.band >= 0.5 {
				return ErrHoldUnrepresentable
			}
			dst[info.Offset+i] = 0.5
		default:
			return fmt.Errorf("invalid transition %d", t)
		}
	}
	return nil
}

// DecodeBooleans resolves the transitions starting from the off state.
func (r RealBiState) DecodeBooleans(s []float64, info VariableInfo) ([]bool, error) {
	ts, err := r.DecodeTransitions(s, info)
	if err != nil {
		return nil, err
	}
	return ResolveTransitions(false, ts), nil
}

// EncodeBooleans writes absolute states as explicit on/off transitions.
func (r RealBiState) EncodeBooleans(dst []float64, info VariableInfo, v []bool) error {
	return r.EncodeTransitions(dst, info, absolute(v))
}

func absolute(v []bool) []Transition {
	ts := make([]Transition, len(v))
	for i, on := range v {
		if on {
			ts[i] = TurnOn
		}
	}
	return ts
}
