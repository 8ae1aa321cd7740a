package profile

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/ehsim/core/commodity"
	"github.com/kilianp07/ehsim/core/state"
)

// Point is a change point of a series: from T (unix seconds) on, the power
// is V until the next point or the end of the profile.
type Point struct {
	T int64   `json:"t"`
	V float64 `json:"v"`
}

// LoadProfile is a sparse commodity to power series. Only change points are
// stored; consecutive equal values collapse into one point.
type LoadProfile struct {
	series map[commodity.Commodity][]Point
	start  int64
	end    int64
}

// New returns an empty profile covering [start, end).
func New(start, end int64) *LoadProfile {
	return &LoadProfile{series: make(map[commodity.Commodity][]Point), start: start, end: end}
}

// Start returns the first covered second.
func (p *LoadProfile) Start() int64 { return p.start }

// End returns the first second after the profile.
func (p *LoadProfile) End() int64 { return p.end }

// SetEnd moves the end of the profile.
func (p *LoadProfile) SetEnd(t int64) { p.end = t }

// Set records the power of c from t on. Points must be recorded in
// non-decreasing time order; a point at the time of the last one replaces it.
func (p *LoadProfile) Set(c commodity.Commodity, t int64, v float64) {
	pts := p.series[c]
	n := len(pts)
	if n > 0 && pts[n-1].T == t {
		pts = pts[:n-1]
		n--
	}
	if n > 0 && pts[n-1].V == v {
		p.series[c] = pts
		return
	}
	p.series[c] = append(pts, Point{T: t, V: v})
}

// Commodities returns the commodities with at least one point, in ordinal order.
func (p *LoadProfile) Commodities() []commodity.Commodity {
	out := make([]commodity.Commodity, 0, len(p.series))
	for c := range p.series {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Points returns a copy of the change points of c.
func (p *LoadProfile) Points(c commodity.Commodity) []Point {
	pts := p.series[c]
	out := make([]Point, len(pts))
	copy(out, pts)
	return out
}

// ValueAt returns the power of c at t, 0 before the first point.
func (p *LoadProfile) ValueAt(c commodity.Commodity, t int64) float64 {
	pts := p.series[c]
	i := sort.Search(len(pts), func(i int) bool { return pts[i].T > t })
	if i == 0 {
		return 0
	}
	return pts[i-1].V
}

// Energy integrates the power of c over the profile in watt-seconds.
func (p *LoadProfile) Energy(c commodity.Commodity) float64 {
	pts := p.series[c]
	if len(pts) == 0 {
		return 0
	}
	vals := make([]float64, len(pts))
	durs := make([]float64, len(pts))
	for i, pt := range pts {
		next := p.end
		if i+1 < len(pts) {
			next = pts[i+1].T
		}
		vals[i] = pt.V
		if next > pt.T {
			durs[i] = float64(next - pt.T)
		}
	}
	return floats.Dot(vals, durs)
}

// Compress returns a copy in which a point is kept only if it differs from
// the last kept value by more than tolerance.
func (p *LoadProfile) Compress(tolerance float64) *LoadProfile {
	out := New(p.start, p.end)
	for c, pts := range p.series {
		kept := make([]Point, 0, len(pts))
		for _, pt := range pts {
			if n := len(kept); n > 0 && math.Abs(kept[n-1].V-pt.V) <= tolerance {
				continue
			}
			kept = append(kept, pt)
		}
		out.series[c] = kept
	}
	return out
}

// Merge returns the point-wise sum of p and o over the union of both ranges.
func (p *LoadProfile) Merge(o *LoadProfile) *LoadProfile {
	start, end := p.start, p.end
	if o.start < start {
		start = o.start
	}
	if o.end > end {
		end = o.end
	}
	out := New(start, end)
	seen := make(map[commodity.Commodity]bool)
	for _, c := range append(p.Commodities(), o.Commodities()...) {
		if seen[c] {
			continue
		}
		seen[c] = true
		times := mergeTimes(p.series[c], o.series[c])
		for _, t := range times {
			out.Set(c, t, p.ValueAt(c, t)+o.ValueAt(c, t))
		}
	}
	return out
}

func mergeTimes(a, b []Point) []int64 {
	ts := make([]int64, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		var t int64
		switch {
		case j >= len(b) || (i < len(a) && a[i].T < b[j].T):
			t = a[i].T
			i++
		case i >= len(a) || b[j].T < a[i].T:
			t = b[j].T
			j++
		default:
			t = a[i].T
			i++
			j++
		}
		ts = append(ts, t)
	}
	return ts
}

// Record appends the powers of m at t. Commodities that are declared but not
// present count as zero once their series has started.
func (p *LoadProfile) Record(t int64, m *state.Map) {
	for _, c := range m.Slots().Commodities() {
		v := 0.0
		if m.Contains(c) {
			v = m.Power(c)
		}
		if _, ok := p.series[c]; !ok && v == 0 {
			continue
		}
		p.Set(c, t, v)
	}
}
