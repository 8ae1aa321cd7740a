package device

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kilianp07/ehsim/core/commodity"
	"github.com/kilianp07/ehsim/core/profile"
	"github.com/kilianp07/ehsim/core/simulation"
	"github.com/kilianp07/ehsim/core/state"
)

// CompressionTolerance is the power difference in watts below which
// consecutive profile points are merged on Finalize.
const CompressionTolerance = 1.0

// Base carries the identity, lifecycle, cost and load profile shared by all
// device models.
type Base struct {
	Lifecycle

	id          uuid.UUID
	name        string
	commodities []commodity.Commodity

	cost    float64
	starts  int
	profile *profile.LoadProfile
}

func newBase(id uuid.UUID, name string, cs ...commodity.Commodity) Base {
	if name == "" {
		name = id.String()
	}
	return Base{id: id, name: name, commodities: cs}
}

func (b *Base) ID() uuid.UUID                      { return b.id }
func (b *Base) Name() string                       { return b.name }
func (b *Base) Commodities() []commodity.Commodity { return b.commodities }
func (b *Base) Cost() float64                      { return b.cost }

// fork returns a copy with the static fields only.
func (b *Base) fork() Base {
	return Base{id: b.id, name: b.name, commodities: b.commodities}
}

func (b *Base) begin(h simulation.Horizon) error {
	if err := b.Lifecycle.Begin(h); err != nil {
		return fmt.Errorf("%s: %w", b.name, err)
	}
	b.cost, b.starts = 0, 0
	b.profile = profile.New(h.Start, h.End())
	return nil
}

func (b *Base) advance() (int, int64, error) {
	slot, t, err := b.Lifecycle.Advance()
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", b.name, err)
	}
	return slot, t, nil
}

func (b *Base) record(t int64, m *state.Map) {
	if m != nil {
		b.profile.Record(t, m)
	}
}

func (b *Base) end() (Result, error) {
	if err := b.Lifecycle.End(); err != nil {
		return Result{}, fmt.Errorf("%s: %w", b.name, err)
	}
	return Result{
		ID:      b.id,
		Name:    b.name,
		Cost:    b.cost,
		Starts:  b.starts,
		Profile: b.profile.Compress(CompressionTolerance),
	}, nil
}

func parseID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, fmt.Errorf("id is required")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("id %q: %w", s, err)
	}
	return id, nil
}
