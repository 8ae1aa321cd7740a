package problem

import (
	"github.com/google/uuid"

	"github.com/kilianp07/ehsim/core/device"
	"github.com/kilianp07/ehsim/core/translate"
)

// Snapshot is the decoded schedule of one candidate.
type Snapshot struct {
	Scheme string         `json:"scheme"`
	Length int            `json:"length"`
	Parts  []PartSchedule `json:"parts"`
}

// PartSchedule holds the decoded blocks of one part.
type PartSchedule struct {
	ID     uuid.UUID          `json:"id"`
	Name   string             `json:"name"`
	Blocks []translate.Values `json:"blocks,omitempty"`
}

// Snapshot decodes s without simulating it. Bi-state blocks report the
// absolute states the part runs with, starting from its initial state.
func (p *Problem[S]) Snapshot(s S) (*Snapshot, error) {
	values, err := p.Decode(s)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Scheme: p.tr.Scheme().String(),
		Length: p.layout.Len(),
		Parts:  make([]PartSchedule, len(p.parts)),
	}
	for i, part := range p.parts {
		if sw, ok := part.(device.Switchable); ok && sw.InitiallyOn() {
			for j, v := range values[i] {
				if len(v.Transitions) > 0 {
					values[i][j].Booleans = translate.ResolveTransitions(true, v.Transitions)
				}
			}
		}
		snap.Parts[i] = PartSchedule{ID: part.ID(), Name: part.Name(), Blocks: values[i]}
	}
	return snap, nil
}

// Controllable returns the schedules that carry decision variables.
func (s *Snapshot) Controllable() []PartSchedule {
	var out []PartSchedule
	for _, p := range s.Parts {
		if len(p.Blocks) > 0 {
			out = append(out, p)
		}
	}
	return out
}
