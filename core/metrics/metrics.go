package metrics

import (
	"time"

	"github.com/kilianp07/ehsim/core/commodity"
	"github.com/kilianp07/ehsim/core/problem"
	"github.com/kilianp07/ehsim/core/profile"
	"github.com/kilianp07/ehsim/core/simulation"
)

// PartResult is the outcome of one device in the best candidate.
type PartResult struct {
	ID     string
	Name   string
	Cost   float64
	Starts int
	// EnergyKWh holds the net energy per commodity name.
	EnergyKWh map[string]float64
}

// RunResult summarises a finished optimisation run.
type RunResult struct {
	RunID        string
	BestInstance string
	Time         time.Time
	Cost         float64
	PartCost     float64
	MeterCost    float64
	Summary      problem.Summary
	Parts        []PartResult
	Evaluations  int
}

// NewRunResult builds a RunResult from the best evaluation of a run.
func NewRunResult(runID, instance string, evaluations int, ev *problem.Evaluation) RunResult {
	r := RunResult{
		RunID:        runID,
		BestInstance: instance,
		Time:         time.Now(),
		Cost:         ev.Cost,
		PartCost:     ev.PartCost,
		MeterCost:    ev.MeterCost,
		Summary:      ev.Summary,
		Evaluations:  evaluations,
	}
	for _, p := range ev.Parts {
		pr := PartResult{ID: p.ID.String(), Name: p.Name, Cost: p.Cost, Starts: p.Starts, EnergyKWh: map[string]float64{}}
		if p.Profile != nil {
			for _, c := range p.Profile.Commodities() {
				pr.EnergyKWh[c.String()] = p.Profile.Energy(c) / 3.6e6
			}
		}
		r.Parts = append(r.Parts, pr)
	}
	return r
}

// MeterSample is the meter power of one commodity at one slot.
type MeterSample struct {
	Time      time.Time
	Commodity commodity.Commodity
	Power     float64
}

// MeterSamples samples meter once per slot of h for every commodity it
// carries.
func MeterSamples(meter *profile.LoadProfile, h simulation.Horizon) []MeterSample {
	var out []MeterSample
	for _, c := range meter.Commodities() {
		for i := 0; i < h.Slots; i++ {
			t := h.SlotTime(i)
			out = append(out, MeterSample{Time: time.Unix(t, 0).UTC(), Commodity: c, Power: meter.ValueAt(c, t)})
		}
	}
	return out
}

// ResultSink records the outcome of optimisation runs.
type ResultSink interface {
	RecordRun(res RunResult) error
}

// MeterRecorder is implemented by sinks able to store the meter series of
// the best candidate.
type MeterRecorder interface {
	RecordMeter(runID string, samples []MeterSample) error
}

// ProgressEvent is an improvement found during a run.
type ProgressEvent struct {
	RunID     string
	Instance  string
	Iteration int
	Cost      float64
	Time      time.Time
}

// ProgressRecorder is implemented by sinks able to trace optimizer
// progress.
type ProgressRecorder interface {
	RecordProgress(ev ProgressEvent) error
}

// NopSink implements ResultSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunResult) error               { return nil }
func (NopSink) RecordMeter(string, []MeterSample) error { return nil }
func (NopSink) RecordProgress(ProgressEvent) error      { return nil }

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []ResultSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...ResultSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordRun(res RunResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordRun(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordMeter forwards meter samples to the sinks that support them.
func (m *MultiSink) RecordMeter(runID string, samples []MeterSample) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(MeterRecorder); ok {
			if err := rec.RecordMeter(runID, samples); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordProgress forwards progress events to the sinks that support them.
func (m *MultiSink) RecordProgress(ev ProgressEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ProgressRecorder); ok {
			if err := rec.RecordProgress(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
