package problem

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/ehsim/core/commodity"
	"github.com/kilianp07/ehsim/core/profile"
	"github.com/kilianp07/ehsim/core/simulation"
)

// Summary aggregates the meter profile of one run. Energies are in kWh,
// powers in W.
type Summary struct {
	ImportKWh  float64 `json:"import_kwh"`
	ExportKWh  float64 `json:"export_kwh"`
	GasKWh     float64 `json:"gas_kwh"`
	PeakImport float64 `json:"peak_import_w"`
	MeanPower  float64 `json:"mean_power_w"`
}

// Summarize samples meter once per slot.
func Summarize(meter *profile.LoadProfile, h simulation.Horizon) Summary {
	el := make([]float64, h.Slots)
	gas := make([]float64, h.Slots)
	for i := range el {
		t := h.SlotTime(i)
		el[i] = meter.ValueAt(commodity.ActivePower, t)
		gas[i] = meter.ValueAt(commodity.NaturalGasPower, t)
	}
	imp := make([]float64, len(el))
	exp := make([]float64, len(el))
	for i, v := range el {
		if v > 0 {
			imp[i] = v
		} else {
			exp[i] = -v
		}
	}
	toKWh := h.StepHours() / 1000
	s := Summary{
		ImportKWh: floats.Sum(imp) * toKWh,
		ExportKWh: floats.Sum(exp) * toKWh,
		GasKWh:    floats.Sum(gas) * toKWh,
	}
	if len(el) > 0 {
		s.PeakImport = floats.Max(imp)
		s.MeanPower = stat.Mean(el, nil)
	}
	return s
}

// Pricing turns meter energy into cost. Zero prices disable the meter cost.
type Pricing struct {
	ImportPerKWh float64 `json:"price_per_kwh"`
	FeedInPerKWh float64 `json:"feed_in_per_kwh"`
	GasPerKWh    float64 `json:"gas_per_kwh"`
}

// Cost returns import and gas cost minus feed-in revenue.
func (p Pricing) Cost(s Summary) float64 {
	return s.ImportKWh*p.ImportPerKWh + s.GasKWh*p.GasPerKWh - s.ExportKWh*p.FeedInPerKWh
}
