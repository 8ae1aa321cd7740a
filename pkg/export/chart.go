package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/ehsim/core/profile"
	"github.com/kilianp07/ehsim/core/simulation"
)

// WriteProfileHTML renders the sampled profile as a line chart with one
// series per commodity.
func WriteProfileHTML(w io.Writer, p *profile.LoadProfile, h simulation.Horizon) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Meter profile"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Power (W)"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	x := make([]string, h.Slots)
	for i := range x {
		x[i] = time.Unix(h.SlotTime(i), 0).UTC().Format("2006-01-02 15:04")
	}
	line.SetXAxis(x)
	for _, c := range p.Commodities() {
		data := make([]opts.LineData, h.Slots)
		for i := range data {
			data[i] = opts.LineData{Value: p.ValueAt(c, h.SlotTime(i))}
		}
		line.AddSeries(c.String(), data, charts.WithLineChartOpts(opts.LineChart{Step: "start"}))
	}
	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
