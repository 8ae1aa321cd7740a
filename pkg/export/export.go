// Package export writes simulated load profiles and decoded schedules as CSV
// or JSON. Profiles can also be rendered as an HTML chart.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/ehsim/core/problem"
	"github.com/kilianp07/ehsim/core/profile"
	"github.com/kilianp07/ehsim/core/simulation"
	"github.com/kilianp07/ehsim/core/translate"
)

// Format is an output encoding.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	HTML Format = "html"
)

// FormatOf infers the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV, nil
	case ".json":
		return JSON, nil
	case ".html":
		return HTML, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", filepath.Ext(path))
	}
}

// Row is the sampled power of every commodity at the start of one slot.
type Row struct {
	Time   time.Time          `json:"time"`
	Values map[string]float64 `json:"values"`
}

// Rows samples p once per slot of h.
func Rows(p *profile.LoadProfile, h simulation.Horizon) []Row {
	cs := p.Commodities()
	rows := make([]Row, h.Slots)
	for i := range rows {
		t := h.SlotTime(i)
		r := Row{Time: time.Unix(t, 0).UTC(), Values: make(map[string]float64, len(cs))}
		for _, c := range cs {
			r.Values[c.String()] = p.ValueAt(c, t)
		}
		rows[i] = r
	}
	return rows
}

// WriteProfileJSON writes the sampled profile to w in JSON format.
func WriteProfileJSON(w io.Writer, p *profile.LoadProfile, h simulation.Horizon) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Rows(p, h))
}

// WriteProfileCSV writes one row per slot and one column per commodity.
func WriteProfileCSV(w io.Writer, p *profile.LoadProfile, h simulation.Horizon) error {
	cs := p.Commodities()
	cw := csv.NewWriter(w)
	header := []string{"time"}
	for _, c := range cs {
		header = append(header, c.String())
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := 0; i < h.Slots; i++ {
		t := h.SlotTime(i)
		rec := []string{time.Unix(t, 0).UTC().Format(time.RFC3339)}
		for _, c := range cs {
			rec = append(rec, formatFloat(p.ValueAt(c, t)))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteScheduleJSON writes the decoded schedule to w in JSON format.
func WriteScheduleJSON(w io.Writer, snap *problem.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// WriteScheduleCSV writes one row per decoded variable of the controllable
// parts.
func WriteScheduleCSV(w io.Writer, snap *problem.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"part_id", "part", "block", "index", "type", "value"}); err != nil {
		return err
	}
	for _, part := range snap.Controllable() {
		for b, v := range part.Blocks {
			typ := v.Type.String()
			values := blockValues(v)
			if len(v.Transitions) > 0 {
				typ = "transition"
			}
			for i, val := range values {
				rec := []string{part.ID.String(), part.Name, strconv.Itoa(b), strconv.Itoa(i), typ, val}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// blockValues formats the populated value slice, preferring transitions
// over the raw booleans they were decoded from.
func blockValues(v translate.Values) []string {
	var out []string
	switch {
	case len(v.Transitions) > 0:
		for _, t := range v.Transitions {
			out = append(out, t.String())
		}
	case len(v.Booleans) > 0:
		for _, b := range v.Booleans {
			out = append(out, strconv.FormatBool(b))
		}
	case len(v.Longs) > 0:
		for _, l := range v.Longs {
			out = append(out, strconv.FormatInt(l, 10))
		}
	default:
		for _, d := range v.Doubles {
			out = append(out, formatFloat(d))
		}
	}
	return out
}

// WriteProfileFile writes the profile to path in the format of its extension.
func WriteProfileFile(path string, p *profile.LoadProfile, h simulation.Horizon) error {
	return toFile(path, func(w io.Writer, f Format) error {
		switch f {
		case CSV:
			return WriteProfileCSV(w, p, h)
		case HTML:
			return WriteProfileHTML(w, p, h)
		}
		return WriteProfileJSON(w, p, h)
	})
}

// WriteScheduleFile writes the schedule to path in the format of its
// extension. HTML is not supported for schedules.
func WriteScheduleFile(path string, snap *problem.Snapshot) error {
	if f, err := FormatOf(path); err == nil && f == HTML {
		return fmt.Errorf("unsupported schedule format: %s", f)
	}
	return toFile(path, func(w io.Writer, f Format) error {
		if f == CSV {
			return WriteScheduleCSV(w, snap)
		}
		return WriteScheduleJSON(w, snap)
	})
}

func toFile(path string, write func(io.Writer, Format) error) (err error) {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	return write(out, f)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
