package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ehsim/infra/logger"
)

const (
	chpID  = "30000000-0000-0000-0000-000000000001"
	tankID = "30000000-0000-0000-0000-000000000002"
	loadID = "30000000-0000-0000-0000-000000000003"
)

const layoutYAML = `grids:
  - name: power
    type: electrical
    commodities: [activepower]
    relations:
      - {source: "` + chpID + `", target: meter}
      - {source: "` + loadID + `", target: meter}
  - name: heat
    type: thermal
    commodities: [hotwaterpower]
    relations:
      - {source: "` + chpID + `", target: "` + tankID + `"}
  - name: gas
    type: thermal
    commodities: [naturalgaspower]
    relations:
      - {source: "` + chpID + `", target: meter}
`

const configYAML = `simulation:
  start: "1970-01-01T00:00:00Z"
  horizon_seconds: 3600
  step_seconds: 900
  layout: layout.yaml
optimizer:
  instances: 2
  evaluations: 20
  seed: 1
devices:
  - type: chp
    conf:
      id: "` + chpID + `"
      name: chp
      activation_seconds: 1800
      start_cost: 2
      min_temperature: 40
      max_temperature: 95
  - type: watertank
    conf:
      id: "` + tankID + `"
      name: tank
      initial_temperature: 70
  - type: replay
    conf:
      id: "` + loadID + `"
      name: load
      series:
        activepower:
          - {t: 0, v: 1000}
pricing:
  price_per_kwh: 0.3
  feed_in_per_kwh: 0.1
  gas_per_kwh: 0.08
logging:
  level: warn
  backend: jsonl
  path: %s
`

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "layout.yaml"), []byte(layoutYAML), 0o644))
	cfg := fmt.Sprintf(configYAML, filepath.Join(dir, "evals.jsonl"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	logger.SetOutput(io.Discard)
	t.Cleanup(func() { logger.SetOutput(nil) })
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	runOpts.meterOut, runOpts.scheduleOut, runOpts.timeout = "", "", 0
	decodeOpts.evaluate, decodeOpts.out = false, ""
	historyOpts.instance, historyOpts.limit, historyOpts.best = "", 0, false
	logLevel = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestLayoutCheckCommand(t *testing.T) {
	cfg := setup(t)
	var res struct {
		Active  []struct{ Name string } `json:"active"`
		Passive []struct{ Name string } `json:"passive"`
		Grids   []string                `json:"grids"`
	}
	require.NoError(t, json.Unmarshal([]byte(execute(t, "layout", "check", "-c", cfg)), &res))
	assert.Len(t, res.Active, 2)
	require.Len(t, res.Passive, 1)
	assert.Equal(t, "tank", res.Passive[0].Name)
	assert.Len(t, res.Grids, 3)
}

func TestDecodeCommand(t *testing.T) {
	cfg := setup(t)
	sched := filepath.Join(filepath.Dir(cfg), "schedule.csv")
	var res struct {
		Schedule struct {
			Length int `json:"length"`
		} `json:"schedule"`
		Evaluation struct {
			Cost float64 `json:"cost"`
		} `json:"evaluation"`
	}
	out := execute(t, "decode", "10", "--evaluate", "-o", sched, "-c", cfg)
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Schedule.Length)
	assert.InDelta(t, 2.745, res.Evaluation.Cost, 1e-9)

	data, err := os.ReadFile(sched)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "part_id,part,block,index,type,value"))
}

func TestRunAndHistoryCommands(t *testing.T) {
	cfg := setup(t)
	dir := filepath.Dir(cfg)
	var run struct {
		RunID  string  `json:"run_id"`
		Cost   float64 `json:"cost"`
		Vector string  `json:"vector"`
	}
	out := execute(t, "run", "-c", cfg, "--meter", filepath.Join(dir, "meter.html"))
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.InDelta(t, 0.3, run.Cost, 1e-9)
	assert.Equal(t, "00", run.Vector)
	assert.FileExists(t, filepath.Join(dir, "meter.html"))

	var best struct {
		RunID string  `json:"run_id"`
		Cost  float64 `json:"cost"`
	}
	out = execute(t, "history", run.RunID, "--best", "-c", cfg)
	require.NoError(t, json.Unmarshal([]byte(out), &best))
	assert.Equal(t, run.RunID, best.RunID)
	assert.InDelta(t, 0.3, best.Cost, 1e-9)

	var recs []json.RawMessage
	out = execute(t, "history", run.RunID, "--limit", "1", "-c", cfg)
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	assert.Len(t, recs, 1)
}
