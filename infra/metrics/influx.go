package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/ehsim/core/metrics"
	"github.com/kilianp07/ehsim/infra/logger"
)

// InfluxSink writes run outcomes to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.ResultSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes one run_result point and one part_result point per device.
func (s *InfluxSink) RecordRun(res coremetrics.RunResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("run_result").
		AddTag("run_id", res.RunID).
		AddTag("instance", res.BestInstance).
		AddField("cost", round3(res.Cost)).
		AddField("part_cost", round3(res.PartCost)).
		AddField("meter_cost", round3(res.MeterCost)).
		AddField("import_kwh", round3(res.Summary.ImportKWh)).
		AddField("export_kwh", round3(res.Summary.ExportKWh)).
		AddField("gas_kwh", round3(res.Summary.GasKWh)).
		AddField("peak_import_w", round3(res.Summary.PeakImport)).
		AddField("evaluations", res.Evaluations).
		SetTime(res.Time)
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		return err
	}
	for _, part := range res.Parts {
		pp := write.NewPointWithMeasurement("part_result").
			AddTag("run_id", res.RunID).
			AddTag("part_id", part.ID).
			AddTag("part", part.Name).
			AddField("cost", round3(part.Cost)).
			AddField("starts", part.Starts).
			SetTime(res.Time)
		for c, e := range part.EnergyKWh {
			pp = pp.AddField(c+"_kwh", round3(e))
		}
		pp.SortFields()
		if err := s.writeAPI.WritePoint(ctx, pp); err != nil {
			return err
		}
	}
	return nil
}

// RecordMeter writes the meter series, one point per slot and commodity.
func (s *InfluxSink) RecordMeter(runID string, samples []coremetrics.MeterSample) error {
	if len(samples) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(samples))
	for _, m := range samples {
		points = append(points, write.NewPointWithMeasurement("meter").
			AddTag("run_id", runID).
			AddTag("commodity", m.Commodity.String()).
			AddField("power_w", round3(m.Power)).
			SetTime(m.Time))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordProgress writes an optimizer improvement.
func (s *InfluxSink) RecordProgress(ev coremetrics.ProgressEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("optimizer_progress").
		AddTag("run_id", ev.RunID).
		AddTag("instance", ev.Instance).
		AddField("iteration", ev.Iteration).
		AddField("cost", round3(ev.Cost)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
