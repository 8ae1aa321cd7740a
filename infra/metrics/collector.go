package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/ehsim/core/metrics"
	"github.com/kilianp07/ehsim/core/optimize"
	"github.com/kilianp07/ehsim/infra/logger"
	"github.com/kilianp07/ehsim/internal/eventbus"
)

// StartProgressCollector subscribes to the progress bus and forwards
// improvements to sink when it records progress. It stops when the context
// is canceled or the bus is closed. The returned channel is closed once the
// collector has stopped.
func StartProgressCollector(ctx context.Context, bus *eventbus.Bus[optimize.Progress], sink coremetrics.ResultSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	rec, ok := sink.(coremetrics.ProgressRecorder)
	if bus == nil || !ok {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				err := rec.RecordProgress(coremetrics.ProgressEvent{
					RunID:     ev.RunID,
					Instance:  ev.Instance,
					Iteration: ev.Iteration,
					Cost:      ev.Cost,
					Time:      ev.Time,
				})
				if err != nil {
					log.Warnf("record progress: %v", err)
				}
			}
		}
	}()
	return done
}
