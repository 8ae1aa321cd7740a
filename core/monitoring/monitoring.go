package monitoring

import "time"

// Monitor reports errors that end a command.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	ReportPanic(r any)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) ReportPanic(any)                           {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the global monitor. A nil monitor is ignored.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// Current returns the global monitor.
func Current() Monitor { return current }

// CaptureException records err with optional tags.
func CaptureException(err error, tags map[string]string) {
	current.CaptureException(err, tags)
}

// Recover reports a panic and re-raises it. It must be deferred directly.
func Recover() {
	if r := recover(); r != nil {
		current.ReportPanic(r)
		current.Flush(2 * time.Second)
		panic(r)
	}
}

// Flush waits for buffered events.
func Flush(d time.Duration) {
	current.Flush(d)
}
