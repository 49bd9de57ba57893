// Package monitoring is the error-reporting seam. The worker's activation
// boundary and the MQTT publish path report through the package-level
// functions; infra/monitoring supplies the Sentry implementation, while
// tests and DSN-less deployments keep the no-op.
package monitoring

import "time"

// Monitor receives errors the service cannot return to a caller.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Flush(timeout time.Duration)
}

// NopMonitor swallows every report.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Flush(time.Duration)                       {}

var active Monitor = NopMonitor{}

// Init replaces the process-wide monitor. Nil keeps the current one.
func Init(m Monitor) {
	if m != nil {
		active = m
	}
}

// CaptureException reports err with the given tags. Nil errors are
// dropped here so call sites skip the guard.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	active.CaptureException(err, tags)
}
