// Package metrics emits the standard audit metrics through a statsd.Sink.
package metrics

import (
	"maps"
	"time"

	obserrors "github.com/target/uxaudit/internal/observability/errors"
	"github.com/target/uxaudit/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Transition names for audit lifecycle metrics.
const (
	TransitionStarted   = "started"
	TransitionSucceeded = "succeeded"
	TransitionFailed    = "failed"
	TransitionPersisted = "persisted"
)

// AuditMetric captures details about an audit lifecycle event for metric emission.
type AuditMetric struct {
	Transition string
	Result     string
	Site       string
	Duration   time.Duration
	Err        error
}

// EmitAuditTransition emits standardised audit lifecycle metrics.
func EmitAuditTransition(sink statsd.Sink, in AuditMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.Site != "" {
		tags["site"] = in.Site
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("audit.transition", 1, tags)

	if in.Duration > 0 {
		sink.Timing("audit.duration", in.Duration, CloneTags(tags))
	}
}

// EmitSeverityCounts records how many issues of each priority a critique contained.
func EmitSeverityCounts(sink statsd.Sink, counts map[string]int) {
	if sink == nil {
		return
	}
	for tag, n := range counts {
		if n > 0 {
			sink.Count("audit.issues", int64(n), map[string]string{"priority": tag})
		}
	}
}

// ProxyMetric describes one POST /audit relay.
type ProxyMetric struct {
	Result    string
	Duration  time.Duration
	Err       error
	SizeBytes int
}

// EmitProxyRelay emits relay counters, latency and payload size.
func EmitProxyRelay(sink statsd.Sink, in ProxyMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{"result": in.Result}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Count("proxy.relay", 1, tags)
	if in.Duration > 0 {
		sink.Timing("proxy.duration", in.Duration, CloneTags(tags))
	}
	if in.SizeBytes > 0 {
		sink.Gauge("proxy.image_bytes", float64(in.SizeBytes), nil)
	}
}

// EmitSweep records a registry sweep outcome.
func EmitSweep(sink statsd.Sink, removed, remaining int, duration time.Duration) {
	if sink == nil {
		return
	}
	result := ResultSuccess
	if removed == 0 {
		result = ResultNoop
	}
	tags := map[string]string{"result": result}
	sink.Count("sweeper.removed", int64(removed), tags)
	sink.Gauge("sweeper.registry_size", float64(remaining), nil)
	if duration > 0 {
		sink.Timing("sweeper.duration", duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	maps.Copy(out, src)
	return out
}
