package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/target/uxaudit/internal/errors"
	"github.com/target/uxaudit/internal/observability/statsd"
)

func TestEmitAuditTransition(t *testing.T) {
	rec := statsd.NewRecorder()

	EmitAuditTransition(rec, AuditMetric{
		Transition: TransitionFailed,
		Result:     ResultError,
		Site:       "example.com",
		Duration:   1500 * time.Millisecond,
		Err:        apperrors.Upstream(errors.New("502"), "critique failed"),
	})

	counts := rec.Named("audit.transition")
	require.Len(t, counts, 1)
	assert.Equal(t, map[string]string{
		"transition":  "failed",
		"result":      "error",
		"site":        "example.com",
		"error_class": "upstream",
	}, counts[0].Tags)

	timings := rec.Named("audit.duration")
	require.Len(t, timings, 1)
	assert.InDelta(t, 1500, timings[0].Value, 0.001)
}

func TestEmitAuditTransition_NilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		EmitAuditTransition(nil, AuditMetric{Transition: TransitionStarted})
	})
}

func TestEmitSeverityCounts_SkipsZero(t *testing.T) {
	rec := statsd.NewRecorder()
	EmitSeverityCounts(rec, map[string]int{"CRITICAL": 2, "LOW": 0})

	issues := rec.Named("audit.issues")
	require.Len(t, issues, 1)
	assert.Equal(t, "CRITICAL", issues[0].Tags["priority"])
	assert.InDelta(t, 2, issues[0].Value, 0)
}

func TestEmitSweep(t *testing.T) {
	rec := statsd.NewRecorder()
	EmitSweep(rec, 0, 3, 0)

	removed := rec.Named("sweeper.removed")
	require.Len(t, removed, 1)
	assert.Equal(t, ResultNoop, removed[0].Tags["result"])
	assert.Len(t, rec.Named("sweeper.duration"), 0)

	size := rec.Named("sweeper.registry_size")
	require.Len(t, size, 1)
	assert.InDelta(t, 3, size[0].Value, 0)
}

func TestEmitProxyRelay(t *testing.T) {
	rec := statsd.NewRecorder()
	EmitProxyRelay(rec, ProxyMetric{Result: ResultSuccess, Duration: time.Second, SizeBytes: 2048})

	assert.Len(t, rec.Named("proxy.relay"), 1)
	assert.Len(t, rec.Named("proxy.duration"), 1)
	assert.Len(t, rec.Named("proxy.image_bytes"), 1)
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))
	src := map[string]string{"a": "b"}
	cp := CloneTags(src)
	cp["a"] = "c"
	assert.Equal(t, "b", src["a"])
}
