package stability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecoveryAnalyzerClassifications(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	assert.Equal(t, Normal, Analyze(nil, now))

	graceful10sAgo := &ShutdownMarker{Timestamp: now.Add(-10 * time.Second), Graceful: true}
	assert.Equal(t, Normal, Analyze(graceful10sAgo, now))

	unclean10sAgo := &ShutdownMarker{Timestamp: now.Add(-10 * time.Second), Graceful: false}
	assert.Equal(t, Shock, Analyze(unclean10sAgo, now))

	graceful3700sAgo := &ShutdownMarker{Timestamp: now.Add(-3700 * time.Second), Graceful: true}
	assert.Equal(t, Coma, Analyze(graceful3700sAgo, now))
}

func TestClassificationIntensities(t *testing.T) {
	assert.Equal(t, 0.0, Normal.Intensity())
	assert.Equal(t, 0.3, Shock.Intensity())
	assert.Equal(t, 0.5, Coma.Intensity())
}

func TestWarmupTrackerDirectToReadyWithoutSnapshot(t *testing.T) {
	tr := NewWarmupTracker()
	assert.True(t, tr.IsReady())
	assert.True(t, tr.Complete())
	assert.Equal(t, Ready, tr.State())
	assert.False(t, tr.Complete(), "already ready, second Complete is a no-op")
}

func TestWarmupTrackerResurrectPath(t *testing.T) {
	tr := NewWarmupTracker()
	assert.True(t, tr.BeginResurrect())
	assert.False(t, tr.IsReady(), "resurrecting blocks request handling")
	assert.False(t, tr.BeginResurrect(), "already resurrecting")
	assert.True(t, tr.Complete())
	assert.True(t, tr.IsReady())
}

func TestExhaustionClassifyDefaults(t *testing.T) {
	assert.Equal(t, LevelNormal, Classify(0.9, defaultThresholds))
	assert.Equal(t, LevelElevated, Classify(0.5, defaultThresholds))
	assert.Equal(t, LevelExhausted, Classify(0.2, defaultThresholds))
	assert.Equal(t, LevelEmergency, Classify(0.05, defaultThresholds))
	assert.True(t, LevelElevated.WritesAllowed())
	assert.False(t, LevelExhausted.WritesAllowed())
}

func TestTunerAdaptsAfterWarmupAndStaysOrdered(t *testing.T) {
	tuner := NewTuner(10, 5, 1.5, 0.0, 1.0)
	assert.False(t, tuner.Ready())
	for i := 0; i < 5; i++ {
		tuner.Observe(0.6)
	}
	assert.True(t, tuner.Ready())
	th := tuner.Thresholds()
	assert.GreaterOrEqual(t, th.Normal, th.Elevated)
	assert.GreaterOrEqual(t, th.Elevated, th.Exhausted)
	assert.GreaterOrEqual(t, th.Normal, tuner.MinFloor)
	assert.LessOrEqual(t, th.Normal, tuner.HardCeiling)
}

func TestHealthReportStatusTracksRatio(t *testing.T) {
	h := NewHealthReport(0.5, 0.1)
	h.Observe(9, 10)
	assert.Equal(t, Healthy, h.Status())
	for i := 0; i < 10; i++ {
		h.Observe(0, 10)
	}
	assert.Equal(t, Unhealthy, h.Status())
}

func TestPulseTrackerFiresOnInterval(t *testing.T) {
	p := NewPulseTracker(3)
	assert.False(t, p.ShouldPulse())
	assert.False(t, p.ShouldPulse())
	assert.True(t, p.ShouldPulse())
	assert.False(t, p.ShouldPulse())
}
