package xlog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteIncludesMessageAndContext(t *testing.T) {
	var buf strings.Builder
	SetOutput(&buf)
	SetMinLevel(LvlTrace)

	l := New("component", "test")
	l.Info("hello world", "key", "value")

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "component=test")
	assert.Contains(t, out, "key=value")
}

func TestMinLevelFiltersBelowThreshold(t *testing.T) {
	var buf strings.Builder
	SetOutput(&buf)
	SetMinLevel(LvlWarn)

	l := New()
	l.Info("should not appear")
	l.Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear")
}

func TestNewMergesBoundContext(t *testing.T) {
	var buf strings.Builder
	SetOutput(&buf)
	SetMinLevel(LvlTrace)

	parent := New("a", 1)
	child := parent.New("b", 2)
	child.Debug("msg")

	out := buf.String()
	assert.Contains(t, out, "a=1")
	assert.Contains(t, out, "b=2")
}

func TestOddContextGetsMissingMarker(t *testing.T) {
	var buf strings.Builder
	SetOutput(&buf)
	SetMinLevel(LvlTrace)

	l := New()
	l.Info("msg", "dangling")

	assert.Contains(t, buf.String(), "dangling=!MISSING")
}
