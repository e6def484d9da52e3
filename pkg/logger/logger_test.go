package logger

import (
	"bytes"
	"testing"

	"github.com/OFFIS-RIT/niemgraph/pkg/logger/console"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanOut(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	Init(a, b)
	defer Init()

	Info("[Convert] Converted", "file", "a.xml")
	Warn("[Convert] Unresolved reference", "ref", "P9")
	Debug("details")

	for _, r := range []*Recorder{a, b} {
		assert.Len(t, r.Entries(""), 3)
		warns := r.Entries("warn")
		require.Len(t, warns, 1)
		assert.Equal(t, "[Convert] Unresolved reference", warns[0].Message)
		assert.Equal(t, []any{"ref", "P9"}, warns[0].KeyVals)
	}
}

func TestBeforeInitIsDiscarded(t *testing.T) {
	singleton = nil
	Info("nobody listens")
	Error("still nobody")
}

func TestConsoleBackend(t *testing.T) {
	var buf bytes.Buffer
	Init(console.NewConsoleLogger(console.ConsoleLoggerParams{Output: &buf}))
	defer Init()

	Debug("hidden")
	Warn("shown", "code", "unresolved_reference")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "code=unresolved_reference")
}
