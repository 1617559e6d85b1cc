package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestRuntimeLogger_KeyValueArgs(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf})

	l.WithComponent("composer").WithRoom("agent-1", "room-1").Info("state.composed", "providers", 3)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "state.composed", lines[0]["msg"])
	assert.Equal(t, "composer", lines[0]["component"])
	assert.Equal(t, "room-1", lines[0]["room_id"])
	assert.EqualValues(t, 3, lines[0]["providers"])
}

func TestRuntimeLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "json", Output: &buf})

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
}

func TestRuntimeLogger_LogActionCall(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	l.LogActionCall("REPLY", 5*time.Millisecond, true, nil)
	l.LogActionCall("MOVE", time.Millisecond, false, errors.New("boom"))
	l.LogActionCall("NOOP", time.Millisecond, false, nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)
	assert.Equal(t, "action.executed", lines[0]["msg"])
	assert.EqualValues(t, 5, lines[0]["duration_ms"])
	assert.Equal(t, "action.failed", lines[1]["msg"])
	assert.Equal(t, "boom", lines[1]["error"])
	assert.Equal(t, "action NOOP reported failure", lines[2]["error"])
}

func TestRuntimeLogger_ModelAndProviderCallsLogAtDebug(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	l.LogModelCall("TEXT_LARGE", "openai", time.Millisecond, nil)
	l.LogProviderCall("TIME", time.Millisecond, nil)
	l.LogModelCall("TEXT_LARGE", "openai", time.Millisecond, errors.New("rate limited"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "model.call.failed", lines[0]["msg"])
	assert.Equal(t, "openai", lines[0]["provider"])
}

type captured struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct{ entries []captured }

func (c *captureLogger) add(level, msg string, args []any) {
	c.entries = append(c.entries, captured{level: level, msg: msg, args: args})
}

func (c *captureLogger) Debug(msg string, args ...any) { c.add("debug", msg, args) }
func (c *captureLogger) Info(msg string, args ...any)  { c.add("info", msg, args) }
func (c *captureLogger) Warn(msg string, args ...any)  { c.add("warn", msg, args) }
func (c *captureLogger) Error(msg string, args ...any) { c.add("error", msg, args) }

func TestCalls(t *testing.T) {
	rl := NewLogger(nil)
	assert.Same(t, rl, Calls(rl))
	assert.NotPanics(t, func() { Calls(nil).LogModelCall("TEXT_SMALL", "mock", 0, nil) })

	c := &captureLogger{}
	Calls(c).LogActionCall("MOVE", 2*time.Millisecond, false, nil)
	Calls(c).LogProviderCall("TIME", time.Millisecond, errors.New("down"))

	require.Len(t, c.entries, 2)
	assert.Equal(t, captured{level: "error", msg: "action.failed", args: []any{"action", "MOVE", "duration_ms", int64(2), "success", false, "error", "action MOVE reported failure"}}, c.entries[0])
	assert.Equal(t, "state.provider.error", c.entries[1].msg)
}

func TestWithAndScopes(t *testing.T) {
	c := &captureLogger{}
	l := With(ForRoom(ForComponent(c, "engine"), "agent-1", "room-1"), "run_id", "r1")
	l.Info("engine.turn", "k", 1)

	require.Len(t, c.entries, 1)
	assert.Equal(t, []any{"component", "engine", "agent_id", "agent-1", "room_id", "room-1", "run_id", "r1", "k", 1}, c.entries[0].args)

	assert.IsType(t, NoOpLogger{}, With(nil, "k", "v"))
	assert.Same(t, Logger(c), With(c))
}

func TestWithRuntimeLogger(t *testing.T) {
	var buf bytes.Buffer
	rl := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf})

	l := With(ForRoom(ForComponent(rl, "engine"), "agent-1", "room-1"), "run_id", "r1")
	require.IsType(t, &RuntimeLogger{}, l)
	l.Debug("engine.turn")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "engine", lines[0]["component"])
	assert.Equal(t, "room-1", lines[0]["room_id"])
	assert.Equal(t, "r1", lines[0]["run_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("nonsense"))
}

func TestOrNoop(t *testing.T) {
	assert.IsType(t, NoOpLogger{}, OrNoop(nil))
	l := NewDefaultSlogLogger()
	assert.Same(t, l, OrNoop(l))
}
