package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vntrieu/moodscreen/internal/llm"
)

type stubTool struct {
	name   string
	result any
	err    error
	got    map[string]any
}

func (s *stubTool) Spec() llm.ToolSpec {
	return llm.ToolSpec{Name: s.name, Parameters: llm.ObjectParameters()}
}

func (s *stubTool) Call(_ context.Context, args map[string]any) (any, error) {
	s.got = args
	return s.result, s.err
}

type stubSource struct {
	tools []Tool
	err   error
	calls int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Load(context.Context) ([]Tool, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.tools, nil
}

func TestRegistry_Call(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(zap.NewNop())
	echo := &stubTool{name: "echo", result: map[string]any{"ok": true}}
	broken := &stubTool{name: "broken", err: errors.New("upstream down")}
	require.NoError(t, reg.Register(echo))
	require.NoError(t, reg.Register(broken))

	t.Run("success", func(t *testing.T) {
		out := reg.Call(ctx, "echo", `{"q":"sertraline","n":2}`)
		assert.JSONEq(t, `{"ok":true}`, out)
		assert.Equal(t, map[string]any{"q": "sertraline", "n": float64(2)}, echo.got)
	})

	t.Run("empty arguments", func(t *testing.T) {
		out := reg.Call(ctx, "echo", "")
		assert.JSONEq(t, `{"ok":true}`, out)
		assert.Empty(t, echo.got)
	})

	t.Run("unknown tool", func(t *testing.T) {
		assert.JSONEq(t, `{"error":"Unknown function name: nope"}`, reg.Call(ctx, "nope", "{}"))
	})

	t.Run("invalid arguments", func(t *testing.T) {
		assert.Contains(t, reg.Call(ctx, "echo", "{not json"), `"error":"invalid arguments`)
	})

	t.Run("tool error", func(t *testing.T) {
		assert.JSONEq(t, `{"error":"upstream down"}`, reg.Call(ctx, "broken", "{}"))
	})
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(&stubTool{name: "b"}))
	require.NoError(t, reg.Register(&stubTool{name: "a"}))
	assert.Error(t, reg.Register(&stubTool{name: "a"}))
	assert.Error(t, reg.Register(&stubTool{}))

	assert.Equal(t, 2, reg.Len())
	specs := reg.Specs()
	require.Len(t, specs, 2)
	assert.Equal(t, "b", specs[0].Name, "specs keep registration order")
	assert.Equal(t, []string{"a", "b"}, reg.Names())
}

func TestRegistry_RefreshRetriesFailedSources(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(zap.NewNop())
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.nowFunc = func() time.Time { return now }

	src := &stubSource{err: errors.New("connection refused")}
	reg.AddSource(src)

	reg.Refresh(ctx)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 0, reg.Len())

	reg.Refresh(ctx)
	assert.Equal(t, 1, src.calls, "retry waits for the interval")

	now = now.Add(DefaultRetryInterval)
	src.err = nil
	src.tools = []Tool{&stubTool{name: "search"}, &stubTool{name: "search"}}
	reg.Refresh(ctx)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, []string{"search"}, reg.Names(), "duplicates are skipped")

	now = now.Add(time.Hour)
	reg.Refresh(ctx)
	assert.Equal(t, 2, src.calls, "loaded sources are not reloaded")
}
