package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestWindow(limit int) (*Window, *clock) {
	c := &clock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	w := NewWindow(limit, time.Minute)
	w.nowFunc = c.Now
	return w, c
}

func TestNoop_AlwaysAllows(t *testing.T) {
	var lim Noop
	for i := 0; i < 100; i++ {
		allowed, retry := lim.Allow("any")
		assert.True(t, allowed)
		assert.Zero(t, retry)
	}
	_, ok := PerMinute(0).(Noop)
	assert.True(t, ok)
}

func TestWindow_AllowsWithinLimit(t *testing.T) {
	w, _ := newTestWindow(3)
	for i := 0; i < 3; i++ {
		allowed, retry := w.Allow("client1")
		assert.True(t, allowed, "request %d", i+1)
		assert.Zero(t, retry)
	}
}

func TestWindow_RejectsOverLimit(t *testing.T) {
	w, c := newTestWindow(2)
	w.Allow("client1")
	c.now = c.now.Add(20 * time.Second)
	w.Allow("client1")

	c.now = c.now.Add(500 * time.Millisecond)
	allowed, retry := w.Allow("client1")
	assert.False(t, allowed)
	assert.Equal(t, 40, retry, "rounded up until the oldest hit expires")

	c.now = c.now.Add(40 * time.Second)
	allowed, _ = w.Allow("client1")
	assert.True(t, allowed, "the oldest hit left the window")
}

func TestWindow_DifferentKeysIndependent(t *testing.T) {
	w, _ := newTestWindow(1)
	w.Allow("a")
	allowedB, _ := w.Allow("b")
	assert.True(t, allowedB)
	allowedA, _ := w.Allow("a")
	assert.False(t, allowedA)
}

func TestWindow_Prune(t *testing.T) {
	w, c := newTestWindow(5)
	w.Allow("old")
	c.now = c.now.Add(45 * time.Second)
	w.Allow("new")
	require.Equal(t, 2, w.Len())

	c.now = c.now.Add(30 * time.Second)
	assert.Equal(t, 1, w.Prune())
	assert.Equal(t, 1, w.Len())

	c.now = c.now.Add(time.Minute)
	assert.Equal(t, 1, w.Prune())
	assert.Zero(t, w.Len())
}

func TestWindow_RunStopsWithContext(t *testing.T) {
	w := NewWindow(1, time.Millisecond)
	w.Allow("k")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, time.Millisecond) }()

	assert.Eventually(t, func() bool { return w.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}
