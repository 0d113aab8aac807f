package engine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/swm/core"
	"github.com/hupe1980/swm/logging"
)

func TestRegistry_AddRemove(t *testing.T) {
	r := NewRegistry[string](nil)
	l := &core.Listener[string]{}

	r.Add(nil)
	assert.Equal(t, 0, r.Len())

	r.Add(l)
	r.Add(l)
	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Remove(l))
	assert.Equal(t, 1, r.Len())
	assert.True(t, r.Remove(l))
	assert.False(t, r.Remove(l))
}

func TestRegistry_NotifyOrder(t *testing.T) {
	r := NewRegistry[string](nil)
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		r.Add(&core.Listener[string]{OnCloseApplication: func(core.CloseApplication) { order = append(order, i) }})
	}
	r.Notify(core.CloseApplication{})
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestRegistry_PanicLoggedWithStack(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "json", Output: buf})
	r := NewRegistry[string](logger)

	reached := false
	r.Add(&core.Listener[string]{OnHandshakeReceived: func(core.HandshakeReceived) { panic("listener broke") }})
	r.Add(&core.Listener[string]{OnHandshakeReceived: func(core.HandshakeReceived) { reached = true }})

	assert.NotPanics(t, func() { r.Notify(core.HandshakeReceived{}) })
	assert.True(t, reached)
	assert.Contains(t, buf.String(), "listener broke")
	assert.Contains(t, buf.String(), "stack_trace")
	assert.Contains(t, buf.String(), string(core.EventHandshakeReceived))
}
