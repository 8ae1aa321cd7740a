package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New[string](0)
	ch := bus.Subscribe()
	assert.True(t, bus.Publish("hello"))
	assert.Equal(t, "hello", <-ch)
	bus.Unsubscribe(ch)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestPublishDropsOnFullChannel(t *testing.T) {
	bus := New[int](1)
	ch := bus.Subscribe()
	assert.True(t, bus.Publish(1))
	assert.False(t, bus.Publish(2))
	assert.Equal(t, uint64(1), bus.Dropped())
	assert.Equal(t, 1, <-ch)
}

func TestClose(t *testing.T) {
	bus := New[int](0)
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	bus.Close()

	_, ok := <-ch1
	assert.False(t, ok)
	_, ok = <-ch2
	assert.False(t, ok)
	assert.False(t, bus.Publish(3))

	late := bus.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestUnsubscribeAfterClose(t *testing.T) {
	bus := New[float64](0)
	ch := bus.Subscribe()
	bus.Close()
	assert.NotPanics(t, func() { bus.Unsubscribe(ch) })
}
