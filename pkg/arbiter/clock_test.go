package arbiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock(t *testing.T) {
	c := NewManualClock()
	var fired []string

	c.AfterFunc(300*time.Millisecond, func() { fired = append(fired, "b") })
	c.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "a") })
	stopped := c.AfterFunc(200*time.Millisecond, func() { fired = append(fired, "x") })
	assert.Equal(t, 3, c.Pending())

	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())
	assert.Equal(t, 2, c.Pending())

	c.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"a"}, fired)

	c.Advance(time.Second)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Zero(t, c.Pending())
}

func TestManualClock_CallbackMaySchedule(t *testing.T) {
	c := NewManualClock()
	n := 0
	c.AfterFunc(time.Millisecond, func() {
		n++
		c.AfterFunc(time.Millisecond, func() { n++ })
	})

	c.Advance(time.Millisecond)
	assert.Equal(t, 1, n)
	c.Advance(time.Millisecond)
	assert.Equal(t, 2, n)
}
