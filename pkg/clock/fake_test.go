package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeAfterFiresOnlyAtDeadline(t *testing.T) {
	t.Parallel()
	c := Fake(epoch)

	ch := c.After(2 * time.Second)
	require.Equal(t, 1, c.Pending())

	c.Advance(time.Second)
	select {
	case <-ch:
		t.Fatal("fired before deadline")
	default:
	}

	c.Advance(time.Second)
	select {
	case got := <-ch:
		assert.Equal(t, epoch.Add(2*time.Second), got)
	default:
		t.Fatal("did not fire at deadline")
	}
	assert.Equal(t, 0, c.Pending())
}

func TestFakeAfterNonPositive(t *testing.T) {
	t.Parallel()
	c := Fake(epoch)

	select {
	case got := <-c.After(0):
		assert.Equal(t, epoch, got)
	default:
		t.Fatal("zero duration should fire immediately")
	}
}

func TestFakeTickerReschedules(t *testing.T) {
	t.Parallel()
	c := Fake(epoch)

	ticker := c.NewTicker(50 * time.Millisecond)
	for range 3 {
		c.Advance(50 * time.Millisecond)
		select {
		case <-ticker.C:
		default:
			t.Fatal("expected a tick")
		}
	}

	ticker.Stop()
	c.Advance(time.Second)
	select {
	case <-ticker.C:
		t.Fatal("stopped ticker ticked")
	default:
	}
	assert.Equal(t, 0, c.Pending())
}

func TestFakeWaitForTimers(t *testing.T) {
	t.Parallel()
	c := Fake(epoch)

	done := make(chan struct{})
	go func() {
		<-c.After(time.Minute)
		close(done)
	}()

	c.WaitForTimers(1)
	c.Advance(time.Minute)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sleeper was not woken")
	}
}

func TestFakeNewTickerPanicsOnZero(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { Fake(epoch).NewTicker(0) })
}
