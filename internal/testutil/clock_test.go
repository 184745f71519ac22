package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedClock_Defaults(t *testing.T) {
	clock := NewFixedClock(time.Time{}, 0)
	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, Epoch.Add(time.Second), clock.Next())
}

func TestFixedClock_Step(t *testing.T) {
	start := time.Date(2020, time.May, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFixedClock(start, time.Hour)

	clock.Next()
	clock.Next()
	assert.Equal(t, start.Add(2*time.Hour), clock.Now())

	clock.Reset()
	assert.Equal(t, start, clock.Now())
}

func TestFixedClock_ConcurrentNext(t *testing.T) {
	clock := NewFixedClock(time.Time{}, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Next()
		}()
	}
	wg.Wait()

	assert.Equal(t, Epoch.Add(50*time.Second), clock.Now())
}
