package timer

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gelift/internal/apperr"
)

func TestTransitions(t *testing.T) {
	s := FromFlag(false)
	assert.Equal(t, Stopped, s)
	assert.ErrorIs(t, s.Track(), ErrStopped)

	s, err := s.Start()
	require.NoError(t, err)
	assert.True(t, s.Running())
	assert.NoError(t, s.Track())

	_, err = s.Start()
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.True(t, apperr.Is(err, apperr.Conflict))

	s, err = s.Stop()
	require.NoError(t, err)
	assert.Equal(t, Stopped, s)

	_, err = s.Stop()
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.Equal(t, "stopped", s.String())
}

func TestLocksSerializePerTeam(t *testing.T) {
	locks := NewLocks()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(1)
			defer unlock()
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Zero(t, locks.size())
}

func TestLocksIndependentTeams(t *testing.T) {
	locks := NewLocks()
	unlockA := locks.Lock(1)
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock(2)
		unlock()
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for team 2 blocked on team 1")
	}
}
