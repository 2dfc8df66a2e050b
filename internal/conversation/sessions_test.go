package conversation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionsLifecycle(t *testing.T) {
	s := NewSessions()
	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	assert.Equal(t, StateNone, s.State(1))

	s.Set(1, StateMenu)
	clock = clock.Add(time.Minute)
	s.Set(1, StateAdd)

	sess, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, StateAdd, sess.State)
	assert.Equal(t, time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC), sess.StartedAt)
	assert.Equal(t, clock, sess.UpdatedAt)

	clock = clock.Add(time.Minute)
	s.Restart(1, StateMenu)
	sess, _ = s.Get(1)
	assert.Equal(t, clock, sess.StartedAt)

	s.Set(1, StateTerminated)
	_, ok = s.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestSessionsConcurrentUsers(t *testing.T) {
	s := NewSessions()
	var wg sync.WaitGroup
	for i := int64(1); i <= 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Set(id, StateMenu)
			s.Set(id, StateRemove)
			_ = s.State(id)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
	s.Reset()
	assert.Equal(t, 0, s.Len())
}
