package ratelimiter

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFixedWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := NewWithClock(func() time.Time { return now })

	wantAllowed := []bool{true, true, true, false}
	wantRemaining := []int{2, 1, 0, 0}
	for i := range wantAllowed {
		decision := limiter.Check("ai:1", 3, time.Second)
		require.Equal(t, wantAllowed[i], decision.Allowed, "call %d", i)
		require.Equal(t, wantRemaining[i], decision.Remaining, "call %d", i)
		require.Equal(t, now.Add(time.Second), decision.ResetAt, "call %d", i)
	}

	// A new window opens once the old one expires.
	now = now.Add(time.Second)
	decision := limiter.Check("ai:1", 3, time.Second)
	require.True(t, decision.Allowed)
	require.Equal(t, 2, decision.Remaining)
	require.Equal(t, now.Add(time.Second), decision.ResetAt)
}

func TestKeysAreIndependent(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := NewWithClock(func() time.Time { return now })

	require.True(t, limiter.Check("ai:1", 1, time.Minute).Allowed)
	require.False(t, limiter.Check("ai:1", 1, time.Minute).Allowed)
	require.True(t, limiter.Check("ai:2", 1, time.Minute).Allowed)
}

func TestPrune(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := NewWithClock(func() time.Time { return now })

	limiter.Check("ai:1", 5, time.Minute)
	limiter.Check("ai:2", 5, time.Minute)
	require.Len(t, limiter.windows, 2)

	now = now.Add(2 * time.Minute)
	limiter.Prune(time.Minute)
	require.Empty(t, limiter.windows)
}

func TestConcurrentChecks(t *testing.T) {
	limiter := New()

	var wg sync.WaitGroup
	allowed := make([]bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			allowed[i] = limiter.Check("ai:9", 10, time.Minute).Allowed
		}(i)
	}
	wg.Wait()

	count := 0
	for _, ok := range allowed {
		if ok {
			count++
		}
	}
	require.Equal(t, 10, count, fmt.Sprintf("allowed %d of 100", count))
}
