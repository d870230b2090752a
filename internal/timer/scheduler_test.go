package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedulerFiresInOrder(t *testing.T) {
	s := New()
	defer s.Close()

	var order []int
	done := make(chan struct{}, 3)
	record := func(n int) func() {
		return func() {
			order = append(order, n)
			done <- struct{}{}
		}
	}

	s.After(30*time.Millisecond, record(3))
	s.After(10*time.Millisecond, record(1))
	s.After(20*time.Millisecond, record(2))

	for range 3 {
		<-done
	}
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestSchedulerCancel(t *testing.T) {
	s := New()
	defer s.Close()

	var fired atomic.Bool
	tok := s.After(20*time.Millisecond, func() { fired.Store(true) })
	ok := s.Cancel(tok)
	require.True(t, ok)

	time.Sleep(50 * time.Millisecond)
	require.False(t, fired.Load())
}

func TestSchedulerCancelAlreadyFired(t *testing.T) {
	s := New()
	defer s.Close()

	done := make(chan struct{})
	tok := s.After(5*time.Millisecond, func() { close(done) })
	<-done
	require.False(t, s.Cancel(tok))
}
