package parallel_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/neurlang/denoise/parallel"
	"github.com/stretchr/testify/assert"
)

func TestForEach_VisitsEveryIndexOnce(t *testing.T) {
	for _, limit := range []int{0, 1, 3, 64} {
		seen := make([]int32, 50)
		err := parallel.ForEach(len(seen), limit, func(i int) error {
			atomic.AddInt32(&seen[i], 1)
			return nil
		})
		assert.NoError(t, err)
		for i, n := range seen {
			assert.Equal(t, int32(1), n, "index %d with limit %d", i, limit)
		}
	}
}

func TestForEach_RespectsLimit(t *testing.T) {
	var running, peak int32
	err := parallel.ForEach(40, 4, func(i int) error {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		atomic.AddInt32(&running, -1)
		return nil
	})
	assert.NoError(t, err)
	assert.LessOrEqual(t, peak, int32(4))
}

func TestForEach_ReturnsLowestFailure(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	err := parallel.ForEach(10, 5, func(i int) error {
		switch i {
		case 3:
			return errA
		case 7:
			return errB
		}
		return nil
	})
	assert.ErrorIs(t, err, errA)
}

func TestForEach_EmptyIsNoop(t *testing.T) {
	called := false
	err := parallel.ForEach(0, 4, func(int) error { called = true; return nil })
	assert.NoError(t, err)
	assert.False(t, called)
}
