package refresh

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoopRunsInOrder(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		l.Dispatch(func() { got = append(got, i) })
	}
	assert.True(t, l.Do(func() {}))

	want := make([]int, 100)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestLoopReentrantDispatch(t *testing.T) {
	l := NewLoop()
	defer l.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	l.Dispatch(func() {
		l.Dispatch(wg.Done)
	})
	wg.Wait()
}

func TestLoopCloseIsIdempotent(t *testing.T) {
	l := NewLoop()
	l.Close()
	l.Close()

	ran := false
	l.Dispatch(func() { ran = true })
	assert.False(t, l.Do(func() { ran = true }))
	assert.False(t, ran)
}
