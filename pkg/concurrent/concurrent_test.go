package concurrent

import (
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapUpdate(t *testing.T) {
	t.Parallel()

	m := NewMap[string, int]()

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			m.Update("hits", func(current int, _ bool) int { return current + 1 })
		})
	}
	wg.Wait()

	v, ok := m.Load("hits")
	assert.True(t, ok)
	assert.Equal(t, 50, v)
	assert.Equal(t, 1, m.Len())

	m.Store("other", 7)
	values := m.Values()
	slices.Sort(values)
	assert.Equal(t, []int{7, 50}, values)
}

func TestSliceAppendIsContiguous(t *testing.T) {
	t.Parallel()

	s := NewSlice[int]()

	var wg sync.WaitGroup
	for w := range 10 {
		wg.Go(func() {
			s.Append(w*3, w*3+1, w*3+2)
		})
	}
	wg.Wait()

	all := s.All()
	assert.Len(t, all, 30)
	for i := 0; i < len(all); i += 3 {
		assert.Equal(t, all[i]+1, all[i+1])
		assert.Equal(t, all[i]+2, all[i+2])
	}

	even := s.Filter(func(v int) bool { return v%2 == 0 })
	assert.Len(t, even, 15)
	assert.Equal(t, 30, s.Len())
}
