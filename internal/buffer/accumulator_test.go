package buffer

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Key   string
	Seq   int
	Notes []string
}

func (i *item) Clone() *item {
	c := *i
	c.Notes = append([]string(nil), i.Notes...)
	return &c
}

func TestKeyed_DrainPreservesPerKeyOrder(t *testing.T) {
	acc := NewKeyed[string, *item]()

	for i := 0; i < 5; i++ {
		acc.Add("a", &item{Key: "a", Seq: i})
		acc.Add("b", &item{Key: "b", Seq: i * 10})
	}
	assert.Equal(t, 10, acc.Len())

	drained := acc.DrainAll()
	require.Len(t, drained, 2)
	for i, v := range drained["a"] {
		assert.Equal(t, i, v.Seq, "values for a should keep insertion order")
	}
	for i, v := range drained["b"] {
		assert.Equal(t, i*10, v.Seq, "values for b should keep insertion order")
	}

	// A second drain without adds returns nothing
	assert.Empty(t, acc.DrainAll())
	assert.Equal(t, 0, acc.Len())
}

func TestKeyed_AddStoresClone(t *testing.T) {
	acc := NewKeyed[string, *item]()

	orig := &item{Key: "x", Seq: 1, Notes: []string{"first"}}
	acc.Add("x", orig)

	orig.Seq = 2
	orig.Notes[0] = "mutated"

	drained := acc.DrainAll()
	require.Len(t, drained["x"], 1)
	got := drained["x"][0]
	assert.NotSame(t, orig, got)
	assert.Equal(t, 1, got.Seq)
	assert.Equal(t, []string{"first"}, got.Notes)
}

func TestKeyed_Clear(t *testing.T) {
	acc := NewKeyed[string, *item]()
	acc.Add("x", &item{})
	acc.Clear()

	assert.Empty(t, acc.DrainAll())
}

// TestKeyed_ConcurrentAddAndDrain checks that every value added by racing
// producers is returned by exactly one of the racing drains.
func TestKeyed_ConcurrentAddAndDrain(t *testing.T) {
	acc := NewKeyed[string, *item]()

	const producers = 8
	const perProducer = 500

	var (
		mu   sync.Mutex
		seen = make(map[string]int)
	)
	collect := func(batch map[string][]*item) {
		mu.Lock()
		defer mu.Unlock()
		for _, vs := range batch {
			for _, v := range vs {
				seen[fmt.Sprintf("%s/%d", v.Key, v.Seq)]++
			}
		}
	}

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			key := fmt.Sprintf("p%d", p)
			for i := 0; i < perProducer; i++ {
				acc.Add(key, &item{Key: key, Seq: i})
			}
		}(p)
	}

	stop := make(chan struct{})
	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		for {
			select {
			case <-stop:
				return
			default:
				collect(acc.DrainAll())
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-drainDone
	collect(acc.DrainAll())

	assert.Len(t, seen, producers*perProducer)
	for k, n := range seen {
		assert.Equal(t, 1, n, "value %s drained more than once", k)
	}
}

func TestKeyed_ConcurrentDrainsKeepPerKeyOrder(t *testing.T) {
	acc := NewKeyed[string, *item]()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2000; i++ {
			acc.Add("k", &item{Key: "k", Seq: i})
		}
	}()

	var all []*item
	for {
		select {
		case <-done:
			all = append(all, acc.DrainAll()["k"]...)
			require.Len(t, all, 2000)
			for i, v := range all {
				assert.Equal(t, i, v.Seq)
			}
			return
		default:
			all = append(all, acc.DrainAll()["k"]...)
		}
	}
}

// TestKeyed_ClearRacingAdd resets the accumulator while producers insert.
// Whatever survives the last reset keeps per-key order, and a reset after
// the producers stop leaves only later inserts.
func TestKeyed_ClearRacingAdd(t *testing.T) {
	acc := NewKeyed[string, *item]()

	const producers = 4
	const perProducer = 1000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			key := fmt.Sprintf("p%d", p)
			for i := 0; i < perProducer; i++ {
				acc.Add(key, &item{Key: key, Seq: i})
			}
		}(p)
	}

	stop := make(chan struct{})
	resetDone := make(chan struct{})
	go func() {
		defer close(resetDone)
		for {
			select {
			case <-stop:
				return
			default:
				acc.Clear()
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-resetDone

	for key, vs := range acc.DrainAll() {
		for i := 1; i < len(vs); i++ {
			assert.Greater(t, vs[i].Seq, vs[i-1].Seq, "order broken for %s", key)
		}
	}

	acc.Add("p0", &item{Key: "p0", Seq: -1})
	acc.Clear()
	acc.Add("after", &item{Key: "after", Seq: 1})

	drained := acc.DrainAll()
	require.Len(t, drained, 1)
	require.Len(t, drained["after"], 1)
	assert.Equal(t, 1, drained["after"][0].Seq)
}

func TestSet_ClearRacingAdd(t *testing.T) {
	set := NewSet[*item]()

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				set.Add(&item{Seq: i})
				if i%50 == 0 {
					set.Clear()
				}
			}
		}()
	}
	wg.Wait()

	set.Clear()
	set.Add(&item{Seq: 7})
	drained := set.DrainAll()
	require.Len(t, drained, 1)
	assert.Equal(t, 7, drained[0].Seq)
}

func TestSet_DrainAndClear(t *testing.T) {
	set := NewSet[*item]()

	orig := &item{Seq: 1}
	set.Add(orig)
	set.Add(&item{Seq: 2})
	orig.Seq = 100
	assert.Equal(t, 2, set.Len())

	drained := set.DrainAll()
	require.Len(t, drained, 2)
	assert.Equal(t, 1, drained[0].Seq, "set should hold a clone")
	assert.Empty(t, set.DrainAll())

	set.Add(&item{})
	set.Clear()
	assert.Empty(t, set.DrainAll())
}

func TestSet_ConcurrentAddAndDrain(t *testing.T) {
	set := NewSet[*item]()

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				set.Add(&item{Seq: i})
			}
		}()
	}

	total := 0
	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	for {
		select {
		case <-finished:
			total += len(set.DrainAll())
			assert.Equal(t, 1000, total)
			return
		default:
			total += len(set.DrainAll())
		}
	}
}

func TestSubscriptions(t *testing.T) {
	subs := NewSubscriptions()

	subs.Add(1)
	subs.Add(2)
	assert.True(t, subs.Contains(1))
	assert.True(t, subs.ContainsAny([]int64{5, 2}))
	assert.False(t, subs.ContainsAny([]int64{5, 6}))
	assert.False(t, subs.ContainsAny(nil))
	assert.Equal(t, 2, subs.Len())

	subs.Remove(1)
	assert.False(t, subs.Contains(1))

	subs.Clear()
	assert.False(t, subs.Contains(2))
	assert.Equal(t, 0, subs.Len())
}
