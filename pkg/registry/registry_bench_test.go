package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// =============================================================================
// Registry benchmarks
// =============================================================================

func BenchmarkRegistry_AddExistingSeries(b *testing.B) {
	reg := NewWithRegistry()
	m := metric("temp", "room", "kitchen")
	require.NoError(b, reg.Add(m, 1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = reg.Add(m, float64(i))
	}
}

func BenchmarkRegistry_AddNewFamilies(b *testing.B) {
	reg := NewWithRegistry()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = reg.Add(metric(fmt.Sprintf("m%d", i)), 1)
	}
}

func BenchmarkRegistry_Gather(b *testing.B) {
	for _, size := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("series-%d", size), func(b *testing.B) {
			reg := NewWithRegistry()
			for i := 0; i < size; i++ {
				require.NoError(b, reg.Add(metric("temp", "room", fmt.Sprintf("r%d", i)), float64(i)))
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = reg.Gather()
			}
		})
	}
}

// BenchmarkRegistry_ConcurrentAddGather mixes shell writes with the
// exporter's periodic gathers.
func BenchmarkRegistry_ConcurrentAddGather(b *testing.B) {
	reg := NewWithRegistry()
	for i := 0; i < 100; i++ {
		require.NoError(b, reg.Add(metric("temp", "room", fmt.Sprintf("r%d", i)), 0))
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_, _ = reg.Gather()
			}
		}
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = reg.Add(metric("temp", "room", fmt.Sprintf("r%d", i%100)), float64(i))
	}
	b.StopTimer()

	close(stop)
	wg.Wait()
}
