package gc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/numakit/numa/alloc"
)

func BenchmarkAlloc_Collect(b *testing.B) {
	opts, _ := testOptions(b, 1, 1<<20)
	c, err := New(opts)
	require.NoError(b, err)
	defer c.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		c.Alloc(64)
		if c.Len() >= 1024 {
			c.Collect()
		}
	}
}

func BenchmarkCollect_Chain(b *testing.B) {
	opts, _ := testOptions(b, 1, 1<<20)
	c, err := New(opts)
	require.NoError(b, err)
	defer c.Close()

	var prev alloc.Addr
	for i := range 1000 {
		x, _ := c.Alloc(16)
		if i == 0 {
			push(b, c, x)
		} else {
			link(b, c, prev, x)
		}
		prev = x
	}

	b.ResetTimer()
	for range b.N {
		c.Collect()
	}
}
