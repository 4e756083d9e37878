package humanize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSize(t *testing.T) {
	cases := []struct {
		in   int64
		sz   float64
		unit string
	}{
		{512, 512, "B"},
		{2048, 2, "KB"},
		{3 * 1024 * 1024, 3, "MB"},
		{5 * 1024 * 1024 * 1024, 5, "GB"},
	}

	for _, c := range cases {
		sz, unit := Size(c.in)
		assert.Equal(t, c.sz, sz)
		assert.Equal(t, c.unit, unit)
	}

	assert.Equal(t, "1.50KB", Format(1536))
}
