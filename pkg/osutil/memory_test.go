package osutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCgroupMemoryLimit(t *testing.T) {
	for _, tc := range []struct {
		contents string
		expected uint64
		ok       bool
	}{
		{"536870912\n", 536870912, true},
		{"max\n", 0, false},
		{"9223372036854771712\n", 0, false},
		{"0", 0, false},
		{"garbage", 0, false},
	} {
		actual, ok := parseCgroupMemoryLimit(tc.contents)
		assert.Equal(t, tc.ok, ok, tc.contents)
		assert.Equal(t, tc.expected, actual, tc.contents)
	}
}

func TestGetTotalMemory(t *testing.T) {
	assert.NotZero(t, GetTotalMemory())
}
