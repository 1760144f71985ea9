package slices_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soluchok/tgquery/pkg/slices"
)

func TestConvert(t *testing.T) {
	got := slices.Convert([]int{3, 4}, func(v, i int) string {
		return strconv.Itoa(v * i)
	})

	assert.Equal(t, []string{"0", "4"}, got)
}

func TestFilter(t *testing.T) {
	assert.Equal(t, []int{2, 4}, slices.Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 }))
	assert.Nil(t, slices.Filter([]int{1, 3}, func(v int) bool { return v%2 == 0 }))
}
