// SPDX-License-Identifier: MIT
package bands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_Reduce(t *testing.T) {
	t.Parallel()
	for a := Minimum; a <= Median; a++ {
		assert.Zero(t, a.Reduce(nil), "%s of nothing", a)
		assert.Equal(t, 3.0, a.Reduce([]float64{3}), "%s of one value", a)
	}
	assert.Equal(t, 2.0, Median.Reduce([]float64{5, 1, 2}))
}

func TestParseAggregate(t *testing.T) {
	t.Parallel()
	for a := Minimum; a <= Median; a++ {
		got, err := ParseAggregate(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}

	got, err := ParseAggregate("")
	require.NoError(t, err)
	assert.Equal(t, Maximum, got, "default aggregate")

	got, err = ParseAggregate("loudest")
	assert.Error(t, err)
	assert.Equal(t, Maximum, got)
}
