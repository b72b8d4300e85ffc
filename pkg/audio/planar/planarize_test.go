package planar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlanarize(t *testing.T) {
	r, err := Planarize(2, []float32{1, 11, 2, 12, 3, 13})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{1, 2, 3}, {11, 12, 13}}, r)
}

func TestPlanarizeInvalidLength(t *testing.T) {
	_, err := Planarize(2, []float32{1, 11, 2})
	require.Error(t, err)

	_, err = Planarize[float32](0, nil)
	require.Error(t, err)
}
