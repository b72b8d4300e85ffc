package planar

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

func TestUnplanarize(t *testing.T) {
	left := []int16{1, 2, 3, 4}
	right := []int16{11, 12, 13, 14}

	r, err := Unplanarize(nil, left, right)
	require.NoError(t, err)
	require.Equal(t, []int16{1, 11, 2, 12, 3, 13, 4, 14}, r, spew.Sdump(left, right))
}

func TestUnplanarizeAppends(t *testing.T) {
	r, err := Unplanarize([]float32{0.5}, []float32{0.1, 0.2}, []float32{-0.1, -0.2})
	require.NoError(t, err)
	require.Equal(t, []float32{0.5, 0.1, -0.1, 0.2, -0.2}, r)
}

func TestUnplanarizeMono(t *testing.T) {
	r, err := Unplanarize(nil, []int16{7, 8, 9})
	require.NoError(t, err)
	require.Equal(t, []int16{7, 8, 9}, r)
}

func TestUnplanarizeMismatchedLengths(t *testing.T) {
	_, err := Unplanarize(nil, []int16{1, 2}, []int16{1})
	require.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	b := []uint8{0x00, 0x10, 0x01, 0x11, 0x02, 0x12, 0x03, 0x13}
	planes, err := Planarize(2, b)
	require.NoError(t, err)
	require.Equal(t, [][]uint8{{0x00, 0x01, 0x02, 0x03}, {0x10, 0x11, 0x12, 0x13}}, planes)

	r, err := Unplanarize(nil, planes...)
	require.NoError(t, err)
	require.Equal(t, b, r)
}
