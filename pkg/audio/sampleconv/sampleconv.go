// Package sampleconv converts between floating point PCM samples in
// [-1, 1] and signed 16-bit PCM.
package sampleconv

import (
	"math"
)

// Int16 converts a floating point sample to a signed 16-bit one.
//
// Values outside of [-1, 1] are clamped. Negative values are scaled by
// 32768 and non-negative ones by 32767, so both ends of the int16 range
// are reachable. NaN is treated as silence.
func Int16(s float32) int16 {
	v := float64(s)
	switch {
	case math.IsNaN(v):
		return 0
	case v < -1:
		v = -1
	case v > 1:
		v = 1
	}
	if v < 0 {
		return int16(math.Round(v * 32768))
	}
	return int16(math.Round(v * 32767))
}

// Int16s converts every sample of src; the result has the same length.
func Int16s(src []float32) []int16 {
	dst := make([]int16, len(src))
	for idx, s := range src {
		dst[idx] = Int16(s)
	}
	return dst
}

// Float32 is the reverse of Int16 (up to rounding) for decoders that
// deliver integer PCM.
func Float32(s int16) float32 {
	return float32(s) / 32768
}

// Float32s converts every sample of src; the result has the same length.
func Float32s(src []int16) []float32 {
	dst := make([]float32, len(src))
	for idx, s := range src {
		dst[idx] = Float32(s)
	}
	return dst
}
