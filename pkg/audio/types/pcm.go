package types

import (
	"fmt"
	"time"
)

type SampleRate uint32

type Channel uint32

type PCMFormat uint

const (
	PCMFormatUndefined = PCMFormat(iota)
	PCMFormatU8
	PCMFormatS16LE
	PCMFormatS16BE
	PCMFormatS24LE
	PCMFormatS32LE
	PCMFormatS64LE
	PCMFormatFloat32LE
	PCMFormatFloat64LE
)

// Size returns the size of a single sample of a single channel in bytes.
func (f PCMFormat) Size() uint {
	switch f {
	case PCMFormatU8:
		return 1
	case PCMFormatS16LE, PCMFormatS16BE:
		return 2
	case PCMFormatS24LE:
		return 3
	case PCMFormatS32LE, PCMFormatFloat32LE:
		return 4
	case PCMFormatS64LE, PCMFormatFloat64LE:
		return 8
	default:
		return 0
	}
}

func (f PCMFormat) String() string {
	switch f {
	case PCMFormatUndefined:
		return "undefined"
	case PCMFormatU8:
		return "u8"
	case PCMFormatS16LE:
		return "s16le"
	case PCMFormatS16BE:
		return "s16be"
	case PCMFormatS24LE:
		return "s24le"
	case PCMFormatS32LE:
		return "s32le"
	case PCMFormatS64LE:
		return "s64le"
	case PCMFormatFloat32LE:
		return "f32le"
	case PCMFormatFloat64LE:
		return "f64le"
	default:
		return fmt.Sprintf("unknown_format_%d", uint(f))
	}
}

// BytesForDuration returns how many bytes of interleaved PCM of the given
// layout cover the duration.
func (f PCMFormat) BytesForDuration(
	sampleRate SampleRate,
	channels Channel,
	d time.Duration,
) uint64 {
	samples := uint64(d.Seconds() * float64(sampleRate))
	return samples * uint64(channels) * uint64(f.Size())
}

// DurationForBytes is the reverse of BytesForDuration.
func (f PCMFormat) DurationForBytes(
	sampleRate SampleRate,
	channels Channel,
	n uint64,
) time.Duration {
	frameSize := uint64(channels) * uint64(f.Size())
	if frameSize == 0 || sampleRate == 0 {
		return 0
	}
	samples := n / frameSize
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
