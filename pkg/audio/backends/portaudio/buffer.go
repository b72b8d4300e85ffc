package portaudio

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
)

// sampleBuffer is an interleaved buffer portaudio reads from or writes to,
// together with its byte view.
type sampleBuffer struct {
	Typed  any
	Bytes  []byte
	Frames int
}

func newSampleBuffer[T any](
	sampleRate types.SampleRate,
	channels types.Channel,
	duration time.Duration,
) sampleBuffer {
	frames := int(duration.Seconds() * float64(sampleRate))
	buf := make([]T, frames*int(channels))

	var sample T
	ptr := unsafe.SliceData(buf)
	return sampleBuffer{
		Typed:  buf,
		Bytes:  unsafe.Slice((*byte)(unsafe.Pointer(ptr)), len(buf)*int(unsafe.Sizeof(sample))),
		Frames: frames,
	}
}

func newSampleBufferForFormat(
	format types.PCMFormat,
	sampleRate types.SampleRate,
	channels types.Channel,
	duration time.Duration,
) (sampleBuffer, error) {
	switch format {
	case types.PCMFormatU8:
		return newSampleBuffer[uint8](sampleRate, channels, duration), nil
	case types.PCMFormatS16LE:
		return newSampleBuffer[int16](sampleRate, channels, duration), nil
	case types.PCMFormatS32LE:
		return newSampleBuffer[int32](sampleRate, channels, duration), nil
	case types.PCMFormatFloat32LE:
		return newSampleBuffer[float32](sampleRate, channels, duration), nil
	default:
		return sampleBuffer{}, fmt.Errorf("do not know how to start a stream for PCM format %s", format)
	}
}
