package resampler

import (
	"fmt"

	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
)

// Resample converts a planar buffer to another sample rate (linear
// interpolation) and channel count (mono<->N). The input is not modified;
// if nothing has to change, the input is returned as is.
func Resample(
	in *types.PCMBuffer,
	sampleRate types.SampleRate,
	channels types.Channel,
) (*types.PCMBuffer, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input buffer: %w", err)
	}
	if sampleRate == 0 || channels == 0 {
		return nil, fmt.Errorf("invalid output layout: %d Hz, %d channels", sampleRate, channels)
	}
	if in.SampleRate == sampleRate && in.NumChannels() == channels {
		return in, nil
	}

	mixed, err := remix(in.Channels, channels)
	if err != nil {
		return nil, err
	}

	out := &types.PCMBuffer{
		SampleRate: sampleRate,
		Channels:   make([][]float32, len(mixed)),
	}
	for ch := range mixed {
		out.Channels[ch] = interpolate(mixed[ch], in.SampleRate, sampleRate)
	}
	return out, nil
}

func remix(in [][]float32, channels types.Channel) ([][]float32, error) {
	switch {
	case types.Channel(len(in)) == channels:
		return in, nil
	case len(in) == 1:
		out := make([][]float32, channels)
		for ch := range out {
			out[ch] = in[0]
		}
		return out, nil
	case channels == 1:
		mono := make([]float32, len(in[0]))
		for idx := range mono {
			var sum float32
			for ch := range in {
				sum += in[ch][idx]
			}
			mono[idx] = sum / float32(len(in))
		}
		return [][]float32{mono}, nil
	default:
		return nil, fmt.Errorf("do not know how to convert %d channels to %d", len(in), channels)
	}
}

func interpolate(in []float32, from, to types.SampleRate) []float32 {
	if from == to {
		out := make([]float32, len(in))
		copy(out, in)
		return out
	}
	if len(in) == 0 {
		return []float32{}
	}

	outLen := int(uint64(len(in)) * uint64(to) / uint64(from))
	out := make([]float32, outLen)
	step := float64(from) / float64(to)
	for idx := range out {
		pos := float64(idx) * step
		left := int(pos)
		if left >= len(in)-1 {
			out[idx] = in[len(in)-1]
			continue
		}
		frac := float32(pos - float64(left))
		out[idx] = in[left]*(1-frac) + in[left+1]*frac
	}
	return out
}
