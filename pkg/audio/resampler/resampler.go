package resampler

import (
	"fmt"
	"io"
	"sync"

	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
)

const (
	distanceStep = 10000
)

type Format struct {
	Channels   types.Channel
	SampleRate types.SampleRate
	PCMFormat  types.PCMFormat
}

type precalculated struct {
	inSampleSize    uint
	outSampleSize   uint
	inNumAvg        uint
	outNumRepeat    uint
	outDistanceStep uint64
}

// Resampler converts an interleaved PCM byte stream from one Format to
// another while it is being read. Rate conversion is nearest-sample,
// channel conversion is only mono<->N.
type Resampler struct {
	inReader    io.Reader
	inFormat    Format
	outFormat   Format
	inDistance  uint64
	outDistance uint64
	locker      sync.Mutex
	buffer      []byte
	precalculated
}

var _ io.Reader = (*Resampler)(nil)

func NewResampler(
	inFormat Format,
	inReader io.Reader,
	outFormat Format,
) (*Resampler, error) {
	r := &Resampler{
		inReader:  inReader,
		inFormat:  inFormat,
		outFormat: outFormat,
	}
	err := r.init()
	if err != nil {
		return nil, fmt.Errorf("unable to initialize a resampler from %#+v to %#+v: %w", inFormat, outFormat, err)
	}
	return r, nil
}

func (r *Resampler) init() error {
	r.inSampleSize = r.inFormat.PCMFormat.Size()
	r.outSampleSize = r.outFormat.PCMFormat.Size()
	if r.inSampleSize == 0 || r.outSampleSize == 0 {
		return fmt.Errorf("unsupported PCM format: %s -> %s", r.inFormat.PCMFormat, r.outFormat.PCMFormat)
	}
	if r.inFormat.SampleRate == 0 || r.outFormat.SampleRate == 0 {
		return fmt.Errorf("sample rate is not set")
	}

	r.inNumAvg = 1
	r.outNumRepeat = 1
	if r.inFormat.Channels != r.outFormat.Channels {
		switch {
		case r.inFormat.Channels == 1:
			r.outNumRepeat = uint(r.outFormat.Channels)
		case r.outFormat.Channels == 1:
			r.inNumAvg = uint(r.inFormat.Channels)
		default:
			return fmt.Errorf("do not know how to convert %d channels to %d", r.inFormat.Channels, r.outFormat.Channels)
		}
	} else {
		r.inNumAvg = uint(r.inFormat.Channels)
		r.outNumRepeat = 1
	}

	sampleRateAdjust := float64(r.outFormat.SampleRate) / float64(r.inFormat.SampleRate)
	r.outDistanceStep = uint64(float64(distanceStep) / sampleRateAdjust)

	r.inDistance = 0
	r.outDistance = 0
	return nil
}

// passthroughChannels reports whether channels are copied one to one
// rather than averaged or repeated.
func (r *Resampler) passthroughChannels() bool {
	return r.inFormat.Channels == r.outFormat.Channels
}

func (r *Resampler) Read(p []byte) (int, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	outFrameSize := uint64(r.outSampleSize) * uint64(r.outNumRepeat)
	if r.passthroughChannels() {
		outFrameSize = uint64(r.outSampleSize) * uint64(r.outFormat.Channels)
	}
	inFrameSize := uint64(r.inSampleSize) * uint64(r.inNumAvg)

	maxOutFrames := uint64(len(p)) / outFrameSize
	if maxOutFrames == 0 {
		return 0, nil
	}

	framesToRead := uint64(float64(maxOutFrames) * float64(r.inFormat.SampleRate) / float64(r.outFormat.SampleRate))
	if framesToRead == 0 {
		framesToRead = 1
	}
	bytesToRead := framesToRead * inFrameSize
	if cap(r.buffer) < int(bytesToRead) {
		r.buffer = make([]byte, bytesToRead)
	} else {
		r.buffer = r.buffer[:bytesToRead]
	}
	n, err := io.ReadAtLeast(r.inReader, r.buffer, int(inFrameSize))
	switch err {
	case nil:
	case io.ErrUnexpectedEOF:
		err = io.EOF
	}
	r.buffer = r.buffer[:n]

	framesRead := uint64(n) / inFrameSize
	values := make([]float64, max(r.inNumAvg, 1))

	dstFrameIdx := uint64(0)
	srcFrameIdx := uint64(0)
	for srcFrameIdx < framesRead && dstFrameIdx < maxOutFrames {
		for r.inDistance < r.outDistance && srcFrameIdx < framesRead {
			srcFrameIdx++
			r.inDistance += distanceStep
		}
		if srcFrameIdx >= framesRead {
			break
		}

		idxSrc := srcFrameIdx * inFrameSize
		for ch := uint64(0); ch < uint64(r.inNumAvg); ch++ {
			values[ch] = decodeSample(r.inFormat.PCMFormat, r.buffer[idxSrc+ch*uint64(r.inSampleSize):])
		}
		if !r.passthroughChannels() && r.inNumAvg > 1 {
			var sum float64
			for _, v := range values {
				sum += v
			}
			values[0] = sum / float64(r.inNumAvg)
		}

		for dstFrameIdx < maxOutFrames && r.outDistance <= r.inDistance {
			idxDst := dstFrameIdx * outFrameSize
			switch {
			case r.passthroughChannels():
				for ch := uint64(0); ch < uint64(r.outFormat.Channels); ch++ {
					encodeSample(r.outFormat.PCMFormat, p[idxDst+ch*uint64(r.outSampleSize):], values[ch])
				}
			default:
				for repeatIdx := uint64(0); repeatIdx < uint64(r.outNumRepeat); repeatIdx++ {
					encodeSample(r.outFormat.PCMFormat, p[idxDst+repeatIdx*uint64(r.outSampleSize):], values[0])
				}
			}
			dstFrameIdx++
			r.outDistance += r.outDistanceStep
		}

		srcFrameIdx++
		r.inDistance += distanceStep
	}

	return int(dstFrameIdx * outFrameSize), err
}
