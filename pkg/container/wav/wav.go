// Package wav decodes integer PCM WAV files.
package wav

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-audio/wav"
	"github.com/xaionaro-go/voicecapture/pkg/audio/planar"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
	"github.com/xaionaro-go/voicecapture/pkg/container"
	"github.com/xaionaro-go/voicecapture/pkg/format"
)

const wavFormatPCM = 1

func init() {
	container.Register(format.MimeTypeWAV, Decoder{})
}

type Decoder struct{}

var _ container.Decoder = Decoder{}

func (Decoder) Decode(
	ctx context.Context,
	data []byte,
) (*types.PCMBuffer, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, fmt.Errorf("not a valid WAV file")
	}
	if d.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("unsupported WAV audio format %d, only integer PCM is supported", d.WavAudioFormat)
	}
	intBuf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("unable to read the PCM data: %w", err)
	}
	if intBuf.Format == nil || intBuf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("%w: no channel information", container.ErrUnsupportedChannel)
	}

	bitDepth := intBuf.SourceBitDepth
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}
	scale := float32(int64(1) << (bitDepth - 1))
	samples := make([]float32, len(intBuf.Data))
	for idx, v := range intBuf.Data {
		if bitDepth == 8 {
			// 8-bit WAV is unsigned
			v -= 128
		}
		samples[idx] = float32(v) / scale
	}

	channels := types.Channel(intBuf.Format.NumChannels)
	usable := len(samples) - len(samples)%int(channels)
	planes, err := planar.Planarize(channels, samples[:usable])
	if err != nil {
		return nil, fmt.Errorf("unable to deinterleave: %w", err)
	}
	return &types.PCMBuffer{
		SampleRate: types.SampleRate(intBuf.Format.SampleRate),
		Channels:   planes,
	}, nil
}
