// Package vorbis decodes Ogg/Vorbis files.
package vorbis

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jfreymuth/oggvorbis"
	"github.com/xaionaro-go/voicecapture/pkg/audio/planar"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
	"github.com/xaionaro-go/voicecapture/pkg/container"
	"github.com/xaionaro-go/voicecapture/pkg/format"
)

func init() {
	container.Register(format.MimeTypeOgg, Decoder{})
}

type Decoder struct{}

var _ container.Decoder = Decoder{}

func (Decoder) Decode(
	ctx context.Context,
	data []byte,
) (*types.PCMBuffer, error) {
	samples, f, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to read the vorbis stream: %w", err)
	}
	if f.Channels < 1 {
		return nil, fmt.Errorf("%w: %d channels", container.ErrUnsupportedChannel, f.Channels)
	}
	planes, err := planar.Planarize(types.Channel(f.Channels), samples)
	if err != nil {
		return nil, fmt.Errorf("unable to deinterleave: %w", err)
	}
	return &types.PCMBuffer{
		SampleRate: types.SampleRate(f.SampleRate),
		Channels:   planes,
	}, nil
}
