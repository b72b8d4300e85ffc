// Package mp3 decodes MP3 streams, such as the ones stored after
// transcoding.
package mp3

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
	"github.com/xaionaro-go/voicecapture/pkg/audio/sampleconv"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
	"github.com/xaionaro-go/voicecapture/pkg/container"
	"github.com/xaionaro-go/voicecapture/pkg/format"
)

// go-mp3 always produces 16-bit little-endian stereo.
const outputChannels = 2

func init() {
	container.Register(format.MimeTypeMP3, Decoder{})
	container.Register(format.MimeTypeMPEG, Decoder{})
}

type Decoder struct{}

var _ container.Decoder = Decoder{}

func (Decoder) Decode(
	ctx context.Context,
	data []byte,
) (*types.PCMBuffer, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to initialize an mp3 decoder: %w", err)
	}

	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("unable to decode: %w", err)
	}

	frameSize := 2 * outputChannels
	frames := len(raw) / frameSize
	buf := types.NewPCMBuffer(types.SampleRate(d.SampleRate()), outputChannels, frames)
	for idx := 0; idx < frames; idx++ {
		for ch := 0; ch < outputChannels; ch++ {
			s := int16(binary.LittleEndian.Uint16(raw[idx*frameSize+ch*2:]))
			buf.Channels[ch][idx] = sampleconv.Float32(s)
		}
	}
	return buf, nil
}
