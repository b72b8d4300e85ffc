// Package transcode converts a captured recording into the negotiated
// output format.
package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/voicecapture/pkg/audio/sampleconv"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
	"github.com/xaionaro-go/voicecapture/pkg/container"
	"github.com/xaionaro-go/voicecapture/pkg/format"
	"github.com/xaionaro-go/voicecapture/pkg/mp3encoder"
)

var ErrUnsupportedChannelCount = errors.New("unsupported channel count")

// Encoder is a single-use block encoder, see mp3encoder.Encoder.
type Encoder interface {
	EncodeBlock(left, right []int16) ([]byte, error)
	Flush() ([]byte, error)
}

type EncoderFactory func(channels, sampleRate, bitrateKbps int) (Encoder, error)

func newMP3Encoder(channels, sampleRate, bitrateKbps int) (Encoder, error) {
	return mp3encoder.New(channels, sampleRate, bitrateKbps)
}

type Pipeline struct {
	Decoders   *container.Registry
	NewEncoder EncoderFactory
}

// New returns a pipeline that uses the given decoders (the default
// registry if nil) and the MP3 encoder.
func New(decoders *container.Registry) *Pipeline {
	if decoders == nil {
		decoders = container.DefaultRegistry()
	}
	return &Pipeline{
		Decoders:   decoders,
		NewEncoder: newMP3Encoder,
	}
}

// Transcode returns raw as is unless the negotiated format is MP3, in
// which case raw is decoded and encoded into MP3. Decoding failures wrap
// container.ErrDecode; nothing partial is returned on failure.
func (p *Pipeline) Transcode(
	ctx context.Context,
	raw format.Blob,
	meta format.Metadata,
) (_ret format.Blob, _err error) {
	logger.Tracef(ctx, "Transcode(%s, %d bytes -> %s)", raw.MimeType, raw.Len(), meta.MimeType)
	defer func() {
		logger.Tracef(ctx, "/Transcode(%s, %d bytes -> %s): %v", raw.MimeType, raw.Len(), meta.MimeType, _err)
	}()

	if !meta.IsMP3() {
		return raw, nil
	}
	if raw.MimeType.Base() == format.MimeTypeMP3 {
		return format.Blob{MimeType: format.MimeTypeMP3, Data: raw.Data}, nil
	}

	buf, err := p.Decoders.Decode(ctx, raw.MimeType, raw.Data)
	if err != nil {
		return format.Blob{}, err
	}
	return p.EncodeMP3(ctx, buf)
}

// EncodeMP3 encodes a decoded buffer at its own sample rate and channel
// count using a fresh encoder.
func (p *Pipeline) EncodeMP3(
	ctx context.Context,
	buf *types.PCMBuffer,
) (format.Blob, error) {
	if err := buf.Validate(); err != nil {
		return format.Blob{}, fmt.Errorf("invalid PCM buffer: %w", err)
	}
	channels := int(buf.NumChannels())
	if channels > 2 {
		return format.Blob{}, fmt.Errorf("%w: %d (at most 2 channels can be encoded)", ErrUnsupportedChannelCount, channels)
	}

	newEncoder := p.NewEncoder
	if newEncoder == nil {
		newEncoder = newMP3Encoder
	}
	enc, err := newEncoder(channels, int(buf.SampleRate), mp3encoder.DefaultBitrate)
	if err != nil {
		return format.Blob{}, fmt.Errorf("unable to initialize an encoder (%d channels, %d Hz): %w", channels, buf.SampleRate, err)
	}

	var out bytes.Buffer
	for offset := 0; offset < buf.Len(); offset += mp3encoder.BlockSamples {
		if err := ctx.Err(); err != nil {
			return format.Blob{}, err
		}
		end := min(offset+mp3encoder.BlockSamples, buf.Len())

		left := sampleconv.Int16s(buf.Channels[0][offset:end])
		var right []int16
		if channels == 2 {
			right = sampleconv.Int16s(buf.Channels[1][offset:end])
		}
		chunk, err := enc.EncodeBlock(left, right)
		if err != nil {
			return format.Blob{}, fmt.Errorf("unable to encode the block at sample %d: %w", offset, err)
		}
		out.Write(chunk)
	}
	chunk, err := enc.Flush()
	if err != nil {
		return format.Blob{}, fmt.Errorf("unable to flush the encoder: %w", err)
	}
	out.Write(chunk)

	logger.Debugf(ctx, "encoded %v of audio (%d Hz, %d channels) into %d bytes of mp3", buf.Duration(), buf.SampleRate, channels, out.Len())
	return format.Blob{
		MimeType: format.MimeTypeMP3,
		Data:     out.Bytes(),
	}, nil
}
