// Package mp3encoder turns blocks of 16-bit PCM into an MP3 (layer III)
// byte stream.
package mp3encoder

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/braheezy/shine-mp3/pkg/mp3"
	"github.com/xaionaro-go/voicecapture/pkg/audio/planar"
)

const (
	// BlockSamples is the amount of samples per channel of an MPEG-1 layer
	// III frame; callers feed the encoder in blocks of this size.
	BlockSamples = 1152

	// DefaultBitrate is the only bitrate (kbps) the encoder produces.
	DefaultBitrate = 128
)

var (
	ErrUnsupportedBitrate      = errors.New("unsupported bitrate")
	ErrUnsupportedSampleRate   = errors.New("unsupported sample rate")
	ErrUnsupportedChannelCount = errors.New("unsupported channel count")
	ErrEncoderFinished         = errors.New("the encoder is already flushed")
)

// frameSamples maps the sample rates of MPEG-1 and MPEG-2 to the amount of
// samples per channel in one frame. shine cannot write MPEG-2.5 headers, so
// 8000, 11025 and 12000 Hz are not accepted.
var frameSamples = map[int]int{
	48000: 1152,
	44100: 1152,
	32000: 1152,
	24000: 576,
	22050: 576,
	16000: 576,
}

// Encoder is a stateful single-use MP3 encoder: feed it with EncodeBlock
// and finish with Flush.
//
// Mono input is encoded as a two-channel stream with both channels equal,
// shine's mono path is not reliable.
type Encoder struct {
	channels     int
	sampleRate   int
	frameSamples int
	encoder      *mp3.Encoder
	pending      []int16 // interleaved stereo samples that do not form a whole frame yet
	output       bytes.Buffer
	finished     bool
}

func New(
	channels int,
	sampleRate int,
	bitrateKbps int,
) (*Encoder, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedChannelCount, channels)
	}
	if bitrateKbps != DefaultBitrate {
		return nil, fmt.Errorf("%w: %d kbps (only %d kbps is supported)", ErrUnsupportedBitrate, bitrateKbps, DefaultBitrate)
	}
	samples, ok := frameSamples[sampleRate]
	if !ok {
		return nil, fmt.Errorf("%w: %d Hz", ErrUnsupportedSampleRate, sampleRate)
	}

	return &Encoder{
		channels:     channels,
		sampleRate:   sampleRate,
		frameSamples: samples,
		encoder:      mp3.NewEncoder(sampleRate, 2),
	}, nil
}

func (e *Encoder) Channels() int {
	return e.channels
}

func (e *Encoder) SampleRate() int {
	return e.sampleRate
}

// EncodeBlock consumes up to BlockSamples samples per channel and returns
// the MP3 bytes that became available, which may be none. right is
// ignored for mono encoders.
func (e *Encoder) EncodeBlock(left, right []int16) ([]byte, error) {
	if e.finished {
		return nil, ErrEncoderFinished
	}
	if len(left) > BlockSamples {
		return nil, fmt.Errorf("the block is too large: %d > %d", len(left), BlockSamples)
	}
	if e.channels == 1 {
		right = left
	}
	if len(right) != len(left) {
		return nil, fmt.Errorf("the channels have different lengths: %d != %d", len(left), len(right))
	}

	var err error
	e.pending, err = planar.Unplanarize(e.pending, left, right)
	if err != nil {
		return nil, fmt.Errorf("unable to interleave the channels: %w", err)
	}

	frameLen := e.frameSamples * 2
	complete := (len(e.pending) / frameLen) * frameLen
	if complete == 0 {
		return []byte{}, nil
	}
	out, err := e.encode(e.pending[:complete])
	if err != nil {
		return nil, err
	}
	e.pending = append(e.pending[:0], e.pending[complete:]...)
	return out, nil
}

// Flush zero-pads the trailing partial frame (if any), encodes it and
// finishes the encoder.
func (e *Encoder) Flush() ([]byte, error) {
	if e.finished {
		return nil, ErrEncoderFinished
	}
	e.finished = true

	if len(e.pending) == 0 {
		return []byte{}, nil
	}
	frameLen := e.frameSamples * 2
	for len(e.pending)%frameLen != 0 {
		e.pending = append(e.pending, 0)
	}
	out, err := e.encode(e.pending)
	e.pending = nil
	return out, err
}

func (e *Encoder) encode(interleaved []int16) ([]byte, error) {
	e.output.Reset()
	if err := e.encoder.Write(&e.output, interleaved); err != nil {
		return nil, fmt.Errorf("unable to encode %d samples: %w", len(interleaved), err)
	}
	out := make([]byte, e.output.Len())
	copy(out, e.output.Bytes())
	return out, nil
}
