package webm

import (
	"fmt"
	"io"
	"time"

	"github.com/xaionaro-go/voicecapture/pkg/audio/planar"
	"github.com/xaionaro-go/voicecapture/pkg/audio/resampler"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
	"gopkg.in/hraban/opus.v2"
)

const (
	FrameDuration = 20 * time.Millisecond

	// MaxOpusBitrate is the highest bitrate libopus accepts.
	MaxOpusBitrate = 510000

	// encoderLookahead is the libopus lookahead at 48kHz with the audio
	// application, it becomes the pre-skip of the stream.
	encoderLookahead = 312

	maxPacketSize = 4000
)

func samplesPerFrame(rate types.SampleRate) int {
	return int(uint64(rate) * uint64(FrameDuration) / uint64(time.Second))
}

func isOpusSampleRate(rate types.SampleRate) bool {
	switch rate {
	case 8000, 12000, 16000, 24000, 48000:
		return true
	}
	return false
}

// OpusWriter encodes interleaved float32 PCM into Opus and muxes it into
// WebM. Sample rates Opus cannot encode natively are resampled to 48kHz.
type OpusWriter struct {
	muxer        *Writer
	encoder      *opus.Encoder
	inputRate    types.SampleRate
	encodeRate   types.SampleRate
	channels     types.Channel
	frameSamples int
	packet       []byte
	timestamp    time.Duration
}

func NewOpusWriter(
	w io.WriteCloser,
	sampleRate types.SampleRate,
	channels types.Channel,
	bitrate int,
) (*OpusWriter, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("opus supports 1 or 2 channels here, requested %d", channels)
	}
	if sampleRate == 0 {
		return nil, fmt.Errorf("sample rate is not set")
	}
	encodeRate := sampleRate
	if !isOpusSampleRate(encodeRate) {
		encodeRate = opusTimebase
	}

	encoder, err := opus.NewEncoder(int(encodeRate), int(channels), opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize an opus encoder (%d Hz, %d channels): %w", encodeRate, channels, err)
	}
	if bitrate > 0 {
		if bitrate > MaxOpusBitrate {
			bitrate = MaxOpusBitrate
		}
		if err := encoder.SetBitrate(bitrate); err != nil {
			return nil, fmt.Errorf("unable to set the bitrate to %d: %w", bitrate, err)
		}
	}

	muxer, err := newWriter(w, int(channels), opusHead{
		Version:         1,
		Channels:        uint8(channels),
		PreSkip:         encoderLookahead,
		InputSampleRate: uint32(sampleRate),
	}, FrameDuration)
	if err != nil {
		return nil, err
	}

	return &OpusWriter{
		muxer:        muxer,
		encoder:      encoder,
		inputRate:    sampleRate,
		encodeRate:   encodeRate,
		channels:     channels,
		frameSamples: samplesPerFrame(sampleRate),
		packet:       make([]byte, maxPacketSize),
	}, nil
}

// FrameSamples returns the amount of samples per channel WriteFrame
// expects.
func (w *OpusWriter) FrameSamples() int {
	return w.frameSamples
}

// WriteFrame encodes exactly one frame of interleaved PCM.
func (w *OpusWriter) WriteFrame(interleaved []float32) error {
	if len(interleaved) != w.frameSamples*int(w.channels) {
		return fmt.Errorf("expected %d samples, received %d", w.frameSamples*int(w.channels), len(interleaved))
	}

	pcm := interleaved
	if w.encodeRate != w.inputRate {
		planes, err := planar.Planarize(w.channels, interleaved)
		if err != nil {
			return err
		}
		converted, err := resampler.Resample(&types.PCMBuffer{SampleRate: w.inputRate, Channels: planes}, w.encodeRate, w.channels)
		if err != nil {
			return fmt.Errorf("unable to resample the frame: %w", err)
		}
		encodeSamples := samplesPerFrame(w.encodeRate)
		for ch := range converted.Channels {
			plane := converted.Channels[ch]
			for len(plane) < encodeSamples {
				plane = append(plane, plane[len(plane)-1])
			}
			converted.Channels[ch] = plane[:encodeSamples]
		}
		pcm, err = planar.Unplanarize(nil, converted.Channels...)
		if err != nil {
			return err
		}
	}

	n, err := w.encoder.EncodeFloat32(pcm, w.packet)
	if err != nil {
		return fmt.Errorf("unable to encode a frame: %w", err)
	}
	if err := w.muxer.WritePacket(w.timestamp, w.packet[:n]); err != nil {
		return err
	}
	w.timestamp += FrameDuration
	return nil
}

// Duration returns the amount of audio written so far.
func (w *OpusWriter) Duration() time.Duration {
	return w.timestamp
}

func (w *OpusWriter) Close() error {
	return w.muxer.Close()
}

// EncodePCM is a convenience function that encodes a whole buffer into a
// WebM/Opus stream; the last partial frame is padded with silence.
func EncodePCM(
	w io.WriteCloser,
	buf *types.PCMBuffer,
	bitrate int,
) (_err error) {
	if err := buf.Validate(); err != nil {
		return fmt.Errorf("invalid buffer: %w", err)
	}
	ow, err := NewOpusWriter(w, buf.SampleRate, buf.NumChannels(), bitrate)
	if err != nil {
		return err
	}
	defer func() {
		if err := ow.Close(); err != nil && _err == nil {
			_err = fmt.Errorf("unable to finish the stream: %w", err)
		}
	}()

	frame := make([][]float32, buf.NumChannels())
	interleaved := make([]float32, 0, ow.FrameSamples()*int(buf.NumChannels()))
	for offset := 0; offset < buf.Len(); offset += ow.FrameSamples() {
		end := min(offset+ow.FrameSamples(), buf.Len())
		for ch := range frame {
			frame[ch] = append(frame[ch][:0], buf.Channels[ch][offset:end]...)
			for len(frame[ch]) < ow.FrameSamples() {
				frame[ch] = append(frame[ch], 0)
			}
		}
		interleaved, err = planar.Unplanarize(interleaved[:0], frame...)
		if err != nil {
			return err
		}
		if err := ow.WriteFrame(interleaved); err != nil {
			return err
		}
	}
	return nil
}
