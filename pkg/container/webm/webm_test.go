package webm

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
	"github.com/xaionaro-go/voicecapture/pkg/container"
	"github.com/xaionaro-go/voicecapture/pkg/format"
)

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func sine(sampleRate types.SampleRate, channels types.Channel, d float64) *types.PCMBuffer {
	samples := int(d * float64(sampleRate))
	buf := types.NewPCMBuffer(sampleRate, channels, samples)
	for ch := range buf.Channels {
		for idx := range buf.Channels[ch] {
			buf.Channels[ch][idx] = float32(0.5 * math.Sin(2*math.Pi*440*float64(idx)/float64(sampleRate)))
		}
	}
	return buf
}

func rms(s []float32) float64 {
	var sum float64
	for _, v := range s {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(s)))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		sampleRate types.SampleRate
		channels   types.Channel
	}{
		{48000, 1},
		{48000, 2},
		{44100, 1},
		{16000, 1},
	} {
		var out bufferCloser
		require.NoError(t, EncodePCM(&out, sine(tc.sampleRate, tc.channels, 2), 64000))
		require.True(t, out.closed)
		require.NotZero(t, out.Len())

		buf, err := Decoder{}.Decode(context.Background(), out.Bytes())
		require.NoError(t, err, "%d Hz, %d channels", tc.sampleRate, tc.channels)
		assert.Equal(t, types.SampleRate(48000), buf.SampleRate)
		assert.Equal(t, tc.channels, buf.NumChannels())
		assert.Equal(t, 100*960-encoderLookahead, buf.Len())
		assert.Greater(t, rms(buf.Channels[0][4800:]), 0.1)
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decoder{}.Decode(context.Background(), []byte("definitely not a webm file"))
	require.Error(t, err)

	_, err = container.DefaultRegistry().Decode(context.Background(), "audio/webm;codecs=opus", []byte{0x1a, 0x45})
	require.ErrorIs(t, err, container.ErrDecode)
}

func TestOpusHead(t *testing.T) {
	h := opusHead{Version: 1, Channels: 2, PreSkip: 312, InputSampleRate: 44100}
	b := h.Bytes()
	require.Len(t, b, 19)

	parsed, err := parseOpusHead(b)
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	_, err = parseOpusHead([]byte("OpusTags12345678901"))
	require.Error(t, err)
}

func TestWriteFrameSize(t *testing.T) {
	var out bufferCloser
	w, err := NewOpusWriter(&out, 44100, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 882, w.FrameSamples())

	require.Error(t, w.WriteFrame(make([]float32, 881)))
	require.NoError(t, w.WriteFrame(make([]float32, 882)))
	assert.Equal(t, FrameDuration, w.Duration())
	require.NoError(t, w.Close())
}

func TestRegistered(t *testing.T) {
	_, ok := container.DefaultRegistry().Lookup(format.MimeTypeWebM)
	assert.True(t, ok)
}
