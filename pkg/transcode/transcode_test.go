package transcode

import (
	"bytes"
	"context"
	"io"
	"math"
	"testing"

	"github.com/hajimehoshi/go-mp3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
	"github.com/xaionaro-go/voicecapture/pkg/container"
	"github.com/xaionaro-go/voicecapture/pkg/container/webm"
	"github.com/xaionaro-go/voicecapture/pkg/format"
	"github.com/xaionaro-go/voicecapture/pkg/mp3encoder"
)

type nopCloser struct {
	bytes.Buffer
}

func (*nopCloser) Close() error { return nil }

type fakeEncoder struct {
	blocks  [][2][]int16
	flushes int
}

func (e *fakeEncoder) EncodeBlock(left, right []int16) ([]byte, error) {
	e.blocks = append(e.blocks, [2][]int16{left, right})
	return []byte{byte(len(e.blocks))}, nil
}

func (e *fakeEncoder) Flush() ([]byte, error) {
	e.flushes++
	return []byte{0xff}, nil
}

func registryWith(buf *types.PCMBuffer) *container.Registry {
	r := container.NewRegistry()
	r.Register(format.MimeTypeWebM, container.DecoderFunc(func(ctx context.Context, data []byte) (*types.PCMBuffer, error) {
		return buf, nil
	}))
	return r
}

func TestPassthrough(t *testing.T) {
	p := New(container.NewRegistry())
	raw := format.Blob{MimeType: format.MimeTypeWebM, Data: []byte{1, 2, 3}}

	for _, meta := range []format.Metadata{format.MetadataWebM, format.MetadataMP4} {
		out, err := p.Transcode(context.Background(), raw, meta)
		require.NoError(t, err)
		assert.Equal(t, raw, out)
	}
}

func TestWebMToMP3(t *testing.T) {
	const sampleRate = 44100
	src := types.NewPCMBuffer(sampleRate, 1, 2*sampleRate)
	for idx := range src.Channels[0] {
		src.Channels[0][idx] = float32(0.3 * math.Sin(2*math.Pi*330*float64(idx)/sampleRate))
	}
	var recorded nopCloser
	require.NoError(t, webm.EncodePCM(&recorded, src, 128000))

	out, err := New(nil).Transcode(
		context.Background(),
		format.Blob{MimeType: "audio/webm;codecs=opus", Data: recorded.Bytes()},
		format.MetadataMP3,
	)
	require.NoError(t, err)
	assert.Equal(t, format.MimeTypeMP3, out.MimeType)
	require.NotEmpty(t, out.Data)

	dec, err := mp3.NewDecoder(bytes.NewReader(out.Data))
	require.NoError(t, err)
	pcm, err := io.ReadAll(dec)
	require.NoError(t, err)
	seconds := float64(len(pcm)) / 4 / float64(dec.SampleRate())
	assert.InDelta(t, 2, seconds, 0.2)
}

func TestBlocks(t *testing.T) {
	buf := types.NewPCMBuffer(48000, 2, 2*mp3encoder.BlockSamples+100)
	buf.Channels[0][0] = 1
	buf.Channels[1][0] = -1

	var encoders []*fakeEncoder
	p := &Pipeline{
		Decoders: registryWith(buf),
		NewEncoder: func(channels, sampleRate, bitrate int) (Encoder, error) {
			assert.Equal(t, 2, channels)
			assert.Equal(t, 48000, sampleRate)
			assert.Equal(t, mp3encoder.DefaultBitrate, bitrate)
			enc := &fakeEncoder{}
			encoders = append(encoders, enc)
			return enc, nil
		},
	}

	for i := 0; i < 2; i++ {
		out, err := p.Transcode(context.Background(), format.Blob{MimeType: format.MimeTypeWebM}, format.MetadataMP3)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3, 0xff}, out.Data)
	}

	require.Len(t, encoders, 2, "every transcode needs a fresh encoder")
	enc := encoders[0]
	assert.Equal(t, 1, enc.flushes)
	require.Len(t, enc.blocks, 3)
	assert.Len(t, enc.blocks[0][0], mp3encoder.BlockSamples)
	assert.Len(t, enc.blocks[1][1], mp3encoder.BlockSamples)
	assert.Len(t, enc.blocks[2][0], 100)
	assert.Equal(t, int16(32767), enc.blocks[0][0][0])
	assert.Equal(t, int16(-32768), enc.blocks[0][1][0])
}

func TestMonoHasNoRightChannel(t *testing.T) {
	enc := &fakeEncoder{}
	p := &Pipeline{
		Decoders: registryWith(types.NewPCMBuffer(44100, 1, 10)),
		NewEncoder: func(channels, sampleRate, bitrate int) (Encoder, error) {
			return enc, nil
		},
	}
	_, err := p.Transcode(context.Background(), format.Blob{MimeType: format.MimeTypeWebM}, format.MetadataMP3)
	require.NoError(t, err)
	require.Len(t, enc.blocks, 1)
	assert.Nil(t, enc.blocks[0][1])
}

func TestTooManyChannels(t *testing.T) {
	p := New(registryWith(types.NewPCMBuffer(48000, 3, 10)))
	_, err := p.Transcode(context.Background(), format.Blob{MimeType: format.MimeTypeWebM}, format.MetadataMP3)
	require.ErrorIs(t, err, ErrUnsupportedChannelCount)
}

func TestDecodeFailure(t *testing.T) {
	p := New(container.NewRegistry())
	out, err := p.Transcode(context.Background(), format.Blob{MimeType: format.MimeTypeWebM, Data: []byte("junk")}, format.MetadataMP3)
	require.ErrorIs(t, err, container.ErrDecode)
	assert.Empty(t, out.Data)
}

func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(registryWith(types.NewPCMBuffer(48000, 1, 10)))
	_, err := p.Transcode(ctx, format.Blob{MimeType: format.MimeTypeWebM}, format.MetadataMP3)
	require.ErrorIs(t, err, context.Canceled)
}
