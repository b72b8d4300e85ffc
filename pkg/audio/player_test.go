package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePlayer struct {
	sampleRate SampleRate
	channels   Channel
	format     PCMFormat
	played     []byte
}

func (p *fakePlayer) Close() error               { return nil }
func (p *fakePlayer) Ping(context.Context) error { return nil }

func (p *fakePlayer) PlayPCM(
	ctx context.Context,
	sampleRate SampleRate,
	channels Channel,
	format PCMFormat,
	bufferSize time.Duration,
	reader io.Reader,
) (PlayStream, error) {
	p.sampleRate, p.channels, p.format = sampleRate, channels, format
	var err error
	p.played, err = io.ReadAll(reader)
	return nopStream{}, err
}

type nopStream struct{}

func (nopStream) Drain() error { return nil }
func (nopStream) Close() error { return nil }

type fakeNativePlayer struct {
	fakePlayer
}

func (p *fakeNativePlayer) NativeFormat() (SampleRate, Channel, PCMFormat) {
	return 48000, 2, PCMFormatFloat32LE
}

func float32s(b []byte) []float32 {
	r := make([]float32, len(b)/4)
	for idx := range r {
		r[idx] = math.Float32frombits(binary.LittleEndian.Uint32(b[idx*4:]))
	}
	return r
}

func TestPlayBufferInterleaves(t *testing.T) {
	fake := &fakePlayer{}
	player := NewPlayer(fake)

	buf := &PCMBuffer{
		SampleRate: 44100,
		Channels:   [][]float32{{0.1, 0.2}, {-0.1, -0.2}},
	}
	_, err := player.PlayBuffer(context.Background(), buf)
	require.NoError(t, err)
	require.Equal(t, SampleRate(44100), fake.sampleRate)
	require.Equal(t, Channel(2), fake.channels)
	require.Equal(t, PCMFormatFloat32LE, fake.format)
	require.Equal(t, []float32{0.1, -0.1, 0.2, -0.2}, float32s(fake.played))
}

func TestPlayBufferNativeFormat(t *testing.T) {
	fake := &fakeNativePlayer{}
	player := NewPlayer(fake)

	buf := &PCMBuffer{
		SampleRate: 24000,
		Channels:   [][]float32{{0.5, 0.5}},
	}
	_, err := player.PlayBuffer(context.Background(), buf)
	require.NoError(t, err)
	require.Equal(t, SampleRate(48000), fake.sampleRate)
	require.Equal(t, Channel(2), fake.channels)
	require.Equal(t, []float32{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}, float32s(fake.played))
}

func TestPlayPCMNativeFormatConverts(t *testing.T) {
	fake := &fakeNativePlayer{}
	player := NewPlayer(fake)

	raw := make([]byte, 4)
	binary.LittleEndian.PutUint16(raw[0:], uint16(16384))
	binary.LittleEndian.PutUint16(raw[2:], uint16(0xC000))
	_, err := player.PlayPCM(context.Background(), 48000, 1, PCMFormatS16LE, BufferSize, bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, PCMFormatFloat32LE, fake.format)
	require.Equal(t, []float32{0.5, 0.5, -0.5, -0.5}, float32s(fake.played))
}

func TestPlayBufferInvalid(t *testing.T) {
	player := NewPlayer(&fakePlayer{})
	_, err := player.PlayBuffer(context.Background(), &PCMBuffer{SampleRate: 48000})
	require.Error(t, err)
}

func TestPlayerPCMDummyDrainConsumesReader(t *testing.T) {
	reader := bytes.NewReader(make([]byte, 4096))
	stream, err := NewPlayer(PlayerPCMDummy{}).PlayPCM(context.Background(), 48000, 1, PCMFormatS16LE, BufferSize, reader)
	require.NoError(t, err)
	require.NoError(t, stream.Drain())
	require.Zero(t, reader.Len())
	require.NoError(t, stream.Close())
}
