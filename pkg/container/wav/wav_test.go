package wav

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
	"github.com/xaionaro-go/voicecapture/pkg/container"
	"github.com/xaionaro-go/voicecapture/pkg/format"
)

func writeWAV(t *testing.T, sampleRate, bitDepth, channels int, data []int) []byte {
	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func TestDecodeStereo16(t *testing.T) {
	b := writeWAV(t, 44100, 16, 2, []int{0, 16384, -32768, -16384, 32767, 0})

	buf, err := Decoder{}.Decode(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, types.SampleRate(44100), buf.SampleRate)
	require.Equal(t, types.Channel(2), buf.NumChannels())
	assert.Equal(t, []float32{0, -1, 32767.0 / 32768}, buf.Channels[0])
	assert.Equal(t, []float32{0.5, -0.5, 0}, buf.Channels[1])
}

func TestDecodeInvalid(t *testing.T) {
	_, err := container.DefaultRegistry().Decode(context.Background(), format.MimeTypeWAV, []byte("RIFF...."))
	require.ErrorIs(t, err, container.ErrDecode)
}
