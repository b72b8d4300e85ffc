package mp3encoder

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/hajimehoshi/go-mp3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeBlocks(t *testing.T, channels, sampleRate, blocks int, sample func(idx int) int16) []byte {
	enc, err := New(channels, sampleRate, DefaultBitrate)
	require.NoError(t, err)

	var result []byte
	for b := 0; b < blocks; b++ {
		left := make([]int16, BlockSamples)
		right := make([]int16, BlockSamples)
		for idx := range left {
			left[idx] = sample(b*BlockSamples + idx)
			right[idx] = -left[idx]
		}
		out, err := enc.EncodeBlock(left, right)
		require.NoError(t, err)
		result = append(result, out...)
	}
	out, err := enc.Flush()
	require.NoError(t, err)
	return append(result, out...)
}

func silence(int) int16 { return 0 }

func TestEncodeSilenceIsDecodable(t *testing.T) {
	out := encodeBlocks(t, 1, 44100, 10, silence)
	require.NotEmpty(t, out)

	dec, err := mp3.NewDecoder(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 44100, dec.SampleRate())

	pcm, err := io.ReadAll(dec)
	require.NoError(t, err)
	assert.NotEmpty(t, pcm)
}

func TestEncodeLengthDependsOnBlockCountOnly(t *testing.T) {
	tone := func(idx int) int16 {
		return int16(10000 * math.Sin(2*math.Pi*440*float64(idx)/44100))
	}

	silent4 := encodeBlocks(t, 2, 44100, 4, silence)
	tone4 := encodeBlocks(t, 2, 44100, 4, tone)
	silent8 := encodeBlocks(t, 2, 44100, 8, silence)

	assert.Equal(t, len(silent4), len(tone4))
	assert.Greater(t, len(silent8), len(silent4))
}

func TestEncodePartialBlockIsPaddedOnFlush(t *testing.T) {
	enc, err := New(1, 48000, DefaultBitrate)
	require.NoError(t, err)

	out, err := enc.EncodeBlock(make([]int16, 100), nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = enc.Flush()
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestFlushOnce(t *testing.T) {
	enc, err := New(2, 32000, DefaultBitrate)
	require.NoError(t, err)

	_, err = enc.Flush()
	require.NoError(t, err)

	_, err = enc.Flush()
	require.ErrorIs(t, err, ErrEncoderFinished)
	_, err = enc.EncodeBlock(make([]int16, 10), make([]int16, 10))
	require.ErrorIs(t, err, ErrEncoderFinished)
}

func TestNewValidation(t *testing.T) {
	_, err := New(1, 44100, 192)
	require.ErrorIs(t, err, ErrUnsupportedBitrate)

	for _, rate := range []int{44000, 12000, 11025, 8000} {
		_, err = New(1, rate, DefaultBitrate)
		require.ErrorIs(t, err, ErrUnsupportedSampleRate, "%d Hz", rate)
	}

	_, err = New(3, 44100, DefaultBitrate)
	require.ErrorIs(t, err, ErrUnsupportedChannelCount)
}

func TestEncodeBlockValidation(t *testing.T) {
	enc, err := New(2, 44100, DefaultBitrate)
	require.NoError(t, err)

	_, err = enc.EncodeBlock(make([]int16, 10), make([]int16, 9))
	require.Error(t, err)

	_, err = enc.EncodeBlock(make([]int16, BlockSamples+1), make([]int16, BlockSamples+1))
	require.Error(t, err)
}

func TestEncodeEveryRateIsDecodable(t *testing.T) {
	for rate := range frameSamples {
		t.Run(fmt.Sprint(rate), func(t *testing.T) {
			tone := func(idx int) int16 {
				return int16(10000 * math.Sin(2*math.Pi*440*float64(idx)/float64(rate)))
			}
			// one second, rounded up to whole blocks
			blocks := (rate + BlockSamples - 1) / BlockSamples
			out := encodeBlocks(t, 1, rate, blocks, tone)

			dec, err := mp3.NewDecoder(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, rate, dec.SampleRate())

			pcm, err := io.ReadAll(dec)
			require.NoError(t, err)
			// go-mp3 always decodes to 16-bit stereo
			decoded := len(pcm) / 4
			assert.InDelta(t, blocks*BlockSamples, decoded, float64(3*BlockSamples), spew.Sdump(len(out)))
		})
	}
}
