package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/voicecapture/pkg/audio/planar"
	"github.com/xaionaro-go/voicecapture/pkg/audio/registry"
	"github.com/xaionaro-go/voicecapture/pkg/audio/resampler"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
)

const BufferSize = 100 * time.Millisecond

type Player struct {
	PlayerPCM
}

var _ PlayerPCM = (*Player)(nil)

func NewPlayer(playerPCM PlayerPCM) *Player {
	return &Player{
		PlayerPCM: playerPCM,
	}
}

var playerFinder = &backendFinder[registry.PlayerPCMFactory, PlayerPCM]{
	kind:      "PCM player",
	factories: registry.PlayerFactories,
	open: func(factory registry.PlayerPCMFactory) (PlayerPCM, error) {
		return factory.NewPlayerPCM()
	},
}

// NewPlayerAuto never fails: without a working backend the audio is
// discarded.
func NewPlayerAuto(
	ctx context.Context,
) *Player {
	player, err := FindPlayer(ctx)
	if err != nil {
		logger.Infof(ctx, "was unable to initialize any PCM player: %v", err)
		return NewPlayer(PlayerPCMDummy{})
	}
	return player
}

func FindPlayer(
	ctx context.Context,
) (*Player, error) {
	player, err := playerFinder.find(ctx)
	if err != nil {
		return nil, err
	}
	return NewPlayer(player), nil
}

// PlayBuffer plays a decoded recording. Players with a fixed native
// format get the buffer resampled to it first.
func (a *Player) PlayBuffer(
	ctx context.Context,
	buf *PCMBuffer,
) (PlayStream, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid buffer: %w", err)
	}
	if native, ok := a.PlayerPCM.(types.NativeFormatPlayer); ok {
		sampleRate, channels, _ := native.NativeFormat()
		var err error
		buf, err = resampler.Resample(buf, sampleRate, channels)
		if err != nil {
			return nil, fmt.Errorf("unable to convert the buffer to %d Hz, %d channels: %w", sampleRate, channels, err)
		}
	}

	interleaved, err := planar.Unplanarize(make([]float32, 0, buf.Len()*len(buf.Channels)), buf.Channels...)
	if err != nil {
		return nil, fmt.Errorf("unable to interleave the channels: %w", err)
	}
	raw := make([]byte, len(interleaved)*4)
	for idx, v := range interleaved {
		binary.LittleEndian.PutUint32(raw[idx*4:], math.Float32bits(v))
	}

	logger.Debugf(ctx, "PlayBuffer: %d samples at %d Hz, %d channels (%v)", buf.Len(), buf.SampleRate, buf.NumChannels(), buf.Duration())
	return a.PlayPCM(
		ctx,
		buf.SampleRate,
		buf.NumChannels(),
		PCMFormatFloat32LE,
		BufferSize,
		bytes.NewReader(raw),
	)
}

// PlayPCM plays an interleaved PCM stream. Players with a fixed native
// format get the stream converted on the fly.
func (a *Player) PlayPCM(
	ctx context.Context,
	sampleRate SampleRate,
	channels Channel,
	pcmFormat PCMFormat,
	bufferSize time.Duration,
	pcmReader io.Reader,
) (PlayStream, error) {
	if native, ok := a.PlayerPCM.(types.NativeFormatPlayer); ok {
		outRate, outChannels, outFormat := native.NativeFormat()
		if outRate != sampleRate || outChannels != channels || outFormat != pcmFormat {
			logger.Debugf(ctx, "converting %d Hz/%d/%s to the native %d Hz/%d/%s", sampleRate, channels, pcmFormat, outRate, outChannels, outFormat)
			r, err := resampler.NewResampler(
				resampler.Format{Channels: channels, SampleRate: sampleRate, PCMFormat: pcmFormat},
				pcmReader,
				resampler.Format{Channels: outChannels, SampleRate: outRate, PCMFormat: outFormat},
			)
			if err != nil {
				return nil, fmt.Errorf("unable to convert to the native format of the player: %w", err)
			}
			sampleRate, channels, pcmFormat, pcmReader = outRate, outChannels, outFormat, r
		}
	}
	return a.PlayerPCM.PlayPCM(
		ctx,
		sampleRate,
		channels,
		pcmFormat,
		bufferSize,
		pcmReader,
	)
}
