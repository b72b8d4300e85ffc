package oto

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/voicecapture/pkg/audio/registry"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
)

// Priority is below the backends that accept arbitrary formats.
const Priority = 50

func init() {
	registry.RegisterPlayerFactory(Priority, Factory{})
}

type Factory struct{}

func (Factory) NewPlayerPCM() (types.PlayerPCM, error) {
	return NewPlayerPCM()
}

type PlayerPCM struct {
	OtoCtx *oto.Context
}

var (
	_ types.PlayerPCM          = (*PlayerPCM)(nil)
	_ types.NativeFormatPlayer = (*PlayerPCM)(nil)
)

func NewPlayerPCM() (*PlayerPCM, error) {
	otoCtx, err := getOtoContext()
	if err != nil {
		return nil, fmt.Errorf("unable to get an oto context: %w", err)
	}

	return &PlayerPCM{
		OtoCtx: otoCtx,
	}, nil
}

func (p *PlayerPCM) Close() error {
	return nil
}

func (p *PlayerPCM) Ping(context.Context) error {
	return p.OtoCtx.Err()
}

func (*PlayerPCM) NativeFormat() (types.SampleRate, types.Channel, types.PCMFormat) {
	return SampleRate, Channels, Format
}

// PlayPCM only accepts the native format; audio.Player converts other
// formats before they get here.
func (p *PlayerPCM) PlayPCM(
	ctx context.Context,
	sampleRate types.SampleRate,
	channels types.Channel,
	format types.PCMFormat,
	bufferSize time.Duration,
	reader io.Reader,
) (types.PlayStream, error) {
	if sampleRate != SampleRate || channels != Channels || format != Format {
		return nil, fmt.Errorf("oto only plays %d Hz, %d channels, %s; received %d Hz, %d channels, %s", SampleRate, Channels, Format, sampleRate, channels, format)
	}
	if bufferSize != BufferSize {
		logger.Debugf(ctx, "oto: ignoring the requested buffer size %v, the context uses %v", bufferSize, BufferSize)
	}

	player := p.OtoCtx.NewPlayer(reader)
	player.Play()

	return newStream(player), nil
}
