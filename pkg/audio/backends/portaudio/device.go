package portaudio

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/gordonklaus/portaudio"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
)

// library holds one reference to the initialized PortAudio library; every
// Initialize has to be paired with a Terminate.
type library struct{}

func openLibrary() (library, error) {
	if err := portaudio.Initialize(); err != nil {
		return library{}, fmt.Errorf("unable to initialize portaudio: %w", err)
	}
	return library{}, nil
}

func (library) Close() error {
	return portaudio.Terminate()
}

func pingDevice(
	ctx context.Context,
	kind string,
	getDefault func() (*portaudio.DeviceInfo, error),
) error {
	info, err := getDefault()
	if err != nil {
		return fmt.Errorf("no default %s device: %w", kind, err)
	}
	logger.Debugf(ctx, "default %s device: '%s' (%s)", kind, info.Name, info.HostApi.Name)
	return nil
}

type PlayerPCM struct {
	library
}

var _ types.PlayerPCM = (*PlayerPCM)(nil)

func NewPlayerPCM() (*PlayerPCM, error) {
	lib, err := openLibrary()
	if err != nil {
		return nil, err
	}
	return &PlayerPCM{library: lib}, nil
}

func (*PlayerPCM) Ping(ctx context.Context) error {
	return pingDevice(ctx, "output", portaudio.DefaultOutputDevice)
}

func (*PlayerPCM) PlayPCM(
	ctx context.Context,
	sampleRate types.SampleRate,
	channels types.Channel,
	format types.PCMFormat,
	bufferSize time.Duration,
	rawReader io.Reader,
) (types.PlayStream, error) {
	s, err := newPlayPCMStream(ctx, sampleRate, channels, format, bufferSize, rawReader)
	if err != nil {
		return nil, err
	}
	if err := s.start(ctx); err != nil {
		_ = s.stream.Close()
		return nil, fmt.Errorf("unable to start the playback: %w", err)
	}
	return s, nil
}

type RecorderPCM struct {
	library
}

var _ types.RecorderPCM = (*RecorderPCM)(nil)

func NewRecorderPCM() (*RecorderPCM, error) {
	lib, err := openLibrary()
	if err != nil {
		return nil, err
	}
	return &RecorderPCM{library: lib}, nil
}

func (*RecorderPCM) Ping(ctx context.Context) error {
	return pingDevice(ctx, "input", portaudio.DefaultInputDevice)
}

func (*RecorderPCM) RecordPCM(
	ctx context.Context,
	sampleRate types.SampleRate,
	channels types.Channel,
	format types.PCMFormat,
	writer io.Writer,
) (types.RecordStream, error) {
	s, err := newRecordPCMStream(ctx, sampleRate, channels, format, writer)
	if err != nil {
		return nil, err
	}
	if err := s.start(ctx); err != nil {
		_ = s.stream.Close()
		return nil, fmt.Errorf("unable to start the capture: %w", err)
	}
	return s, nil
}
