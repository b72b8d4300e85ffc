package portaudio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/gordonklaus/portaudio"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
)

type PlayPCMStream struct {
	*pump
}

var _ types.PlayStream = (*PlayPCMStream)(nil)

func newPlayPCMStream(
	ctx context.Context,
	sampleRate types.SampleRate,
	channels types.Channel,
	format types.PCMFormat,
	bufferSize time.Duration,
	reader io.Reader,
) (*PlayPCMStream, error) {
	buf, err := newSampleBufferForFormat(format, sampleRate, channels, bufferSize)
	if err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "newPlayPCMStream: %s, %d Hz, %d channels, %s (%d frames, %d bytes)", format, sampleRate, channels, bufferSize, buf.Frames, len(buf.Bytes))
	stream, err := portaudio.OpenDefaultStream(0, int(channels), float64(sampleRate), buf.Frames, buf.Typed)
	if err != nil {
		return nil, fmt.Errorf("unable to open the default output stream: %w", err)
	}

	p := newPump(stream, make([]byte, len(buf.Bytes)), buf.Bytes)
	p.produce = func(front []byte) (bool, error) {
		n, err := io.ReadFull(reader, front)
		switch {
		case err == nil:
			return false, nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			clear(front[n:])
			return true, nil
		case errors.Is(err, io.EOF):
			return false, io.EOF
		default:
			return false, fmt.Errorf("unable to read: %w", err)
		}
	}
	p.consume = func([]byte) error {
		if err := stream.Write(); err != nil {
			return fmt.Errorf("unable to write: %w", err)
		}
		return nil
	}
	// Stop, unlike Abort, lets the device play out what is queued.
	p.finish = stream.Stop
	return &PlayPCMStream{pump: p}, nil
}

// Drain blocks until the reader is exhausted and everything is written
// to the device.
func (s *PlayPCMStream) Drain() error {
	return s.wait()
}
