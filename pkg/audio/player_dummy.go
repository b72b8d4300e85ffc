package audio

import (
	"context"
	"io"
	"time"

	"github.com/xaionaro-go/observability"
)

// PlayerPCMDummy is used when no audio output is available: it consumes
// the stream at full speed and throws it away.
type PlayerPCMDummy struct{}

var _ PlayerPCM = PlayerPCMDummy{}

func (PlayerPCMDummy) Close() error {
	return nil
}

func (PlayerPCMDummy) Ping(context.Context) error {
	return nil
}

func (PlayerPCMDummy) PlayPCM(
	ctx context.Context,
	sampleRate SampleRate,
	channels Channel,
	format PCMFormat,
	bufferSize time.Duration,
	reader io.Reader,
) (PlayStream, error) {
	s := &discardStream{doneChan: make(chan struct{})}
	observability.Go(ctx, func(ctx context.Context) {
		defer close(s.doneChan)
		_, s.err = io.Copy(io.Discard, reader)
	})
	return s, nil
}

type discardStream struct {
	doneChan chan struct{}
	err      error
}

func (s *discardStream) Drain() error {
	<-s.doneChan
	return s.err
}

func (s *discardStream) Close() error {
	return nil
}
