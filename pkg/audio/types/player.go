package types

import (
	"context"
	"io"
	"time"
)

type PlayerPCM interface {
	io.Closer
	Ping(context.Context) error
	PlayPCM(
		ctx context.Context,
		sampleRate SampleRate,
		channels Channel,
		format PCMFormat,
		bufferSize time.Duration,
		reader io.Reader,
	) (PlayStream, error)
}

// PlayStream is a playback in progress.
type PlayStream interface {
	io.Closer

	// Drain blocks until everything read from the source is played.
	Drain() error
}

// NativeFormatPlayer is implemented by players that can only be opened
// once with a fixed output format; everything else has to be converted
// before it is handed over.
type NativeFormatPlayer interface {
	NativeFormat() (SampleRate, Channel, PCMFormat)
}
