package types

import (
	"context"
	"io"
)

// RecorderPCM is a capture device: once RecordPCM succeeds the device is
// acquired and keeps writing interleaved PCM into the writer until the
// returned stream is closed.
type RecorderPCM interface {
	io.Closer
	Ping(context.Context) error
	RecordPCM(
		ctx context.Context,
		sampleRate SampleRate,
		channels Channel,
		format PCMFormat,
		writer io.Writer,
	) (RecordStream, error)
}

// RecordStream is the handle of an acquired capture device; Close releases
// the device.
type RecordStream interface {
	io.Closer
}
