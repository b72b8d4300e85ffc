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

const (
	RecordBufferSize = time.Millisecond * 100
)

// RecordPCMStream delivers captured audio in RecordBufferSize pieces; Close
// returns only after the last write to the writer.
type RecordPCMStream struct {
	*pump
}

var _ types.RecordStream = (*RecordPCMStream)(nil)

func newRecordPCMStream(
	ctx context.Context,
	sampleRate types.SampleRate,
	channels types.Channel,
	format types.PCMFormat,
	writer io.Writer,
) (*RecordPCMStream, error) {
	buf, err := newSampleBufferForFormat(format, sampleRate, channels, RecordBufferSize)
	if err != nil {
		return nil, err
	}
	logger.Debugf(ctx, "newRecordPCMStream: %s, %d Hz, %d channels, %s (%d frames, %d bytes)", format, sampleRate, channels, RecordBufferSize, buf.Frames, len(buf.Bytes))
	stream, err := portaudio.OpenDefaultStream(int(channels), 0, float64(sampleRate), buf.Frames, buf.Typed)
	if err != nil {
		return nil, fmt.Errorf("unable to open the default input stream: %w", err)
	}

	p := newPump(stream, buf.Bytes, make([]byte, len(buf.Bytes)))
	p.produce = func([]byte) (bool, error) {
		if err := stream.Read(); err != nil {
			return false, fmt.Errorf("unable to read: %w", err)
		}
		return false, nil
	}
	p.consume = func(back []byte) error {
		n, err := writer.Write(back)
		if err != nil {
			return fmt.Errorf("unable to write: %w", err)
		}
		if n != len(back) {
			return fmt.Errorf("invalid write length: %d != %d", n, len(back))
		}
		return nil
	}
	return &RecordPCMStream{pump: p}, nil
}
