package pulseaudio

import (
	"fmt"

	"github.com/jfreymuth/pulse"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
)

type RecordStream struct {
	*pulse.RecordStream
}

var _ types.RecordStream = (*RecordStream)(nil)

// Close stops the capture and reports the error that interrupted it, if
// any.
func (stream *RecordStream) Close() error {
	if err := closeStream(stream.RecordStream); err != nil {
		return fmt.Errorf("an error occurred during recording: %w", err)
	}
	return nil
}
