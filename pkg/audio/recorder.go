package audio

import (
	"context"
	"io"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/voicecapture/pkg/audio/registry"
)

// Recorder is a capture device picked among the registered backends.
type Recorder struct {
	RecorderPCM
}

var _ RecorderPCM = (*Recorder)(nil)

func NewRecorder(recorderPCM RecorderPCM) *Recorder {
	return &Recorder{
		RecorderPCM: recorderPCM,
	}
}

var recorderFinder = &backendFinder[registry.RecorderPCMFactory, RecorderPCM]{
	kind:      "PCM recorder",
	factories: registry.RecorderFactories,
	open: func(factory registry.RecorderPCMFactory) (RecorderPCM, error) {
		return factory.NewRecorderPCM()
	},
}

// FindRecorder returns the first backend able to capture. There is no
// dummy fallback: a recording without a device is an error.
func FindRecorder(
	ctx context.Context,
) (*Recorder, error) {
	recorder, err := recorderFinder.find(ctx)
	if err != nil {
		return nil, err
	}
	return NewRecorder(recorder), nil
}

func (a *Recorder) RecordPCM(
	ctx context.Context,
	sampleRate SampleRate,
	channels Channel,
	pcmFormat PCMFormat,
	pcmWriter io.Writer,
) (RecordStream, error) {
	logger.Debugf(ctx, "RecordPCM(%d Hz, %d channels, %s) using %T", sampleRate, channels, pcmFormat, a.RecorderPCM)
	return a.RecorderPCM.RecordPCM(
		ctx,
		sampleRate,
		channels,
		pcmFormat,
		pcmWriter,
	)
}
