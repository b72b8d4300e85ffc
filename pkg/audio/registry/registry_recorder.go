package registry

import (
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
)

type RecorderPCMFactory interface {
	NewRecorderPCM() (types.RecorderPCM, error)
}

var recorders = newPrioritized[RecorderPCMFactory]("RecorderPCM")

// RegisterRecorderFactory is expected to be called from init() of a capture
// backend package.
func RegisterRecorderFactory(
	priority int,
	recorderPCMFactory RecorderPCMFactory,
) {
	recorders.register(priority, recorderPCMFactory)
}

// RecorderFactories returns the registered factories, the highest priority first.
func RecorderFactories() []RecorderPCMFactory {
	return recorders.list()
}
