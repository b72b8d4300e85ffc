package capture

import (
	"github.com/xaionaro-go/voicecapture/pkg/container"
	"github.com/xaionaro-go/voicecapture/pkg/format"
)

// Platform describes what this machine can record.
type Platform struct {
	Recorders *Recorders
	Decoders  *container.Registry
}

func DefaultPlatform() Platform {
	return Platform{
		Recorders: DefaultRecorders(),
		Decoders:  container.DefaultRegistry(),
	}
}

// IsSupported reports whether a recording of the given mime type can be
// produced: either a media recorder records it directly, or (for MP3)
// WebM can be recorded and decoded back for transcoding.
func (p Platform) IsSupported(mimeType format.MimeType) bool {
	recorders := p.Recorders
	if recorders == nil {
		recorders = DefaultRecorders()
	}
	decoders := p.Decoders
	if decoders == nil {
		decoders = container.DefaultRegistry()
	}

	switch mimeType.Base() {
	case format.MimeTypeMP3, format.MimeTypeMPEG:
		if _, ok := recorders.Lookup(format.MimeTypeWebM); !ok {
			return false
		}
		_, ok := decoders.Lookup(format.MimeTypeWebM)
		return ok
	default:
		_, ok := recorders.Lookup(mimeType)
		return ok
	}
}
