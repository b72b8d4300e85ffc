package webm

import (
	"github.com/xaionaro-go/voicecapture/pkg/container"
	"github.com/xaionaro-go/voicecapture/pkg/format"
)

func init() {
	container.Register(format.MimeTypeWebM, Decoder{})
}
