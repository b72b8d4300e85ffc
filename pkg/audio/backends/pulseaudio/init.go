package pulseaudio

import (
	"github.com/xaionaro-go/voicecapture/pkg/audio/registry"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
)

const (
	Priority = 100

	applicationName = "voicecapture"
)

func init() {
	registry.RegisterPlayerFactory(Priority, Factory{})
	registry.RegisterRecorderFactory(Priority, Factory{})
}

// Factory opens players and recorders talking to the Pulse server.
type Factory struct{}

func (Factory) NewPlayerPCM() (types.PlayerPCM, error) {
	return NewPlayerPCM()
}

func (Factory) NewRecorderPCM() (types.RecorderPCM, error) {
	return NewRecorderPCM()
}
