package portaudio

import (
	"github.com/xaionaro-go/voicecapture/pkg/audio/registry"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
)

const (
	Priority = 60
)

func init() {
	registry.RegisterPlayerFactory(Priority, Factory{})
	registry.RegisterRecorderFactory(Priority, Factory{})
}

type Factory struct{}

func (Factory) NewPlayerPCM() (types.PlayerPCM, error) {
	return NewPlayerPCM()
}

func (Factory) NewRecorderPCM() (types.RecorderPCM, error) {
	return NewRecorderPCM()
}
