package registry

import (
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
)

type PlayerPCMFactory interface {
	NewPlayerPCM() (types.PlayerPCM, error)
}

var players = newPrioritized[PlayerPCMFactory]("PlayerPCM")

func RegisterPlayerFactory(
	priority int,
	playerPCMFactory PlayerPCMFactory,
) {
	players.register(priority, playerPCMFactory)
}

func PlayerFactories() []PlayerPCMFactory {
	return players.list()
}
