package oto

import (
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
)

const drainPollInterval = 10 * time.Millisecond

type stream struct {
	player *oto.Player
}

var _ types.PlayStream = (*stream)(nil)

func newStream(player *oto.Player) *stream {
	return &stream{
		player: player,
	}
}

// Drain blocks until everything queued so far has been played.
func (s *stream) Drain() error {
	for s.player.IsPlaying() {
		time.Sleep(drainPollInterval)
	}
	return s.player.Err()
}

func (s *stream) Close() error {
	s.player.Pause()
	return s.player.Close()
}
