package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
)

// Capturer owns the capture device and allows only one session at a time.
type Capturer struct {
	Device    types.RecorderPCM
	Recorders *Recorders

	locker  sync.Mutex
	current *Session
}

func NewCapturer(device types.RecorderPCM, recorders *Recorders) *Capturer {
	return &Capturer{
		Device:    device,
		Recorders: recorders,
	}
}

// Begin starts a new session. It fails with ErrSessionActive if the
// previous session has not completed or failed yet.
//
// A session that failed to start is still returned.
func (c *Capturer) Begin(ctx context.Context, opts Options) (*Session, error) {
	c.locker.Lock()
	defer c.locker.Unlock()

	if c.current != nil {
		if state := c.current.State(); !state.IsTerminal() {
			return nil, fmt.Errorf("%w: session %s is %s", ErrSessionActive, c.current.ID, state)
		}
	}

	s := NewSession(c.Device, c.Recorders, opts)
	c.current = s
	return s, s.Start(ctx)
}

// Current returns the latest session, if any.
func (c *Capturer) Current() *Session {
	c.locker.Lock()
	defer c.locker.Unlock()
	return c.current
}
