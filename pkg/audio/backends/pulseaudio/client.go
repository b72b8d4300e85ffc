package pulseaudio

import (
	"fmt"

	"github.com/jfreymuth/pulse"
)

// client is a connection to the Pulse server; the streams opened through
// it must be closed before it.
type client struct {
	PulseClient *pulse.Client
}

func dial() (client, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName(applicationName))
	if err != nil {
		return client{}, fmt.Errorf("unable to open a client to Pulse: %w", err)
	}
	return client{PulseClient: c}, nil
}

func (c client) Close() error {
	c.PulseClient.Close()
	return nil
}

type pulseStream interface {
	Stop()
	Close()
	Error() error
}

// closeStream stops and closes the stream; pulse panics on streams that
// lost their connection.
func closeStream(stream pulseStream) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("got a panic: %v", r)
		}
	}()
	stream.Stop()
	stream.Close()
	return stream.Error()
}
