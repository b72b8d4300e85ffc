package webm

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/at-wat/ebml-go/webm"
)

const (
	CodecIDOpus = "A_OPUS"

	trackTypeAudio = 2
	opusTimebase   = 48000

	closeTimeout = 5 * time.Second
)

// Writer muxes Opus packets of a single audio track into a WebM stream.
type Writer struct {
	block  webm.BlockWriteCloser
	output *closeNotifier
}

// closeNotifier reports when the muxer is done with the output, the muxer
// finishes the stream asynchronously.
type closeNotifier struct {
	io.WriteCloser
	once     sync.Once
	err      error
	doneChan chan struct{}
}

func (c *closeNotifier) Close() error {
	c.once.Do(func() {
		c.err = c.WriteCloser.Close()
		close(c.doneChan)
	})
	return c.err
}

func newWriter(
	w io.WriteCloser,
	channels int,
	head opusHead,
	frameDuration time.Duration,
) (*Writer, error) {
	output := &closeNotifier{WriteCloser: w, doneChan: make(chan struct{})}
	blockWriters, err := webm.NewSimpleBlockWriter(output, []webm.TrackEntry{{
		Name:            "Audio",
		TrackNumber:     1,
		TrackUID:        1,
		CodecID:         CodecIDOpus,
		CodecPrivate:    head.Bytes(),
		TrackType:       trackTypeAudio,
		DefaultDuration: uint64(frameDuration.Nanoseconds()),
		Audio: &webm.Audio{
			SamplingFrequency: opusTimebase,
			Channels:          uint64(channels),
		},
	}})
	if err != nil {
		return nil, fmt.Errorf("unable to initialize the WebM muxer: %w", err)
	}
	if len(blockWriters) != 1 {
		return nil, fmt.Errorf("expected one track writer, got %d", len(blockWriters))
	}
	return &Writer{
		block:  blockWriters[0],
		output: output,
	}, nil
}

// WritePacket writes one Opus packet that starts at ts.
func (w *Writer) WritePacket(ts time.Duration, packet []byte) error {
	if _, err := w.block.Write(true, ts.Milliseconds(), packet); err != nil {
		return fmt.Errorf("unable to write a block at %v: %w", ts, err)
	}
	return nil
}

// Close finishes the stream and closes the underlying writer.
func (w *Writer) Close() error {
	if err := w.block.Close(); err != nil {
		return fmt.Errorf("unable to close the track: %w", err)
	}
	select {
	case <-w.output.doneChan:
		return w.output.err
	case <-time.After(closeTimeout):
		return fmt.Errorf("the muxer did not finish the stream within %v", closeTimeout)
	}
}
