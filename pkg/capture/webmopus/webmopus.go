// Package webmopus provides the media recorder producing WebM/Opus.
package webmopus

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/iamcalledrob/circular"
	"github.com/xaionaro-go/voicecapture/pkg/capture"
	"github.com/xaionaro-go/voicecapture/pkg/container/webm"
	"github.com/xaionaro-go/voicecapture/pkg/format"
)

const (
	Priority = 100

	// ringFrames is the capacity of the ring buffer in Opus frames.
	ringFrames = 4

	sampleSize = 4 // Float32LE
)

var ErrFinished = errors.New("the media recorder is already finished")

type Factory struct{}

var _ capture.MediaRecorderFactory = Factory{}

func (Factory) MimeType() format.MimeType {
	return format.MimeTypeWebM
}

func (Factory) NewMediaRecorder(
	ctx context.Context,
	params capture.MediaRecorderParams,
) (capture.MediaRecorder, error) {
	return New(ctx, params)
}

// Recorder cuts the incoming PCM into Opus frames, muxes them into WebM
// and emits the muxed bytes every TimeSlice of encoded audio.
type Recorder struct {
	ctx    context.Context
	params capture.MediaRecorderParams

	locker   sync.Mutex
	ring     *circular.Buffer
	opus     *webm.OpusWriter
	out      *chunkWriter
	frame    []byte
	have     int
	samples  []float32
	lastEmit time.Duration
	finished bool
}

var _ capture.MediaRecorder = (*Recorder)(nil)

// Bitrate returns the Opus bitrate used for the requested ceiling.
func Bitrate(audioBitsPerSecond int) int {
	if audioBitsPerSecond <= 0 || audioBitsPerSecond > webm.MaxOpusBitrate {
		return webm.MaxOpusBitrate
	}
	return audioBitsPerSecond
}

func New(
	ctx context.Context,
	params capture.MediaRecorderParams,
) (*Recorder, error) {
	if params.OnChunk == nil {
		return nil, fmt.Errorf("OnChunk is not set")
	}
	out := &chunkWriter{}
	bitrate := Bitrate(params.AudioBitsPerSecond)
	ow, err := webm.NewOpusWriter(out, params.SampleRate, params.Channels, bitrate)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize the WebM/Opus writer: %w", err)
	}
	logger.Debugf(ctx, "WebM/Opus recorder: %d Hz, %d channels, %d bps", params.SampleRate, params.Channels, bitrate)

	frameBytes := ow.FrameSamples() * int(params.Channels) * sampleSize
	return &Recorder{
		ctx:     ctx,
		params:  params,
		ring:    circular.NewBuffer(frameBytes * ringFrames),
		opus:    ow,
		out:     out,
		frame:   make([]byte, frameBytes),
		samples: make([]float32, frameBytes/sampleSize),
	}, nil
}

func (r *Recorder) MimeType() format.MimeType {
	return format.MimeTypeWebM
}

// Write accepts interleaved Float32LE PCM of any length.
func (r *Recorder) Write(p []byte) (int, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	if r.finished {
		return 0, ErrFinished
	}

	written := 0
	for written < len(p) {
		piece := p[written:]
		if len(piece) > len(r.frame) {
			piece = piece[:len(r.frame)]
		}
		n, err := r.ring.Write(piece)
		if err != nil {
			return written, fmt.Errorf("unable to write to the circular buffer: %w", err)
		}
		written += n
		if err := r.drain(); err != nil {
			return written, err
		}
	}
	return written, nil
}

// drain encodes every complete frame available in the ring.
func (r *Recorder) drain() error {
	for {
		n, err := r.ring.Read(r.frame[r.have:])
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("unable to read from the circular buffer: %w", err)
		}
		r.have += n
		if r.have < len(r.frame) {
			return nil
		}
		if err := r.encodeFrame(); err != nil {
			return err
		}
	}
}

func (r *Recorder) encodeFrame() error {
	for idx := range r.samples {
		r.samples[idx] = math.Float32frombits(binary.LittleEndian.Uint32(r.frame[idx*sampleSize:]))
	}
	r.have = 0
	if err := r.opus.WriteFrame(r.samples); err != nil {
		return fmt.Errorf("unable to encode a frame: %w", err)
	}
	if r.opus.Duration()-r.lastEmit >= r.params.TimeSlice {
		r.lastEmit = r.opus.Duration()
		return r.emit()
	}
	return nil
}

func (r *Recorder) emit() error {
	chunk := r.out.Take()
	if len(chunk) == 0 {
		return nil
	}
	logger.Tracef(r.ctx, "emitting a chunk of %d bytes at %v", len(chunk), r.opus.Duration())
	return r.params.OnChunk(chunk)
}

// Finish pads the last partial frame with silence, closes the stream
// and emits the remaining bytes.
func (r *Recorder) Finish() (_err error) {
	logger.Tracef(r.ctx, "Finish")
	defer func() { logger.Tracef(r.ctx, "/Finish: %v", _err) }()

	r.locker.Lock()
	defer r.locker.Unlock()
	if r.finished {
		return ErrFinished
	}
	r.finished = true

	if err := r.drain(); err != nil {
		return err
	}
	if r.have > 0 {
		clear(r.frame[r.have:])
		r.have = len(r.frame)
		if err := r.encodeFrame(); err != nil {
			return err
		}
	}
	if err := r.opus.Close(); err != nil {
		return fmt.Errorf("unable to finalize the stream: %w", err)
	}
	return r.emit()
}

// chunkWriter buffers the muxer output between emissions; the muxer
// writes from its own goroutine.
type chunkWriter struct {
	locker  sync.Mutex
	pending []byte
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	w.locker.Lock()
	defer w.locker.Unlock()
	w.pending = append(w.pending, p...)
	return len(p), nil
}

func (w *chunkWriter) Close() error {
	return nil
}

func (w *chunkWriter) Take() []byte {
	w.locker.Lock()
	defer w.locker.Unlock()
	chunk := w.pending
	w.pending = nil
	return chunk
}

func init() {
	capture.RegisterMediaRecorderFactory(Priority, Factory{})
}
