// Package capture records a single take from a PCM device into a
// container blob.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/datacounter"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
	"github.com/xaionaro-go/voicecapture/pkg/format"
)

var (
	ErrNotIdle             = errors.New("the capture session was already started")
	ErrNotRecording        = errors.New("the capture session is not recording")
	ErrDeviceUnavailable   = errors.New("the capture device is unavailable")
	ErrUnsupportedMimeType = errors.New("no media recorder for the mime type")
	ErrDeviceFailure       = errors.New("the capture device failed")
	ErrSessionActive       = errors.New("another capture session is active")
)

const devicePCMFormat = types.PCMFormatFloat32LE

// Session is a single recording: it acquires the device, feeds the PCM
// to a media recorder and assembles the emitted chunks once stopped.
type Session struct {
	ID uuid.UUID

	device    types.RecorderPCM
	recorders *Recorders
	opts      Options

	locker   sync.Mutex
	state    State
	stream   types.RecordStream
	timer    *time.Timer
	result   *RawAudioBlob
	err      error
	doneChan chan struct{}

	mediaLocker sync.Mutex
	media       MediaRecorder
	mediaClosed bool
	mediaCtx    context.Context

	counter *datacounter.WriterCounter
	chunks  *Accumulator
}

// NewSession prepares a session, nothing is acquired until Start.
// If recorders is nil the default set is used.
func NewSession(
	device types.RecorderPCM,
	recorders *Recorders,
	opts Options,
) *Session {
	if recorders == nil {
		recorders = DefaultRecorders()
	}
	s := &Session{
		ID:        uuid.New(),
		device:    device,
		recorders: recorders,
		opts:      opts.withDefaults(),
		state:     StateIdle,
		doneChan:  make(chan struct{}),
		chunks:    NewAccumulator(),
	}
	s.counter = datacounter.NewWriterCounter(sessionWriter{s})
	return s
}

func (s *Session) State() State {
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.state
}

func (s *Session) Options() Options {
	return s.opts
}

// Err returns the reason the session failed.
func (s *Session) Err() error {
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.err
}

// Done is closed when the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} {
	return s.doneChan
}

// Duration returns the amount of audio received from the device so far.
func (s *Session) Duration() time.Duration {
	return devicePCMFormat.DurationForBytes(s.opts.SampleRate, s.opts.Channels, s.counter.Count())
}

// setTerminalLocked must be called with s.locker held.
func (s *Session) setTerminalLocked(state State, result *RawAudioBlob, err error) {
	s.state = state
	s.result = result
	s.err = err
	if s.timer != nil {
		s.timer.Stop()
	}
	close(s.doneChan)
}

func (s *Session) Start(ctx context.Context) (_err error) {
	ctx = logger.CtxWithLogger(ctx, logger.FromCtx(ctx).WithField("capture_session", s.ID.String()))
	logger.Tracef(ctx, "Start")
	defer func() { logger.Tracef(ctx, "/Start: %v", _err) }()

	s.locker.Lock()
	if s.state != StateIdle {
		state := s.state
		s.locker.Unlock()
		return fmt.Errorf("%w: the state is %s", ErrNotIdle, state)
	}
	s.state = StateAcquiring
	s.locker.Unlock()

	fail := func(err error) error {
		s.locker.Lock()
		defer s.locker.Unlock()
		if !s.state.IsTerminal() {
			s.setTerminalLocked(StateFailed, nil, err)
		}
		return err
	}

	factory, ok := s.recorders.Lookup(s.opts.MimeType)
	if !ok {
		return fail(fmt.Errorf("%w: %s", ErrUnsupportedMimeType, s.opts.MimeType))
	}
	media, err := factory.NewMediaRecorder(ctx, MediaRecorderParams{
		SampleRate:         s.opts.SampleRate,
		Channels:           s.opts.Channels,
		AudioBitsPerSecond: s.opts.AudioBitsPerSecond,
		TimeSlice:          s.opts.TimeSlice,
		OnChunk:            s.chunks.Append,
	})
	if err != nil {
		return fail(fmt.Errorf("unable to initialize a %s media recorder: %w", s.opts.MimeType, err))
	}
	s.mediaLocker.Lock()
	s.media = media
	s.mediaCtx = ctx
	s.mediaLocker.Unlock()

	stream, err := s.device.RecordPCM(ctx, s.opts.SampleRate, s.opts.Channels, devicePCMFormat, s.counter)
	if err != nil {
		s.closeMedia()
		return fail(fmt.Errorf("%w: %w", ErrDeviceUnavailable, err))
	}

	s.locker.Lock()
	if s.state != StateAcquiring {
		// failed by the device while acquiring
		err := s.err
		s.locker.Unlock()
		_ = stream.Close()
		return err
	}
	s.state = StateRecording
	s.stream = stream
	s.timer = time.AfterFunc(s.opts.MaxDuration, func() {
		logger.Debugf(ctx, "reached the maximal duration %v, stopping", s.opts.MaxDuration)
		if _, err := s.Stop(ctx); err != nil && !errors.Is(err, ErrNotRecording) {
			logger.Errorf(ctx, "unable to stop the capture session: %v", err)
		}
	})
	s.locker.Unlock()

	logger.Debugf(ctx, "recording %s at %d Hz, %d channels, at most %v", media.MimeType(), s.opts.SampleRate, s.opts.Channels, s.opts.MaxDuration)
	return nil
}

// Stop finishes the recording and returns the assembled blob.
func (s *Session) Stop(ctx context.Context) (_ret *RawAudioBlob, _err error) {
	logger.Tracef(ctx, "Stop")
	defer func() { logger.Tracef(ctx, "/Stop: %v", _err) }()

	s.locker.Lock()
	if s.state != StateRecording {
		state := s.state
		s.locker.Unlock()
		return nil, fmt.Errorf("%w: the state is %s", ErrNotRecording, state)
	}
	s.state = StateStopping
	s.timer.Stop()
	stream := s.stream
	s.locker.Unlock()

	var mErr *multierror.Error
	if err := stream.Close(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to release the device: %w", err))
	}
	if err := s.closeMedia(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("unable to finalize the media recorder: %w", err))
	}

	if err := mErr.ErrorOrNil(); err != nil {
		s.locker.Lock()
		s.setTerminalLocked(StateFailed, nil, err)
		s.locker.Unlock()
		return nil, err
	}

	blob := &RawAudioBlob{
		Blob: format.Blob{
			MimeType: s.media.MimeType(),
			Data:     s.chunks.Assemble(),
		},
		Duration: s.Duration(),
	}

	s.locker.Lock()
	s.setTerminalLocked(StateCompleted, blob, nil)
	onComplete := s.opts.OnComplete
	s.locker.Unlock()

	logger.Debugf(ctx, "recorded %d bytes of %s (%v)", blob.Len(), blob.MimeType, blob.Duration)
	if onComplete != nil {
		onComplete(*blob)
	}
	return blob, nil
}

// Wait blocks until the session is completed or failed.
func (s *Session) Wait(ctx context.Context) (*RawAudioBlob, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.doneChan:
	}
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.result, s.err
}

func (s *Session) closeMedia() error {
	s.mediaLocker.Lock()
	defer s.mediaLocker.Unlock()
	if s.mediaClosed || s.media == nil {
		return nil
	}
	s.mediaClosed = true
	return s.media.Finish()
}

// deviceFailed is called when the media recorder rejects device data.
func (s *Session) deviceFailed(ctx context.Context, cause error) {
	err := fmt.Errorf("%w: %w", ErrDeviceFailure, cause)

	s.locker.Lock()
	if s.state != StateRecording && s.state != StateAcquiring {
		s.locker.Unlock()
		logger.Debugf(ctx, "ignoring a late device failure: %v", err)
		return
	}
	logger.Errorf(ctx, "%v", err)
	stream := s.stream
	s.setTerminalLocked(StateFailed, nil, err)
	s.locker.Unlock()

	if stream != nil {
		if err := stream.Close(); err != nil {
			logger.Warnf(ctx, "unable to release the device: %v", err)
		}
	}
	_ = s.closeMedia()
}

type sessionWriter struct {
	session *Session
}

func (w sessionWriter) Write(p []byte) (int, error) {
	s := w.session
	s.mediaLocker.Lock()
	if s.mediaClosed || s.media == nil {
		s.mediaLocker.Unlock()
		return 0, ErrNotRecording
	}
	n, err := s.media.Write(p)
	ctx := s.mediaCtx
	s.mediaLocker.Unlock()
	if err != nil {
		// the device goroutine must not wait for its own stream to close
		observability.Go(ctx, func(ctx context.Context) {
			s.deviceFailed(ctx, err)
		})
	}
	return n, err
}
