package capture

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
	"github.com/xaionaro-go/voicecapture/pkg/format"
)

var errFakeWrite = errors.New("fake write failure")

// fakeDevice writes 10ms of silence per millisecond until the stream is
// closed or maxWrites buffers are written.
type fakeDevice struct {
	recordErr error
	maxWrites int

	locker  sync.Mutex
	streams []*fakeStream
}

var _ types.RecorderPCM = (*fakeDevice)(nil)

func (d *fakeDevice) Close() error                   { return nil }
func (d *fakeDevice) Ping(ctx context.Context) error { return nil }

func (d *fakeDevice) RecordPCM(
	ctx context.Context,
	sampleRate types.SampleRate,
	channels types.Channel,
	pcmFormat types.PCMFormat,
	writer io.Writer,
) (types.RecordStream, error) {
	if d.recordErr != nil {
		return nil, d.recordErr
	}
	st := &fakeStream{
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
		finishedChan: make(chan struct{}),
	}
	d.locker.Lock()
	d.streams = append(d.streams, st)
	d.locker.Unlock()

	buf := make([]byte, pcmFormat.BytesForDuration(sampleRate, channels, 10*time.Millisecond))
	go func() {
		defer close(st.doneChan)
		defer st.finishOnce.Do(func() { close(st.finishedChan) })
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for count := 0; d.maxWrites <= 0 || count < d.maxWrites; count++ {
			select {
			case <-st.stopChan:
				return
			case <-ticker.C:
			}
			if _, err := writer.Write(buf); err != nil {
				return
			}
		}
	}()
	return st, nil
}

func (d *fakeDevice) lastStream() *fakeStream {
	d.locker.Lock()
	defer d.locker.Unlock()
	if len(d.streams) == 0 {
		return nil
	}
	return d.streams[len(d.streams)-1]
}

// pacedDevice delivers PCM at the wall-clock rate, in 10ms steps, for at
// most runFor.
type pacedDevice struct {
	runFor time.Duration

	locker sync.Mutex
	stream *fakeStream
}

var _ types.RecorderPCM = (*pacedDevice)(nil)

func (d *pacedDevice) Close() error                   { return nil }
func (d *pacedDevice) Ping(ctx context.Context) error { return nil }

func (d *pacedDevice) RecordPCM(
	ctx context.Context,
	sampleRate types.SampleRate,
	channels types.Channel,
	pcmFormat types.PCMFormat,
	writer io.Writer,
) (types.RecordStream, error) {
	st := &fakeStream{
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
		finishedChan: make(chan struct{}),
	}
	d.locker.Lock()
	d.stream = st
	d.locker.Unlock()

	frameSize := uint64(channels) * uint64(pcmFormat.Size())
	go func() {
		defer close(st.doneChan)
		defer st.finishOnce.Do(func() { close(st.finishedChan) })
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		startedAt := time.Now()
		var written uint64
		for {
			select {
			case <-st.stopChan:
				return
			case <-ticker.C:
			}
			elapsed := time.Since(startedAt)
			if elapsed > d.runFor {
				elapsed = d.runFor
			}
			target := pcmFormat.BytesForDuration(sampleRate, channels, elapsed)
			target -= target % frameSize
			if target > written {
				if _, err := writer.Write(make([]byte, target-written)); err != nil {
					return
				}
				written = target
			}
			if elapsed >= d.runFor {
				return
			}
		}
	}()
	return st, nil
}

func (d *pacedDevice) lastStream() *fakeStream {
	d.locker.Lock()
	defer d.locker.Unlock()
	return d.stream
}

type fakeStream struct {
	stopChan     chan struct{}
	doneChan     chan struct{}
	finishedChan chan struct{}
	finishOnce   sync.Once
	closeOnce    sync.Once
	closed       atomic.Bool
}

func (st *fakeStream) Close() error {
	st.closeOnce.Do(func() {
		close(st.stopChan)
		st.closed.Store(true)
	})
	<-st.doneChan
	return nil
}

// fakeMediaRecorder emits "x" per write and "end" on Finish.
type fakeMediaRecorder struct {
	params    MediaRecorderParams
	failWrite bool

	locker   sync.Mutex
	finished bool
}

func (r *fakeMediaRecorder) Write(p []byte) (int, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	if r.failWrite {
		return 0, errFakeWrite
	}
	if r.finished {
		return 0, errors.New("finished")
	}
	if err := r.params.OnChunk([]byte("x")); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (r *fakeMediaRecorder) Finish() error {
	r.locker.Lock()
	defer r.locker.Unlock()
	r.finished = true
	return r.params.OnChunk([]byte("end"))
}

func (r *fakeMediaRecorder) MimeType() format.MimeType {
	return format.MimeTypeWebM
}

func (r *fakeMediaRecorder) isFinished() bool {
	r.locker.Lock()
	defer r.locker.Unlock()
	return r.finished
}

type fakeFactory struct {
	newErr    error
	failWrite bool

	locker sync.Mutex
	last   *fakeMediaRecorder
}

func (f *fakeFactory) MimeType() format.MimeType {
	return format.MimeTypeWebM
}

func (f *fakeFactory) NewMediaRecorder(
	ctx context.Context,
	params MediaRecorderParams,
) (MediaRecorder, error) {
	if f.newErr != nil {
		return nil, f.newErr
	}
	r := &fakeMediaRecorder{params: params, failWrite: f.failWrite}
	f.locker.Lock()
	f.last = r
	f.locker.Unlock()
	return r, nil
}

func (f *fakeFactory) lastRecorder() *fakeMediaRecorder {
	f.locker.Lock()
	defer f.locker.Unlock()
	return f.last
}

func newFakeRecorders(factory *fakeFactory) *Recorders {
	recorders := NewRecorders()
	recorders.Register(1, factory)
	return recorders
}
