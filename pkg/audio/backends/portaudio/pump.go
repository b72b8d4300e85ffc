package portaudio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/gordonklaus/portaudio"
	"github.com/xaionaro-go/observability"
)

// pump moves fixed-size buffers between PortAudio and a Go reader/writer
// using two goroutines: the producer fills front while the consumer works
// on a copy of the previous front in back.
type pump struct {
	stream *portaudio.Stream
	front  []byte
	back   []byte

	// produce fills buf; io.EOF means nothing was produced and the pump
	// should finish, last means buf is the final one.
	produce func(buf []byte) (last bool, err error)
	consume func(buf []byte) error
	// finish is called by the consumer once the producer is done.
	finish func() error

	readyChan  chan struct{}
	takenChan  chan struct{}
	cancelFunc context.CancelFunc
	waitGroup  sync.WaitGroup
	abortOnce  sync.Once
	closeOnce  sync.Once

	errLocker sync.Mutex
	err       error
}

func newPump(stream *portaudio.Stream, front, back []byte) *pump {
	return &pump{
		stream:    stream,
		front:     front,
		back:      back,
		readyChan: make(chan struct{}),
		takenChan: make(chan struct{}),
	}
}

func (p *pump) start(ctx context.Context) error {
	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("unable to start the stream: %w", err)
	}
	ctx, p.cancelFunc = context.WithCancel(ctx)

	p.waitGroup.Add(2)
	observability.Go(ctx, func(ctx context.Context) {
		defer p.waitGroup.Done()
		p.setErr(p.producerLoop(ctx))
	})
	observability.Go(ctx, func(ctx context.Context) {
		defer p.waitGroup.Done()
		defer p.cancelFunc()
		p.setErr(p.consumerLoop(ctx))
	})
	observability.Go(ctx, func(ctx context.Context) {
		<-ctx.Done()
		p.abort()
	})
	return nil
}

func (p *pump) setErr(err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	p.errLocker.Lock()
	defer p.errLocker.Unlock()
	if p.err == nil {
		p.err = err
	}
}

func (p *pump) producerLoop(ctx context.Context) (_ret error) {
	logger.Debugf(ctx, "producerLoop")
	defer func() { logger.Debugf(ctx, "/producerLoop: %v", _ret) }()
	defer close(p.readyChan)

	for {
		last, err := p.produce(p.front)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
		select {
		case p.readyChan <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
		if _, ok := <-p.takenChan; !ok || last {
			return nil
		}
	}
}

func (p *pump) consumerLoop(ctx context.Context) (_ret error) {
	logger.Debugf(ctx, "consumerLoop")
	defer func() { logger.Debugf(ctx, "/consumerLoop: %v", _ret) }()
	defer close(p.takenChan)

	for {
		if _, ok := <-p.readyChan; !ok {
			if p.finish == nil {
				return nil
			}
			return p.finish()
		}
		copy(p.back, p.front)
		select {
		case p.takenChan <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
		if err := p.consume(p.back); err != nil {
			return err
		}
	}
}

func (p *pump) abort() {
	p.abortOnce.Do(func() {
		_ = p.stream.Abort()
	})
}

// wait blocks until both loops are done and returns the first failure.
func (p *pump) wait() error {
	p.waitGroup.Wait()
	p.errLocker.Lock()
	defer p.errLocker.Unlock()
	return p.err
}

func (p *pump) Close() error {
	var err error
	p.closeOnce.Do(func() {
		if p.cancelFunc != nil {
			p.cancelFunc()
		}
		p.abort()
		p.waitGroup.Wait()
		err = p.stream.Close()
	})
	return err
}
