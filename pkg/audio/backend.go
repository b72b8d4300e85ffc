package audio

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
)

type pinger interface {
	io.Closer
	Ping(context.Context) error
}

// backendFinder probes registered factories in priority order and returns
// the first backend that answers a ping. The factory that worked last time
// is tried first.
type backendFinder[F comparable, B pinger] struct {
	kind      string
	factories func() []F
	open      func(F) (B, error)

	locker         sync.Mutex
	lastSuccessful F
}

func (f *backendFinder[F, B]) getLastSuccessful() F {
	f.locker.Lock()
	defer f.locker.Unlock()
	return f.lastSuccessful
}

func (f *backendFinder[F, B]) setLastSuccessful(factory F) {
	f.locker.Lock()
	defer f.locker.Unlock()
	f.lastSuccessful = factory
}

func (f *backendFinder[F, B]) try(ctx context.Context, factory F) (B, error) {
	var zero B
	backend, err := f.open(factory)
	logger.Debugf(ctx, "initializing %s %T result is %v", f.kind, factory, err)
	if err != nil {
		return zero, fmt.Errorf("unable to initialize %T: %w", factory, err)
	}
	err = backend.Ping(ctx)
	logger.Debugf(ctx, "pinging %s %T result is %v", f.kind, backend, err)
	if err != nil {
		_ = backend.Close()
		return zero, fmt.Errorf("unable to ping %T: %w", backend, err)
	}
	return backend, nil
}

func (f *backendFinder[F, B]) find(ctx context.Context) (B, error) {
	var noFactory F
	if factory := f.getLastSuccessful(); factory != noFactory {
		if backend, err := f.try(ctx, factory); err == nil {
			return backend, nil
		}
	}

	var mErr *multierror.Error
	for _, factory := range f.factories() {
		backend, err := f.try(ctx, factory)
		if err != nil {
			mErr = multierror.Append(mErr, err)
			continue
		}
		f.setLastSuccessful(factory)
		return backend, nil
	}

	var zero B
	if mErr == nil {
		return zero, fmt.Errorf("no %s backends are registered", f.kind)
	}
	return zero, mErr.ErrorOrNil()
}
