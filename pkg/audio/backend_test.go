package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	pingErr error
	closed  bool
}

func (b *fakeBackend) Close() error {
	b.closed = true
	return nil
}

func (b *fakeBackend) Ping(context.Context) error {
	return b.pingErr
}

type fakeBackendFactory struct {
	name    string
	openErr error
	pingErr error
	opened  int
	last    *fakeBackend
}

func newFakeFinder(factories ...*fakeBackendFactory) *backendFinder[*fakeBackendFactory, *fakeBackend] {
	return &backendFinder[*fakeBackendFactory, *fakeBackend]{
		kind:      "fake",
		factories: func() []*fakeBackendFactory { return factories },
		open: func(f *fakeBackendFactory) (*fakeBackend, error) {
			f.opened++
			if f.openErr != nil {
				return nil, f.openErr
			}
			f.last = &fakeBackend{pingErr: f.pingErr}
			return f.last, nil
		},
	}
}

func TestBackendFinderSkipsBroken(t *testing.T) {
	broken := &fakeBackendFactory{name: "broken", openErr: errors.New("no server")}
	silent := &fakeBackendFactory{name: "silent", pingErr: errors.New("no device")}
	working := &fakeBackendFactory{name: "working"}
	finder := newFakeFinder(broken, silent, working)

	backend, err := finder.find(context.Background())
	require.NoError(t, err)
	require.Same(t, working.last, backend)
	require.True(t, silent.last.closed)
	require.Equal(t, working, finder.getLastSuccessful())

	// the remembered factory is tried before the rest
	_, err = finder.find(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, broken.opened)
	require.Equal(t, 2, working.opened)
}

func TestBackendFinderNothingWorks(t *testing.T) {
	openErr := errors.New("no server")
	finder := newFakeFinder(
		&fakeBackendFactory{openErr: openErr},
		&fakeBackendFactory{pingErr: errors.New("no device")},
	)
	_, err := finder.find(context.Background())
	require.ErrorIs(t, err, openErr)
	require.ErrorContains(t, err, "no device")
}

func TestBackendFinderEmpty(t *testing.T) {
	_, err := newFakeFinder().find(context.Background())
	require.ErrorContains(t, err, "no fake backends are registered")
}
