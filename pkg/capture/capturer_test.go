package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapturerSingleSession(t *testing.T) {
	ctx := testCtx(t)
	c := NewCapturer(&fakeDevice{}, newFakeRecorders(&fakeFactory{}))
	assert.Nil(t, c.Current())

	first, err := c.Begin(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, first, c.Current())

	_, err = c.Begin(ctx, Options{})
	require.ErrorIs(t, err, ErrSessionActive)
	assert.Equal(t, StateRecording, first.State())

	_, err = first.Stop(ctx)
	require.NoError(t, err)

	second, err := c.Begin(ctx, Options{})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	_, err = second.Stop(ctx)
	require.NoError(t, err)
}

func TestCapturerAfterFailedStart(t *testing.T) {
	ctx := testCtx(t)
	device := &fakeDevice{recordErr: assert.AnError}
	c := NewCapturer(device, newFakeRecorders(&fakeFactory{}))

	s, err := c.Begin(ctx, Options{})
	require.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.Equal(t, StateFailed, s.State())

	device.recordErr = nil
	s, err = c.Begin(ctx, Options{})
	require.NoError(t, err)
	_, err = s.Stop(ctx)
	require.NoError(t, err)
}
