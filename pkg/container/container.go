// Package container decodes recorded or imported audio containers into
// planar PCM.
package container

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
	"github.com/xaionaro-go/voicecapture/pkg/format"
)

var (
	ErrDecode             = errors.New("unable to decode the audio container")
	ErrUnsupportedFormat  = errors.New("unsupported container format")
	ErrNoAudioTrack       = errors.New("no supported audio track found")
	ErrUnsupportedChannel = errors.New("unsupported channel layout")
)

// Decoder turns a whole container into PCM at the rate and channel count
// it was encoded with.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*types.PCMBuffer, error)
}

// DecoderFunc is a function implementing Decoder.
type DecoderFunc func(ctx context.Context, data []byte) (*types.PCMBuffer, error)

func (fn DecoderFunc) Decode(ctx context.Context, data []byte) (*types.PCMBuffer, error) {
	return fn(ctx, data)
}

type Registry struct {
	locker   sync.Mutex
	decoders map[format.MimeType]Decoder
}

func NewRegistry() *Registry {
	return &Registry{
		decoders: map[format.MimeType]Decoder{},
	}
}

// Register adds a decoder for the mime type; mime type parameters are
// ignored. It panics if there is already a decoder for it.
func (r *Registry) Register(mimeType format.MimeType, decoder Decoder) {
	r.locker.Lock()
	defer r.locker.Unlock()
	mimeType = mimeType.Base()
	if _, ok := r.decoders[mimeType]; ok {
		panic(fmt.Errorf("there is already registered a decoder for %s", mimeType))
	}
	r.decoders[mimeType] = decoder
}

func (r *Registry) Lookup(mimeType format.MimeType) (Decoder, bool) {
	r.locker.Lock()
	defer r.locker.Unlock()
	decoder, ok := r.decoders[mimeType.Base()]
	return decoder, ok
}

// MimeTypes returns the mime types there are decoders for, sorted.
func (r *Registry) MimeTypes() []format.MimeType {
	r.locker.Lock()
	defer r.locker.Unlock()
	result := make([]format.MimeType, 0, len(r.decoders))
	for m := range r.decoders {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Decode decodes data using the decoder registered for the mime type.
// All failures wrap ErrDecode.
func (r *Registry) Decode(
	ctx context.Context,
	mimeType format.MimeType,
	data []byte,
) (_ret *types.PCMBuffer, _err error) {
	logger.Tracef(ctx, "Decode(%s, %d bytes)", mimeType, len(data))
	defer func() { logger.Tracef(ctx, "/Decode(%s, %d bytes): %v", mimeType, len(data), _err) }()

	decoder, ok := r.Lookup(mimeType)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", ErrDecode, ErrUnsupportedFormat, mimeType)
	}
	buf, err := decoder.Decode(ctx, data)
	if err != nil {
		if errors.Is(err, ErrDecode) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, mimeType, err)
	}
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: the decoder returned an invalid buffer: %w", ErrDecode, mimeType, err)
	}
	logger.Debugf(ctx, "decoded %s: %d Hz, %d channels, %v", mimeType, buf.SampleRate, buf.NumChannels(), buf.Duration())
	return buf, nil
}

var defaultRegistry = NewRegistry()

// DefaultRegistry is filled by the init functions of the decoder
// subpackages.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func Register(mimeType format.MimeType, decoder Decoder) {
	defaultRegistry.Register(mimeType, decoder)
}
