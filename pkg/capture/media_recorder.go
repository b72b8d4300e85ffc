package capture

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
	"github.com/xaionaro-go/voicecapture/pkg/format"
)

// MediaRecorder turns interleaved Float32LE PCM written into it into a
// container stream, handed out in chunks through
// MediaRecorderParams.OnChunk.
type MediaRecorder interface {
	io.Writer

	// Finish flushes the pending audio and emits the last chunk. Nothing
	// may be written afterwards.
	Finish() error

	MimeType() format.MimeType
}

type MediaRecorderParams struct {
	SampleRate         types.SampleRate
	Channels           types.Channel
	AudioBitsPerSecond int
	TimeSlice          time.Duration
	OnChunk            func([]byte) error
}

type MediaRecorderFactory interface {
	// MimeType is the container the recorders of the factory produce.
	MimeType() format.MimeType
	NewMediaRecorder(ctx context.Context, params MediaRecorderParams) (MediaRecorder, error)
}

type mediaRecorderFactoryWithPriority struct {
	Priority int
	MediaRecorderFactory
}

// Recorders is a set of media recorder factories ordered by priority.
type Recorders struct {
	locker    sync.Mutex
	factories map[reflect.Type]mediaRecorderFactoryWithPriority
}

func NewRecorders() *Recorders {
	return &Recorders{
		factories: map[reflect.Type]mediaRecorderFactoryWithPriority{},
	}
}

func (r *Recorders) Register(
	priority int,
	factory MediaRecorderFactory,
) {
	t := reflect.ValueOf(factory).Type()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	r.locker.Lock()
	defer r.locker.Unlock()
	if _, ok := r.factories[t]; ok {
		panic(fmt.Errorf("there is already registered a factory of MediaRecorder of type %v", t))
	}
	r.factories[t] = mediaRecorderFactoryWithPriority{
		Priority:             priority,
		MediaRecorderFactory: factory,
	}
}

// Factories returns the registered factories, the highest priority first.
func (r *Recorders) Factories() []MediaRecorderFactory {
	r.locker.Lock()
	var factoriesWithPriorities []mediaRecorderFactoryWithPriority
	for _, factory := range r.factories {
		factoriesWithPriorities = append(factoriesWithPriorities, factory)
	}
	r.locker.Unlock()

	sort.SliceStable(factoriesWithPriorities, func(i, j int) bool {
		return factoriesWithPriorities[i].Priority > factoriesWithPriorities[j].Priority
	})

	factories := make([]MediaRecorderFactory, 0, len(factoriesWithPriorities))
	for _, factory := range factoriesWithPriorities {
		factories = append(factories, factory.MediaRecorderFactory)
	}
	return factories
}

// Lookup returns the highest priority factory producing the mime type.
func (r *Recorders) Lookup(mimeType format.MimeType) (MediaRecorderFactory, bool) {
	mimeType = mimeType.Base()
	for _, factory := range r.Factories() {
		if factory.MimeType().Base() == mimeType {
			return factory, true
		}
	}
	return nil, false
}

var defaultRecorders = NewRecorders()

func DefaultRecorders() *Recorders {
	return defaultRecorders
}

// RegisterMediaRecorderFactory is expected to be called from init() of a
// media recorder package.
func RegisterMediaRecorderFactory(
	priority int,
	factory MediaRecorderFactory,
) {
	defaultRecorders.Register(priority, factory)
}
