package capture

import (
	"time"

	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
	"github.com/xaionaro-go/voicecapture/pkg/format"
)

const (
	DefaultAudioBitsPerSecond = 768000
	DefaultSampleRate         = types.SampleRate(48000)
	DefaultChannels           = types.Channel(1)
	DefaultMaxDuration        = 8 * time.Second
	DefaultTimeSlice          = time.Second
)

// RawAudioBlob is the assembled result of a capture session.
type RawAudioBlob struct {
	format.Blob
	Duration time.Duration
}

type Options struct {
	// MimeType is the container to record in.
	MimeType format.MimeType

	// AudioBitsPerSecond is the upper bound of the encoded bitrate.
	AudioBitsPerSecond int

	SampleRate types.SampleRate
	Channels   types.Channel

	// MaxDuration is the ceiling after which the session stops by itself.
	MaxDuration time.Duration

	// TimeSlice is how often the media recorder emits a chunk.
	TimeSlice time.Duration

	// OnComplete is called once the session is completed.
	OnComplete func(RawAudioBlob)
}

func DefaultOptions() Options {
	return Options{
		MimeType:           format.MimeTypeWebM,
		AudioBitsPerSecond: DefaultAudioBitsPerSecond,
		SampleRate:         DefaultSampleRate,
		Channels:           DefaultChannels,
		MaxDuration:        DefaultMaxDuration,
		TimeSlice:          DefaultTimeSlice,
	}
}

func (opts Options) withDefaults() Options {
	def := DefaultOptions()
	if opts.MimeType == "" {
		opts.MimeType = def.MimeType
	}
	if opts.AudioBitsPerSecond <= 0 {
		opts.AudioBitsPerSecond = def.AudioBitsPerSecond
	}
	if opts.SampleRate == 0 {
		opts.SampleRate = def.SampleRate
	}
	if opts.Channels == 0 {
		opts.Channels = def.Channels
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = def.MaxDuration
	}
	if opts.TimeSlice <= 0 {
		opts.TimeSlice = def.TimeSlice
	}
	return opts
}
