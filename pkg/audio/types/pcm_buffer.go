package types

import (
	"fmt"
	"time"
)

// PCMBuffer is planar floating point PCM: one slice per channel, samples
// nominally in [-1, 1].
type PCMBuffer struct {
	SampleRate SampleRate
	Channels   [][]float32
}

func NewPCMBuffer(sampleRate SampleRate, channels Channel, samplesPerChannel int) *PCMBuffer {
	buf := &PCMBuffer{
		SampleRate: sampleRate,
		Channels:   make([][]float32, channels),
	}
	for ch := range buf.Channels {
		buf.Channels[ch] = make([]float32, samplesPerChannel)
	}
	return buf
}

func (b *PCMBuffer) NumChannels() Channel {
	return Channel(len(b.Channels))
}

// Len returns the amount of samples per channel.
func (b *PCMBuffer) Len() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

func (b *PCMBuffer) Duration() time.Duration {
	if b.SampleRate == 0 {
		return 0
	}
	return time.Duration(b.Len()) * time.Second / time.Duration(b.SampleRate)
}

// Append adds planar samples to the end of the buffer; the amount of
// channels must match.
func (b *PCMBuffer) Append(channels [][]float32) error {
	if len(channels) != len(b.Channels) {
		return fmt.Errorf("expected %d channels, received %d", len(b.Channels), len(channels))
	}
	for ch := range channels {
		b.Channels[ch] = append(b.Channels[ch], channels[ch]...)
	}
	return nil
}

func (b *PCMBuffer) Validate() error {
	if b.SampleRate == 0 {
		return fmt.Errorf("sample rate is not set")
	}
	if len(b.Channels) == 0 {
		return fmt.Errorf("no channels")
	}
	for ch := range b.Channels {
		if len(b.Channels[ch]) != len(b.Channels[0]) {
			return fmt.Errorf("channel %d has %d samples, while channel 0 has %d", ch, len(b.Channels[ch]), len(b.Channels[0]))
		}
	}
	return nil
}
