package webm

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const opusHeadMagic = "OpusHead"

// opusHead is the Opus identification header, the CodecPrivate of an
// A_OPUS track.
type opusHead struct {
	Version         uint8
	Channels        uint8
	PreSkip         uint16
	InputSampleRate uint32
	OutputGain      int16
	MappingFamily   uint8
}

func (h opusHead) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteString(opusHeadMagic)
	// binary.Write into a bytes.Buffer with fixed-size fields cannot fail.
	_ = binary.Write(&buf, binary.LittleEndian, h)
	return buf.Bytes()
}

func parseOpusHead(b []byte) (opusHead, error) {
	var h opusHead
	if len(b) < len(opusHeadMagic)+11 {
		return h, fmt.Errorf("OpusHead is too short: %d bytes", len(b))
	}
	if string(b[:len(opusHeadMagic)]) != opusHeadMagic {
		return h, fmt.Errorf("invalid OpusHead magic: %q", b[:len(opusHeadMagic)])
	}
	if err := binary.Read(bytes.NewReader(b[len(opusHeadMagic):]), binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("unable to parse OpusHead: %w", err)
	}
	if h.Version>>4 != 0 {
		return h, fmt.Errorf("unsupported OpusHead version: %d", h.Version)
	}
	return h, nil
}
