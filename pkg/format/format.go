// Package format decides which container a recording is captured in and
// which format it is stored and uploaded as.
package format

import (
	"fmt"
	"mime"
	"strings"
)

type MimeType string

const (
	MimeTypeWebM MimeType = "audio/webm"
	MimeTypeMP4  MimeType = "audio/mp4"
	MimeTypeMP3  MimeType = "audio/mp3"

	// import-only types, never produced by negotiation
	MimeTypeOgg  MimeType = "audio/ogg"
	MimeTypeWAV  MimeType = "audio/wav"
	MimeTypeMPEG MimeType = "audio/mpeg"
)

// Base returns the mime type without parameters, e.g. "audio/webm" for
// "audio/webm;codecs=opus".
func (m MimeType) Base() MimeType {
	mediaType, _, err := mime.ParseMediaType(string(m))
	if err != nil {
		s, _, _ := strings.Cut(string(m), ";")
		return MimeType(strings.ToLower(strings.TrimSpace(s)))
	}
	return MimeType(mediaType)
}

func (m MimeType) String() string {
	return string(m)
}

var extensions = map[MimeType]string{
	MimeTypeWebM: "webm",
	MimeTypeMP4:  "m4a",
	MimeTypeMP3:  "mp3",
	MimeTypeOgg:  "ogg",
	MimeTypeWAV:  "wav",
	MimeTypeMPEG: "mp3",
}

// Extension returns the file extension (without the dot) of the mime type.
func (m MimeType) Extension() (string, bool) {
	ext, ok := extensions[m.Base()]
	return ext, ok
}

// MimeTypeByExtension is the reverse of MimeType.Extension; the leading
// dot is optional.
func MimeTypeByExtension(ext string) (MimeType, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch ext {
	case "webm", "weba":
		return MimeTypeWebM, true
	case "m4a", "mp4":
		return MimeTypeMP4, true
	case "mp3":
		return MimeTypeMP3, true
	case "ogg", "oga":
		return MimeTypeOgg, true
	case "wav":
		return MimeTypeWAV, true
	}
	return "", false
}

// Metadata is the negotiated format of a recording. Extension always
// corresponds to MimeType.
type Metadata struct {
	MimeType  MimeType
	Extension string
}

func metadataFor(m MimeType) Metadata {
	ext, ok := m.Extension()
	if !ok {
		panic(fmt.Errorf("internal error: no extension for %s", m))
	}
	return Metadata{
		MimeType:  m.Base(),
		Extension: ext,
	}
}

var (
	MetadataWebM = metadataFor(MimeTypeWebM)
	MetadataMP4  = metadataFor(MimeTypeMP4)
	MetadataMP3  = metadataFor(MimeTypeMP3)
)

// IsMP3 reports whether the recording has to be transcoded to MP3 before
// it is stored.
func (m Metadata) IsMP3() bool {
	return m.MimeType == MimeTypeMP3
}

// Blob is an immutable chunk of encoded audio tagged with its mime type.
type Blob struct {
	MimeType MimeType
	Data     []byte
}

func (b Blob) Len() int {
	return len(b.Data)
}

// RecordingMimeType returns the container a capture device records in to
// produce the given format: MP4 is recorded as is, everything else is
// recorded as WebM (MP3 is transcoded from it afterwards).
func RecordingMimeType(meta Metadata) MimeType {
	if meta.MimeType == MimeTypeMP4 {
		return MimeTypeMP4
	}
	return MimeTypeWebM
}
