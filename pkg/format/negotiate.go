package format

import (
	"context"
	"fmt"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// Preference is the configured target format.
type Preference string

const (
	PreferenceDefault Preference = ""
	PreferenceWebM    Preference = "webm"
	PreferenceMP4     Preference = "mp4"
	PreferenceMP3     Preference = "mp3"
)

func ParsePreference(s string) (Preference, error) {
	p := Preference(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PreferenceDefault, PreferenceWebM, PreferenceMP4, PreferenceMP3:
		return p, nil
	}
	return "", fmt.Errorf("unknown audio format preference '%s', expected one of: webm, mp4, mp3 (or empty)", s)
}

// IsSupportedFunc tells whether the platform can record the mime type.
type IsSupportedFunc func(MimeType) bool

// Fallback describes a negotiation that could not honor the preferred
// format.
type Fallback struct {
	Wanted MimeType
	Got    MimeType
}

func (f Fallback) String() string {
	return fmt.Sprintf("%s is not supported, falling back to %s", f.Wanted, f.Got)
}

// Resolve is Negotiate without the logging:
//
//	mp4:      audio/mp4  or audio/webm
//	mp3:      audio/mp3  or audio/webm
//	default:  audio/webm or audio/mp3
//
// The returned Fallback is nil if the preferred format is supported.
func Resolve(
	pref Preference,
	isSupported IsSupportedFunc,
) (Metadata, *Fallback) {
	var wanted, fallback Metadata
	switch pref {
	case PreferenceMP4:
		wanted, fallback = MetadataMP4, MetadataWebM
	case PreferenceMP3:
		wanted, fallback = MetadataMP3, MetadataWebM
	default:
		wanted, fallback = MetadataWebM, MetadataMP3
	}
	if isSupported(wanted.MimeType) {
		return wanted, nil
	}
	return fallback, &Fallback{Wanted: wanted.MimeType, Got: fallback.MimeType}
}

// Negotiate picks the recording format for the preference. It never
// fails: when the preferred format is not supported it falls back and
// logs a warning.
func Negotiate(
	ctx context.Context,
	pref Preference,
	isSupported IsSupportedFunc,
) Metadata {
	meta, fallback := Resolve(pref, isSupported)
	if fallback != nil {
		logger.Warnf(ctx, "%s", fallback)
	}
	return meta
}

// Negotiator binds a configured preference to a platform.
type Negotiator struct {
	Preference  Preference
	IsSupported IsSupportedFunc
}

func (n Negotiator) Negotiate(ctx context.Context) Metadata {
	isSupported := n.IsSupported
	if isSupported == nil {
		isSupported = func(MimeType) bool { return false }
	}
	meta := Negotiate(ctx, n.Preference, isSupported)
	logger.Debugf(ctx, "negotiated format for preference '%s': %#+v", n.Preference, meta)
	return meta
}
