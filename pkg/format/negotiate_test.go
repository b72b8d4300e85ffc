package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func supports(types ...MimeType) IsSupportedFunc {
	return func(m MimeType) bool {
		for _, t := range types {
			if t == m {
				return true
			}
		}
		return false
	}
}

func TestResolveTable(t *testing.T) {
	all := supports(MimeTypeWebM, MimeTypeMP4, MimeTypeMP3)
	none := supports()

	for _, tc := range []struct {
		pref        Preference
		isSupported IsSupportedFunc
		expected    Metadata
		fallback    bool
	}{
		{PreferenceMP4, all, Metadata{MimeTypeMP4, "m4a"}, false},
		{PreferenceMP4, none, Metadata{MimeTypeWebM, "webm"}, true},
		{PreferenceMP3, all, Metadata{MimeTypeMP3, "mp3"}, false},
		{PreferenceMP3, none, Metadata{MimeTypeWebM, "webm"}, true},
		{PreferenceDefault, all, Metadata{MimeTypeWebM, "webm"}, false},
		{PreferenceDefault, none, Metadata{MimeTypeMP3, "mp3"}, true},
		{PreferenceWebM, all, Metadata{MimeTypeWebM, "webm"}, false},
		{PreferenceWebM, supports(MimeTypeMP3), Metadata{MimeTypeMP3, "mp3"}, true},
		{Preference("flac"), all, Metadata{MimeTypeWebM, "webm"}, false},
	} {
		meta, fallback := Resolve(tc.pref, tc.isSupported)
		assert.Equal(t, tc.expected, meta, "preference '%s'", tc.pref)
		assert.Equal(t, tc.fallback, fallback != nil, "preference '%s'", tc.pref)
	}
}

func TestNegotiateIsTotal(t *testing.T) {
	prefs := []Preference{PreferenceDefault, PreferenceWebM, PreferenceMP4, PreferenceMP3, "garbage"}
	mimes := []MimeType{MimeTypeWebM, MimeTypeMP4, MimeTypeMP3}
	for _, pref := range prefs {
		for mask := 0; mask < 1<<len(mimes); mask++ {
			var supported []MimeType
			for idx, m := range mimes {
				if mask&(1<<idx) != 0 {
					supported = append(supported, m)
				}
			}
			meta := Negotiate(context.Background(), pref, supports(supported...))
			ext, ok := meta.MimeType.Extension()
			require.True(t, ok)
			require.Equal(t, ext, meta.Extension)
			require.Contains(t, []Metadata{MetadataWebM, MetadataMP4, MetadataMP3}, meta)
		}
	}
}

func TestMP3UnsupportedFallsBackToWebM(t *testing.T) {
	isSupported := func(m MimeType) bool { return m == MimeTypeWebM }

	meta, fallback := Resolve(PreferenceMP3, isSupported)
	assert.Equal(t, Metadata{MimeType: MimeTypeWebM, Extension: "webm"}, meta)
	require.NotNil(t, fallback)
	assert.Equal(t, Fallback{Wanted: MimeTypeMP3, Got: MimeTypeWebM}, *fallback)

	n := Negotiator{Preference: PreferenceMP3, IsSupported: isSupported}
	assert.Equal(t, meta, n.Negotiate(context.Background()))
}

func TestParsePreference(t *testing.T) {
	for in, expected := range map[string]Preference{
		"":      PreferenceDefault,
		"webm":  PreferenceWebM,
		" MP3 ": PreferenceMP3,
		"mp4":   PreferenceMP4,
	} {
		p, err := ParsePreference(in)
		require.NoError(t, err)
		assert.Equal(t, expected, p)
	}
	_, err := ParsePreference("flac")
	require.Error(t, err)
}
