package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/voicecapture/pkg/format"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, format.PreferenceDefault, cfg.Preference())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "8s", cfg.Capture.MaxDuration().String())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
mode: production
audio:
  format: MP3
capture:
  max_duration_ms: 3000
store:
  path: /tmp/x.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ModeProduction, cfg.Mode)
	assert.Equal(t, format.PreferenceMP3, cfg.Preference())
	assert.Equal(t, 3000, cfg.Capture.MaxDurationMS)
	assert.Equal(t, 48000, cfg.Capture.SampleRate)
	assert.Equal(t, "/tmp/x.db", cfg.Store.Path)
	assert.True(t, cfg.IsProduction())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VOICECAPTURE_AUDIO_FORMAT", "mp4")
	t.Setenv("VOICECAPTURE_CAPTURE_CHANNELS", "2")
	t.Setenv("VOICECAPTURE_API_BASE_URL", "https://example.com/api")
	t.Setenv("VOICECAPTURE_API_TIMEOUT_MS", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, format.PreferenceMP4, cfg.Preference())
	assert.Equal(t, 2, cfg.Capture.Channels)
	assert.Equal(t, "https://example.com/api", cfg.API.BaseURL)
	assert.Equal(t, Default().API.TimeoutMS, cfg.API.TimeoutMS)
}

func TestLoadInvalid(t *testing.T) {
	for name, content := range map[string]string{
		"mode":     "mode: staging\n",
		"format":   "audio:\n  format: flac\n",
		"channels": "capture:\n  channels: 3\n",
		"url":      "api:\n  base_url: not a url\n",
		"store":    "store:\n  path: \"\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			require.Error(t, err)
		})
	}
}

func TestLoadValidationErrorsAreInspectable(t *testing.T) {
	_, err := Load(writeConfig(t, "capture:\n  sample_rate: 0\n"))
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "SampleRate", verrs[0].Field())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
