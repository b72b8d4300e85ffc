// Package flow ties capture, transcoding, storage and submission into the
// record-then-check sequence.
package flow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/voicecapture/pkg/capture"
	"github.com/xaionaro-go/voicecapture/pkg/format"
	"github.com/xaionaro-go/voicecapture/pkg/store"
	"github.com/xaionaro-go/voicecapture/pkg/submit"
)

var ErrRecordingNotFound = errors.New("audio file not found")

type Transcoder interface {
	Transcode(ctx context.Context, raw format.Blob, meta format.Metadata) (format.Blob, error)
}

type Submitter interface {
	CheckPronunciation(ctx context.Context, audio format.Blob, fileName string, transcript string) (*submit.PredictResponse, error)
	Transcribe(ctx context.Context, audio format.Blob, fileName string) (*submit.TranscribeResponse, error)
}

// Export configures the debug copies written before each submission.
type Export struct {
	Enabled bool
	Dir     string
}

type Flow struct {
	Capturer   *capture.Capturer
	Options    capture.Options
	Pipeline   Transcoder
	Store      store.Store
	Submitter  Submitter
	Negotiator format.Negotiator
	Export     Export

	// Now is time.Now if nil.
	Now func() time.Time
}

type Result struct {
	ID        string
	Metadata  format.Metadata
	Recording capture.RawAudioBlob
	Stored    format.Blob
}

func (f *Flow) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// Record captures a take until it is stopped by the duration ceiling, then
// transcodes and stores it.
func (f *Flow) Record(ctx context.Context) (Result, error) {
	session, meta, err := f.Begin(ctx)
	if err != nil {
		return Result{}, err
	}
	return f.Finish(ctx, session, meta)
}

// Begin negotiates the format and starts capturing.
func (f *Flow) Begin(ctx context.Context) (_ *capture.Session, _ format.Metadata, _err error) {
	logger.Tracef(ctx, "Begin")
	defer func() { logger.Tracef(ctx, "/Begin: %v", _err) }()

	meta := f.Negotiator.Negotiate(ctx)
	opts := f.Options
	opts.MimeType = format.RecordingMimeType(meta)

	session, err := f.Capturer.Begin(ctx, opts)
	if err != nil {
		return nil, meta, fmt.Errorf("unable to start capturing: %w", err)
	}
	return session, meta, nil
}

// Finish waits for the session to end, transcodes the recording to meta
// and stores it.
func (f *Flow) Finish(
	ctx context.Context,
	session *capture.Session,
	meta format.Metadata,
) (_ret Result, _err error) {
	logger.Tracef(ctx, "Finish")
	defer func() { logger.Tracef(ctx, "/Finish: %v", _err) }()

	raw, err := session.Wait(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("capture failed: %w", err)
	}

	stored, err := f.Pipeline.Transcode(ctx, raw.Blob, meta)
	if err != nil {
		return Result{}, fmt.Errorf("unable to convert the recording to %s: %w", meta.MimeType, err)
	}

	id, err := f.Store.Save(ctx, stored)
	if err != nil {
		return Result{}, fmt.Errorf("unable to save the recording: %w", err)
	}
	logger.Infof(ctx, "saved the recording %s: %s, %d bytes, %v", id, stored.MimeType, stored.Len(), raw.Duration)

	return Result{
		ID:        id,
		Metadata:  meta,
		Recording: *raw,
		Stored:    stored,
	}, nil
}

func (f *Flow) load(ctx context.Context, id string) (*format.Blob, error) {
	blob, err := f.Store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("unable to read the recording '%s': %w", id, err)
	}
	if blob == nil {
		return nil, fmt.Errorf("%w: '%s'", ErrRecordingNotFound, id)
	}
	f.export(ctx, *blob)
	return blob, nil
}

// Transcribe sends the stored recording to the transcription service.
func (f *Flow) Transcribe(
	ctx context.Context,
	id string,
) (_ret *submit.TranscribeResponse, _err error) {
	logger.Tracef(ctx, "Transcribe(%s)", id)
	defer func() { logger.Tracef(ctx, "/Transcribe(%s): %v", id, _err) }()

	blob, err := f.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ext, _ := blob.MimeType.Extension()
	return f.Submitter.Transcribe(ctx, *blob, submit.FileName(id, ext, f.now()))
}

// CheckPronunciation sends the stored recording together with the
// expected transcript for grading.
func (f *Flow) CheckPronunciation(
	ctx context.Context,
	id string,
	transcript string,
) (_ret *submit.PredictResponse, _err error) {
	logger.Tracef(ctx, "CheckPronunciation(%s, %q)", id, transcript)
	defer func() { logger.Tracef(ctx, "/CheckPronunciation(%s, %q): %v", id, transcript, _err) }()

	blob, err := f.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ext, _ := blob.MimeType.Extension()
	return f.Submitter.CheckPronunciation(ctx, *blob, submit.FileName("", ext, f.now()), transcript)
}

// ExportFileName is the name of a debug copy made at t.
func ExportFileName(t time.Time, ext string) string {
	return fmt.Sprintf("%srecording.%s", t.Format("2006-01-02-15:04:05"), ext)
}

func (f *Flow) export(ctx context.Context, blob format.Blob) {
	if !f.Export.Enabled {
		return
	}
	ext, ok := blob.MimeType.Extension()
	if !ok {
		ext = "bin"
	}
	path := filepath.Join(f.Export.Dir, ExportFileName(f.now(), ext))
	if err := os.MkdirAll(f.Export.Dir, 0o755); err != nil {
		logger.Warnf(ctx, "unable to create the export directory '%s': %v", f.Export.Dir, err)
		return
	}
	if err := os.WriteFile(path, blob.Data, 0o644); err != nil {
		logger.Warnf(ctx, "unable to export the recording to '%s': %v", path, err)
		return
	}
	logger.Debugf(ctx, "exported the recording to '%s'", path)
}
