// Package submit sends recordings to the pronunciation service.
package submit

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/go-resty/resty/v2"
	"github.com/xaionaro-go/voicecapture/pkg/format"
)

const (
	PathPredict    = "/predict"
	PathTranscribe = "/transcribe"

	DefaultTimeout = 60 * time.Second

	// emptyTranscript is sent instead of an empty transcript, the service
	// rejects empty form fields.
	emptyTranscript = "''"
)

// LabelDetails is the verdict on a single segment of a word.
type LabelDetails struct {
	Phoneme     string `json:"phoneme"`
	WordSegment string `json:"word_segment"`
	Label       int    `json:"label"`
}

// Correct reports whether the segment was pronounced correctly.
func (d LabelDetails) Correct() bool {
	return d.Label != 0
}

type WordLabel struct {
	Word    string         `json:"word"`
	Details []LabelDetails `json:"details"`
}

type PredictResponse struct {
	Labels []WordLabel `json:"labels"`
}

type TranscribeResponse struct {
	Transcript string `json:"transcript"`
}

// APIError is a non-2xx reply of the service.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Detail, e.StatusCode)
}

type errorBody struct {
	Detail any `json:"detail"`
}

type Option func(*Client)

// OptionTimeout limits the duration of a whole request.
func OptionTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.resty.SetTimeout(d)
	}
}

// OptionHTTPClient makes the client send requests through the given
// transport, e.g. in tests.
func OptionHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.resty = resty.NewWithClient(hc).SetBaseURL(c.baseURL)
	}
}

type Client struct {
	baseURL string
	resty   *resty.Client
}

func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	c := &Client{
		baseURL: baseURL,
		resty: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(DefaultTimeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FileName returns the name an upload is sent under: "<id>.<ext>", or a
// timestamped "audio-YYYY-MM-DD HH:mm:ss.<ext>" if id is empty.
func FileName(id string, ext string, now time.Time) string {
	ext = strings.TrimPrefix(ext, ".")
	if id != "" {
		return id + "." + ext
	}
	return fmt.Sprintf("audio-%s.%s", now.Format("2006-01-02 15:04:05"), ext)
}

func normalizeTranscript(transcript string) string {
	transcript = strings.ToLower(strings.TrimSpace(transcript))
	if transcript == "" {
		return emptyTranscript
	}
	return transcript
}

// CheckPronunciation asks the service to grade how the transcript was
// pronounced in the recording.
func (c *Client) CheckPronunciation(
	ctx context.Context,
	audio format.Blob,
	fileName string,
	transcript string,
) (_ret *PredictResponse, _err error) {
	logger.Tracef(ctx, "CheckPronunciation(%s, %d bytes, %q)", fileName, audio.Len(), transcript)
	defer func() {
		logger.Tracef(ctx, "/CheckPronunciation(%s, %d bytes, %q): %v", fileName, audio.Len(), transcript, _err)
	}()

	var result PredictResponse
	err := c.post(ctx, PathPredict, audio, fileName, map[string]string{
		"transcript": normalizeTranscript(transcript),
	}, &result, "Failed to check pronunciation")
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Transcribe asks the service for the text spoken in the recording.
func (c *Client) Transcribe(
	ctx context.Context,
	audio format.Blob,
	fileName string,
) (_ret *TranscribeResponse, _err error) {
	logger.Tracef(ctx, "Transcribe(%s, %d bytes)", fileName, audio.Len())
	defer func() { logger.Tracef(ctx, "/Transcribe(%s, %d bytes): %v", fileName, audio.Len(), _err) }()

	var result TranscribeResponse
	err := c.post(ctx, PathTranscribe, audio, fileName, nil, &result, "Failed to transcribe")
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) post(
	ctx context.Context,
	path string,
	audio format.Blob,
	fileName string,
	fields map[string]string,
	result any,
	genericDetail string,
) error {
	req := c.resty.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&errorBody{}).
		SetMultipartField("audio", fileName, string(audio.MimeType.Base()), bytes.NewReader(audio.Data))
	if len(fields) > 0 {
		req.SetMultipartFormData(fields)
	}

	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("unable to POST %s%s: %w", c.baseURL, path, err)
	}
	logger.Debugf(ctx, "POST %s: %s (%s)", path, resp.Status(), resp.Time())
	if !resp.IsError() {
		return nil
	}

	detail := genericDetail
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		if s, ok := body.Detail.(string); ok && s != "" {
			detail = s
		}
	}
	return &APIError{
		StatusCode: resp.StatusCode(),
		Detail:     detail,
	}
}
