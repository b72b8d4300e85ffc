package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/voicecapture/pkg/audio"
	_ "github.com/xaionaro-go/voicecapture/pkg/audio/backends/portaudio"
	_ "github.com/xaionaro-go/voicecapture/pkg/audio/backends/pulseaudio"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
	"github.com/xaionaro-go/voicecapture/pkg/capture"
	_ "github.com/xaionaro-go/voicecapture/pkg/capture/webmopus"
	"github.com/xaionaro-go/voicecapture/pkg/config"
	_ "github.com/xaionaro-go/voicecapture/pkg/container/webm"
	"github.com/xaionaro-go/voicecapture/pkg/flow"
	"github.com/xaionaro-go/voicecapture/pkg/format"
	"github.com/xaionaro-go/voicecapture/pkg/store"
	"github.com/xaionaro-go/voicecapture/pkg/submit"
	"github.com/xaionaro-go/voicecapture/pkg/transcode"
)

func main() {
	loggerLevel := logger.LevelInfo
	pflag.Var(&loggerLevel, "log-level", "Log level")
	configPath := pflag.String("config", "", "Path to the YAML config file")
	transcribe := pflag.Bool("transcribe", false, "Send the recording for transcription")
	checkTranscript := pflag.String("check", "", "Send the recording for a pronunciation check against the given transcript")
	pflag.Parse()

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	cfg, err := config.Load(*configPath)
	assertNoError(err)

	device, err := audio.FindRecorder(ctx)
	assertNoError(err)
	defer device.Close()

	st, err := store.OpenSQLite(ctx, cfg.Store.Path)
	assertNoError(err)
	defer st.Close()

	f := &flow.Flow{
		Capturer: capture.NewCapturer(device, nil),
		Options: capture.Options{
			AudioBitsPerSecond: cfg.Capture.AudioBitsPerSecond,
			SampleRate:         types.SampleRate(cfg.Capture.SampleRate),
			Channels:           types.Channel(cfg.Capture.Channels),
			MaxDuration:        cfg.Capture.MaxDuration(),
			TimeSlice:          cfg.Capture.TimeSlice(),
		},
		Pipeline:  transcode.New(nil),
		Store:     st,
		Submitter: submit.New(cfg.API.BaseURL, submit.OptionTimeout(cfg.API.Timeout())),
		Negotiator: format.Negotiator{
			Preference:  cfg.Preference(),
			IsSupported: capture.DefaultPlatform().IsSupported,
		},
		Export: flow.Export{
			Enabled: !cfg.IsProduction(),
			Dir:     cfg.Export.Dir,
		},
	}

	session, meta, err := f.Begin(ctx)
	assertNoError(err)
	logger.Infof(ctx, "recording %s (press Ctrl+C to stop, stops by itself after %v)...", meta.MimeType, cfg.Capture.MaxDuration())

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt)
	observability.Go(ctx, func(ctx context.Context) {
		select {
		case <-signalCh:
			logger.Debugf(ctx, "interrupted, stopping")
			if _, err := session.Stop(ctx); err != nil {
				logger.Debugf(ctx, "unable to stop: %v", err)
			}
		case <-session.Done():
		}
	})

	result, err := f.Finish(ctx, session, meta)
	signal.Stop(signalCh)
	assertNoError(err)
	logger.Infof(ctx, "stored %s as '%s' (%d bytes, %v)", result.Stored.MimeType, result.ID, result.Stored.Len(), result.Recording.Duration)

	if *transcribe {
		resp, err := f.Transcribe(ctx, result.ID)
		assertNoError(err)
		fmt.Println(resp.Transcript)
	}
	if pflag.Lookup("check").Changed {
		resp, err := f.CheckPronunciation(ctx, result.ID, *checkTranscript)
		assertNoError(err)
		printJSON(resp)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	assertNoError(enc.Encode(v))
}

func assertNoError(err error) {
	if err != nil {
		panic(err)
	}
}
