package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/voicecapture/pkg/audio"
	_ "github.com/xaionaro-go/voicecapture/pkg/audio/backends/oto"
	_ "github.com/xaionaro-go/voicecapture/pkg/audio/backends/portaudio"
	_ "github.com/xaionaro-go/voicecapture/pkg/audio/backends/pulseaudio"
	"github.com/xaionaro-go/voicecapture/pkg/config"
	"github.com/xaionaro-go/voicecapture/pkg/container"
	_ "github.com/xaionaro-go/voicecapture/pkg/container/mp3"
	_ "github.com/xaionaro-go/voicecapture/pkg/container/vorbis"
	_ "github.com/xaionaro-go/voicecapture/pkg/container/wav"
	_ "github.com/xaionaro-go/voicecapture/pkg/container/webm"
	"github.com/xaionaro-go/voicecapture/pkg/format"
	"github.com/xaionaro-go/voicecapture/pkg/store"
)

func main() {
	loggerLevel := logger.LevelInfo
	pflag.Var(&loggerLevel, "log-level", "Log level")
	configPath := pflag.String("config", "", "Path to the YAML config file")
	pflag.Parse()

	if pflag.NArg() > 1 {
		panic("expected at most one positional argument: path to an audio file (the stored recording is played if omitted)")
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	var blob format.Blob
	if pflag.NArg() == 1 {
		filePath := pflag.Arg(0)
		mimeType, ok := format.MimeTypeByExtension(filepath.Ext(filePath))
		if !ok {
			panic("unknown file extension: " + filePath)
		}
		data, err := os.ReadFile(filePath)
		assertNoError(err)
		blob = format.Blob{MimeType: mimeType, Data: data}
	} else {
		cfg, err := config.Load(*configPath)
		assertNoError(err)
		st, err := store.OpenSQLite(ctx, cfg.Store.Path)
		assertNoError(err)
		stored, err := st.Get(ctx, store.RecordID)
		assertNoError(err)
		assertNoError(st.Close())
		if stored == nil {
			panic("there is no stored recording")
		}
		blob = *stored
	}

	buf, err := container.DefaultRegistry().Decode(ctx, blob.MimeType, blob.Data)
	assertNoError(err)

	player := audio.NewPlayerAuto(ctx)
	defer player.Close()
	logger.Tracef(ctx, "player.PlayBuffer")
	streamPlay, err := player.PlayBuffer(ctx, buf)
	logger.Tracef(ctx, "/player.PlayBuffer: %v", err)
	assertNoError(err)
	logger.Infof(ctx, "playing %s (%v) using %T", blob.MimeType, buf.Duration(), player.PlayerPCM)
	assertNoError(streamPlay.Drain())
	assertNoError(streamPlay.Close())
}

func assertNoError(err error) {
	if err != nil {
		panic(err)
	}
}
