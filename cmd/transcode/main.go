package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	_ "github.com/xaionaro-go/voicecapture/pkg/container/mp3"
	_ "github.com/xaionaro-go/voicecapture/pkg/container/vorbis"
	_ "github.com/xaionaro-go/voicecapture/pkg/container/wav"
	_ "github.com/xaionaro-go/voicecapture/pkg/container/webm"
	"github.com/xaionaro-go/voicecapture/pkg/format"
	"github.com/xaionaro-go/voicecapture/pkg/transcode"
)

func main() {
	loggerLevel := logger.LevelInfo
	pflag.Var(&loggerLevel, "log-level", "Log level")
	outputFormat := pflag.String("format", "mp3", "Output format: mp3 (transcode) or webm/mp4 (pass through)")
	pflag.Parse()

	if pflag.NArg() != 2 {
		panic("expected exactly two positional arguments: input file and output file")
	}
	inputPath, outputPath := pflag.Arg(0), pflag.Arg(1)

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	pref, err := format.ParsePreference(*outputFormat)
	assertNoError(err)
	meta, _ := format.Resolve(pref, func(format.MimeType) bool { return true })

	mimeType, ok := format.MimeTypeByExtension(filepath.Ext(inputPath))
	if !ok {
		panic("unknown input file extension: " + inputPath)
	}
	data, err := os.ReadFile(inputPath)
	assertNoError(err)

	out, err := transcode.New(nil).Transcode(ctx, format.Blob{MimeType: mimeType, Data: data}, meta)
	assertNoError(err)
	assertNoError(os.WriteFile(outputPath, out.Data, 0o644))
	logger.Infof(ctx, "wrote %d bytes of %s to '%s'", out.Len(), out.MimeType, outputPath)
}

func assertNoError(err error) {
	if err != nil {
		panic(err)
	}
}
