package webm

import (
	"bytes"
	"context"
	"fmt"

	"github.com/at-wat/ebml-go"
	"github.com/at-wat/ebml-go/webm"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/voicecapture/pkg/audio/types"
	"github.com/xaionaro-go/voicecapture/pkg/container"
	"gopkg.in/hraban/opus.v2"
)

// maxFrameSamples is the longest Opus packet (120ms) at 48kHz.
const maxFrameSamples = 5760

type document struct {
	Header  webm.EBMLHeader `ebml:"EBML"`
	Segment webm.Segment    `ebml:"Segment"`
}

// Decoder decodes the first Opus track of a WebM file at 48kHz.
type Decoder struct{}

var _ container.Decoder = Decoder{}

func (Decoder) Decode(
	ctx context.Context,
	data []byte,
) (*types.PCMBuffer, error) {
	var doc document
	if err := ebml.Unmarshal(bytes.NewReader(data), &doc); err != nil {
		return nil, fmt.Errorf("unable to parse the WebM structure: %w", err)
	}
	if doc.Header.DocType != "" && doc.Header.DocType != "webm" && doc.Header.DocType != "matroska" {
		return nil, fmt.Errorf("unexpected DocType '%s'", doc.Header.DocType)
	}

	track, err := findOpusTrack(doc.Segment.Tracks.TrackEntry)
	if err != nil {
		return nil, err
	}

	channels := int(track.Audio.Channels)
	var preSkip int
	if len(track.CodecPrivate) > 0 {
		head, err := parseOpusHead(track.CodecPrivate)
		if err != nil {
			return nil, err
		}
		if head.MappingFamily != 0 {
			return nil, fmt.Errorf("%w: opus channel mapping family %d", container.ErrUnsupportedChannel, head.MappingFamily)
		}
		channels = int(head.Channels)
		preSkip = int(head.PreSkip)
	}
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("%w: %d opus channels", container.ErrUnsupportedChannel, channels)
	}
	logger.Debugf(ctx, "webm: opus track #%d, %d channels, pre-skip %d", track.TrackNumber, channels, preSkip)

	decoder, err := opus.NewDecoder(opusTimebase, channels)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize an opus decoder: %w", err)
	}

	buf := types.NewPCMBuffer(opusTimebase, types.Channel(channels), 0)
	pcm := make([]float32, maxFrameSamples*channels)
	packets := 0
	for _, packet := range trackPackets(doc.Segment.Cluster, track.TrackNumber) {
		n, err := decoder.DecodeFloat32(packet, pcm)
		if err != nil {
			return nil, fmt.Errorf("unable to decode opus packet #%d: %w", packets, err)
		}
		packets++
		for idx := 0; idx < n; idx++ {
			for ch := 0; ch < channels; ch++ {
				buf.Channels[ch] = append(buf.Channels[ch], pcm[idx*channels+ch])
			}
		}
	}
	if packets == 0 {
		return nil, fmt.Errorf("%w: the opus track has no packets", container.ErrNoAudioTrack)
	}

	preSkip = min(preSkip, buf.Len())
	for ch := range buf.Channels {
		buf.Channels[ch] = buf.Channels[ch][preSkip:]
	}
	return buf, nil
}

func findOpusTrack(tracks []webm.TrackEntry) (*webm.TrackEntry, error) {
	for idx := range tracks {
		track := &tracks[idx]
		if track.TrackType != trackTypeAudio || track.CodecID != CodecIDOpus {
			continue
		}
		if track.Audio == nil {
			return nil, fmt.Errorf("the opus track #%d has no audio settings", track.TrackNumber)
		}
		return track, nil
	}
	codecs := make([]string, 0, len(tracks))
	for _, track := range tracks {
		codecs = append(codecs, track.CodecID)
	}
	return nil, fmt.Errorf("%w: track codecs are %v", container.ErrNoAudioTrack, codecs)
}

// trackPackets returns the frames of the track in the order they are
// stored.
func trackPackets(clusters []webm.Cluster, trackNumber uint64) [][]byte {
	var packets [][]byte
	for _, cluster := range clusters {
		for _, block := range cluster.SimpleBlock {
			if block.TrackNumber == trackNumber {
				packets = append(packets, block.Data...)
			}
		}
		for _, group := range cluster.BlockGroup {
			if group.Block.TrackNumber == trackNumber {
				packets = append(packets, group.Block.Data...)
			}
		}
	}
	return packets
}
