package media

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/rs/zerolog"

	"github.com/avokadi/husk/internal/container"
	"github.com/avokadi/husk/internal/drm"
	"github.com/avokadi/husk/internal/fileio"
	"github.com/avokadi/husk/internal/status"
)

// Demuxer is the origin handler for audio/video inputs. One demuxer
// exists per input file; streams are routed to per-selector handlers
// installed during assembly.
type Demuxer struct {
	input          string
	dumpStreamInfo bool
	keySource      drm.KeySource
	langOverrides  map[string]string
	handlers       map[string]Handler
	logger         zerolog.Logger

	canceled atomic.Bool
}

const (
	demuxChunkSize  = 64 * 1024
	demuxChunkDurMs = 500
)

// NewDemuxer creates a demuxer for one input.
func NewDemuxer(input string, logger zerolog.Logger) *Demuxer {
	return &Demuxer{
		input:         input,
		langOverrides: make(map[string]string),
		handlers:      make(map[string]Handler),
		logger:        logger,
	}
}

// Input returns the input this demuxer reads.
func (d *Demuxer) Input() string {
	return d.input
}

// SetDumpStreamInfo makes Run log the probed stream layout.
func (d *Demuxer) SetDumpStreamInfo(dump bool) {
	d.dumpStreamInfo = dump
}

// SetKeySource installs the decryption key source for protected inputs.
func (d *Demuxer) SetKeySource(ks drm.KeySource) {
	d.keySource = ks
}

// SetLanguageOverride replaces the language of the selected stream.
func (d *Demuxer) SetLanguageOverride(selector, language string) {
	d.langOverrides[selector] = language
}

// SetHandler routes the selected stream into a pipeline chain.
func (d *Demuxer) SetHandler(selector string, h Handler) error {
	if existing, ok := d.handlers[selector]; ok && existing != h {
		return fmt.Errorf("selector %q already has a handler", selector)
	}
	d.handlers[selector] = h
	return nil
}

// Handler returns the chain installed for a selector, if any.
func (d *Demuxer) Handler(selector string) Handler {
	return d.handlers[selector]
}

// AddDownstream is invalid for a demuxer; chains attach via SetHandler.
func (d *Demuxer) AddDownstream(Handler) error {
	return fmt.Errorf("demuxer downstreams are set per selector")
}

// Process is invalid for an origin handler.
func (d *Demuxer) Process(*Data) error {
	return fmt.Errorf("demuxer has no upstream")
}

// Flush is a no-op; Run flushes its handlers when the input ends.
func (d *Demuxer) Flush() error {
	return nil
}

// Initialize verifies the demuxer is usable before jobs start.
func (d *Demuxer) Initialize() error {
	if d.input == "" {
		return status.InvalidArgument("demuxer input not specified")
	}
	if len(d.handlers) == 0 && !d.dumpStreamInfo {
		return status.InvalidArgument("demuxer for %s has no output handlers", d.input)
	}
	return nil
}

// Cancel stops an in-flight Run at the next chunk boundary.
func (d *Demuxer) Cancel() {
	d.canceled.Store(true)
}

// Run reads the input, probes its streams, and feeds every selected
// stream through its handler chain.
func (d *Demuxer) Run(ctx context.Context) error {
	data, err := fileio.ReadFileToString(d.input)
	if err != nil {
		return status.FileFailure("failed to read input %s: %v", d.input, err)
	}

	format := container.DetermineContainer(data)
	streams := probeStreams(format, data)

	if d.dumpStreamInfo {
		for _, s := range streams {
			d.logger.Info().
				Str("input", d.input).
				Str("kind", s.Kind.String()).
				Str("codec", s.Codec).
				Str("language", s.Language).
				Msg("stream info")
		}
	}

	// Deterministic dispatch order across runs.
	selectors := make([]string, 0, len(d.handlers))
	for selector := range d.handlers {
		selectors = append(selectors, selector)
	}
	sort.Strings(selectors)

	for _, selector := range selectors {
		handler := d.handlers[selector]
		info, err := MatchSelector(selector, streams)
		if err != nil {
			return status.InvalidArgument("%s: %v", d.input, err)
		}

		stream := info.Clone()
		stream.Selector = selector
		if lang, ok := d.langOverrides[selector]; ok {
			stream.Language = lang
		}
		if err := handler.Process(&Data{Kind: DataStreamInfo, Stream: stream}); err != nil {
			return err
		}

		if err := d.emitSamples(ctx, handler, data); err != nil {
			return err
		}
		if err := handler.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Demuxer) emitSamples(ctx context.Context, handler Handler, payload []byte) error {
	ts := int64(0)
	for offset := 0; offset < len(payload); offset += demuxChunkSize {
		if d.canceled.Load() {
			return context.Canceled
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		end := offset + demuxChunkSize
		if end > len(payload) {
			end = len(payload)
		}
		sample := &Sample{
			TimestampMs: ts,
			DurationMs:  demuxChunkDurMs,
			KeyFrame:    true,
			Payload:     payload[offset:end],
		}
		if err := handler.Process(&Data{Kind: DataSample, Sample: sample}); err != nil {
			return err
		}
		ts += demuxChunkDurMs
	}
	return nil
}

// probeStreams derives the stream layout of an input. MP4 inputs are
// parsed for their real track list; MPEG2-TS inputs map to one video and
// one audio stream; every other container carries a single elementary
// stream.
func probeStreams(format container.Format, data []byte) []*StreamInfo {
	switch format {
	case container.MP4:
		if streams := probeMP4(data); len(streams) > 0 {
			return streams
		}
		return []*StreamInfo{{Kind: KindVideo, Codec: "avc1"}}
	case container.MPEG2TS:
		return []*StreamInfo{
			{Kind: KindVideo, Codec: "avc1"},
			{Kind: KindAudio, Codec: "mp4a"},
		}
	case container.AAC:
		return []*StreamInfo{{Kind: KindAudio, Codec: "mp4a"}}
	case container.AC3:
		return []*StreamInfo{{Kind: KindAudio, Codec: "ac-3"}}
	case container.EAC3:
		return []*StreamInfo{{Kind: KindAudio, Codec: "ec-3"}}
	case container.WebVTT:
		return []*StreamInfo{{Kind: KindText, Codec: "wvtt"}}
	case container.TTML:
		return []*StreamInfo{{Kind: KindText, Codec: "ttml"}}
	default:
		return []*StreamInfo{{Kind: KindUnknown}}
	}
}

func probeMP4(data []byte) []*StreamInfo {
	parsed, err := mp4.DecodeFile(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	moov := parsed.Moov
	if moov == nil && parsed.Init != nil {
		moov = parsed.Init.Moov
	}
	if moov == nil {
		return nil
	}

	var streams []*StreamInfo
	for _, trak := range moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
			continue
		}
		info := &StreamInfo{}
		switch trak.Mdia.Hdlr.HandlerType {
		case "vide":
			info.Kind = KindVideo
			info.Codec = "avc1"
		case "soun":
			info.Kind = KindAudio
			info.Codec = "mp4a"
		case "text", "subt":
			info.Kind = KindText
			info.Codec = "wvtt"
		default:
			continue
		}
		if trak.Tkhd != nil {
			// tkhd stores dimensions as 16.16 fixed point.
			info.Width = int(trak.Tkhd.Width >> 16)
			info.Height = int(trak.Tkhd.Height >> 16)
		}
		if trak.Mdia.Mdhd != nil {
			info.Language = trak.Mdia.Mdhd.GetLanguage()
		}
		streams = append(streams, info)
	}
	return streams
}
