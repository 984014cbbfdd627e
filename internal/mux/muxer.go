package mux

import (
	"bytes"
	"fmt"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/avokadi/husk/internal/container"
	"github.com/avokadi/husk/internal/fileio"
	"github.com/avokadi/husk/internal/media"
	"github.com/avokadi/husk/internal/notify"
	"github.com/avokadi/husk/internal/status"
)

// Mp4Params tunes fragmented-MP4 output.
type Mp4Params struct {
	IncludePsshInStream   bool
	NumSubsegmentsPerSidx int32
}

// Options configures one muxer instance.
type Options struct {
	Mp4Params       Mp4Params
	TempDir         string
	Bandwidth       uint32
	OutputFileName  string
	SegmentTemplate string
}

// Muxer is the sink of a pipeline chain.
type Muxer interface {
	media.Handler
	SetMuxerListener(Listener)
}

// formatWriter supplies the container-specific parts of muxing.
type formatWriter interface {
	// initSegment renders initialization data, or nil for
	// self-initializing containers.
	initSegment(info *media.StreamInfo) ([]byte, error)

	// wrapSegment renders one finished segment.
	wrapSegment(samples []*media.Sample, seq uint32) ([]byte, error)
}

// muxer drives a formatWriter from pipeline messages.
type muxer struct {
	opts     Options
	format   container.Format
	fw       formatWriter
	clock    Clock
	listener Listener

	stream    *media.StreamInfo
	samples   []*media.Sample
	single    bytes.Buffer
	initData  []byte
	seq       uint32
	totalSize uint64
}

func (m *muxer) SetMuxerListener(l Listener) {
	m.listener = l
}

func (m *muxer) AddDownstream(media.Handler) error {
	return fmt.Errorf("muxer is a sink")
}

func (m *muxer) segmented() bool {
	return m.opts.SegmentTemplate != ""
}

func (m *muxer) Process(d *media.Data) error {
	switch d.Kind {
	case media.DataStreamInfo:
		m.stream = d.Stream
		init, err := m.fw.initSegment(d.Stream)
		if err != nil {
			return err
		}
		m.initData = init
		if m.listener != nil {
			m.listener.OnMediaStart(d.Stream)
		}
		// Multi-segment output stores the init segment at the output
		// path right away; single-file output keeps it for Flush.
		if m.segmented() && len(init) > 0 && m.opts.OutputFileName != "" {
			if err := fileio.WriteFile(m.opts.OutputFileName, init); err != nil {
				return status.FileFailure("failed to write init segment %s: %v", m.opts.OutputFileName, err)
			}
		}
		return nil

	case media.DataSample:
		m.samples = append(m.samples, d.Sample)
		return nil

	case media.DataSegmentInfo:
		if d.Segment.IsSubsegment || len(m.samples) == 0 {
			return nil
		}
		return m.finishSegment(d.Segment)

	default:
		return nil
	}
}

func (m *muxer) finishSegment(seg *media.SegmentInfo) error {
	m.seq++
	data, err := m.fw.wrapSegment(m.samples, m.seq)
	if err != nil {
		return err
	}
	m.samples = m.samples[:0]
	m.totalSize += uint64(len(data))

	if m.segmented() {
		name := FillTemplate(m.opts.SegmentTemplate, m.seq, seg.StartMs, "", m.opts.Bandwidth)
		if err := fileio.WriteFile(name, data); err != nil {
			return status.FileFailure("failed to write segment %s: %v", name, err)
		}
		if m.listener != nil {
			m.listener.OnNewSegment(name, seg.StartMs, seg.DurationMs, uint64(len(data)))
		}
		return nil
	}

	m.single.Write(data)
	return nil
}

func (m *muxer) Flush() error {
	if m.stream == nil {
		return nil
	}
	// Whatever samples remain form the final segment.
	if len(m.samples) > 0 {
		if err := m.finishSegment(&media.SegmentInfo{}); err != nil {
			return err
		}
	}

	if !m.segmented() && m.opts.OutputFileName != "" {
		out := make([]byte, 0, len(m.initData)+m.single.Len())
		out = append(out, m.initData...)
		out = append(out, m.single.Bytes()...)
		if err := fileio.WriteFile(m.opts.OutputFileName, out); err != nil {
			return status.FileFailure("failed to write output %s: %v", m.opts.OutputFileName, err)
		}
	}

	if m.listener != nil {
		return m.listener.OnMediaEnd(m.mediaInfo())
	}
	return nil
}

func (m *muxer) mediaInfo() notify.MediaInfo {
	info := notify.MediaInfo{
		MediaFileName:    m.opts.OutputFileName,
		SegmentTemplate:  m.opts.SegmentTemplate,
		ContainerType:    m.format.String(),
		Bandwidth:        m.opts.Bandwidth,
		ProtectedContent: m.stream.Encrypted,
	}
	switch m.stream.Kind {
	case media.KindVideo:
		info.Video = &notify.VideoInfo{
			Codec:  m.stream.Codec,
			Width:  m.stream.Width,
			Height: m.stream.Height,
		}
	case media.KindAudio:
		info.Audio = &notify.AudioInfo{Codec: m.stream.Codec, Language: m.stream.Language}
	case media.KindText:
		info.Text = &notify.TextInfo{Codec: m.stream.Codec, Language: m.stream.Language}
	}
	return info
}

const (
	mp4Timescale = 1000

	// AddEmptyTrack numbers the single track from 1.
	mp4TrackID = 1

	// Seconds between the ISO-BMFF epoch (1904) and the Unix epoch.
	mp4EpochOffset = 2082844800
)

// mp4Writer renders fragmented MP4 via mp4ff.
type mp4Writer struct {
	params Mp4Params
	clock  Clock
}

func (w *mp4Writer) initSegment(info *media.StreamInfo) ([]byte, error) {
	init := mp4.CreateEmptyInit()
	lang := info.Language
	if lang == "" {
		lang = "und"
	}
	init.AddEmptyTrack(mp4Timescale, mediaTypeOf(info.Kind), lang)

	created := uint64(w.clock.Now().Unix() + mp4EpochOffset)
	init.Moov.Mvhd.CreationTime = created
	init.Moov.Mvhd.ModificationTime = created

	var buf bytes.Buffer
	if err := init.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func mediaTypeOf(kind media.StreamKind) string {
	switch kind {
	case media.KindAudio:
		return "audio"
	case media.KindText:
		return "subtitle"
	default:
		return "video"
	}
}

func (w *mp4Writer) wrapSegment(samples []*media.Sample, seq uint32) ([]byte, error) {
	frag, err := mp4.CreateFragment(seq, mp4TrackID)
	if err != nil {
		return nil, err
	}
	for _, s := range samples {
		flags := mp4.NonSyncSampleFlags
		if s.KeyFrame {
			flags = mp4.SyncSampleFlags
		}
		payload := s.Payload
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: flags,
				Dur:   uint32(s.DurationMs),
				Size:  uint32(len(payload)),
			},
			DecodeTime: uint64(s.TimestampMs),
			Data:       payload,
		})
	}

	var buf bytes.Buffer
	if err := frag.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// rawWriter concatenates sample payloads without container framing. It
// serves the self-initializing formats: MPEG2-TS segments carry their
// own PSI and packed audio frames are self-describing.
type rawWriter struct{}

func (rawWriter) initSegment(*media.StreamInfo) ([]byte, error) { return nil, nil }

func (rawWriter) wrapSegment(samples []*media.Sample, _ uint32) ([]byte, error) {
	var buf bytes.Buffer
	for _, s := range samples {
		buf.Write(s.Payload)
	}
	return buf.Bytes(), nil
}
