// Package notify carries manifest notifications out of the pipeline.
// Muxer listeners report finished containers here; manifest
// serialization itself happens outside the packager.
package notify

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/avokadi/husk/internal/status"
)

// VideoInfo describes the video track of a container.
type VideoInfo struct {
	Codec  string `json:"codec,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// AudioInfo describes the audio track of a container.
type AudioInfo struct {
	Codec    string `json:"codec,omitempty"`
	Language string `json:"language,omitempty"`
}

// TextInfo describes the text track of a container.
type TextInfo struct {
	Codec    string `json:"codec,omitempty"`
	Language string `json:"language,omitempty"`
}

// MediaInfo describes one output container for manifest generation.
type MediaInfo struct {
	MediaFileName    string     `json:"media_file_name,omitempty"`
	SegmentTemplate  string     `json:"segment_template,omitempty"`
	ContainerType    string     `json:"container_type,omitempty"`
	Bandwidth        uint32     `json:"bandwidth,omitempty"`
	Video            *VideoInfo `json:"video_info,omitempty"`
	Audio            *AudioInfo `json:"audio_info,omitempty"`
	Text             *TextInfo  `json:"text_info,omitempty"`
	ProtectedContent bool       `json:"protected_content,omitempty"`
}

// ContainerTypeText marks single-file text containers.
const ContainerTypeText = "text"

// MpdNotifier receives DASH container notifications.
type MpdNotifier interface {
	Init() error
	NotifyNewContainer(info MediaInfo) (uint32, error)
	Flush() error
}

// HlsNotifier receives HLS events; playlists are written on Flush.
type HlsNotifier interface {
	Flush() error
}

// MpdOptions configures the DASH notifier.
type MpdOptions struct {
	OnDemandProfile          bool
	MpdOutput                string
	DefaultLanguage          string
	TargetSegmentDurationSec float64
}

// SimpleMpdNotifier collects container notifications for one MPD output.
type SimpleMpdNotifier struct {
	opts   MpdOptions
	logger zerolog.Logger

	mu         sync.Mutex
	containers []MediaInfo
	nextID     uint32
}

// NewSimpleMpdNotifier creates a DASH notifier.
func NewSimpleMpdNotifier(opts MpdOptions, logger zerolog.Logger) *SimpleMpdNotifier {
	return &SimpleMpdNotifier{opts: opts, logger: logger}
}

// Init prepares the notifier before assembly.
func (n *SimpleMpdNotifier) Init() error {
	if n.opts.MpdOutput == "" {
		return status.InvalidArgument("mpd output not specified")
	}
	return nil
}

// NotifyNewContainer registers one container and returns its id.
func (n *SimpleMpdNotifier) NotifyNewContainer(info MediaInfo) (uint32, error) {
	if info.MediaFileName == "" && info.SegmentTemplate == "" {
		return 0, status.ParserFailure("container has no media file name")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.containers = append(n.containers, info)
	return id, nil
}

// Containers returns a snapshot of everything notified so far.
func (n *SimpleMpdNotifier) Containers() []MediaInfo {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]MediaInfo, len(n.containers))
	copy(out, n.containers)
	return out
}

// Flush logs a summary of the collected containers; it writes no MPD
// file.
func (n *SimpleMpdNotifier) Flush() error {
	n.mu.Lock()
	count := len(n.containers)
	n.mu.Unlock()
	n.logger.Info().
		Str("output", n.opts.MpdOutput).
		Int("containers", count).
		Bool("on_demand", n.opts.OnDemandProfile).
		Msg("flushing MPD")
	return nil
}

// HlsOptions configures the HLS notifier.
type HlsOptions struct {
	MasterPlaylistOutput string
	DefaultLanguage      string
}

// SimpleHlsNotifier collects HLS events for one master playlist.
type SimpleHlsNotifier struct {
	opts   HlsOptions
	logger zerolog.Logger
}

// NewSimpleHlsNotifier creates an HLS notifier.
func NewSimpleHlsNotifier(opts HlsOptions, logger zerolog.Logger) *SimpleHlsNotifier {
	return &SimpleHlsNotifier{opts: opts, logger: logger}
}

// Flush logs the master playlist output; it writes no playlist files.
func (n *SimpleHlsNotifier) Flush() error {
	n.logger.Info().
		Str("output", n.opts.MasterPlaylistOutput).
		Msg("flushing HLS playlists")
	return nil
}
