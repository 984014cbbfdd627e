package mux

import (
	"encoding/json"

	"github.com/avokadi/husk/internal/fileio"
	"github.com/avokadi/husk/internal/media"
	"github.com/avokadi/husk/internal/notify"
	"github.com/avokadi/husk/internal/status"
)

// mediaInfoSuffix names the sidecar written next to on-demand outputs.
const mediaInfoSuffix = ".media_info"

// Listener observes muxer lifecycle events and forwards finished
// containers to the manifest notifiers.
type Listener interface {
	OnMediaStart(info *media.StreamInfo)
	OnNewSegment(name string, startMs, durationMs int64, size uint64)
	OnMediaEnd(info notify.MediaInfo) error
}

// StreamData carries the per-descriptor fields a listener needs.
type StreamData struct {
	MediaInfoOutput       string
	HlsGroupID            string
	HlsName               string
	HlsPlaylistName       string
	HlsIframePlaylistName string
}

// ListenerFactory builds listeners bound to the run's notifiers.
type ListenerFactory struct {
	outputMediaInfo bool
	mpd             notify.MpdNotifier
	hls             notify.HlsNotifier
}

// NewListenerFactory creates a listener factory. Either notifier may be
// nil.
func NewListenerFactory(outputMediaInfo bool, mpd notify.MpdNotifier, hls notify.HlsNotifier) *ListenerFactory {
	return &ListenerFactory{outputMediaInfo: outputMediaInfo, mpd: mpd, hls: hls}
}

// CreateListener builds the listener for one output stream.
func (f *ListenerFactory) CreateListener(data StreamData) Listener {
	return &notifyingListener{
		data:            data,
		outputMediaInfo: f.outputMediaInfo,
		mpd:             f.mpd,
		hls:             f.hls,
	}
}

// CreateHlsListener builds an HLS-only listener, or nil when no HLS
// notifier is configured.
func (f *ListenerFactory) CreateHlsListener(data StreamData) Listener {
	if f.hls == nil {
		return nil
	}
	return &notifyingListener{data: data, hls: f.hls}
}

// HasHls reports whether HLS output is configured.
func (f *ListenerFactory) HasHls() bool {
	return f.hls != nil
}

type notifyingListener struct {
	data            StreamData
	outputMediaInfo bool
	mpd             notify.MpdNotifier
	hls             notify.HlsNotifier

	segments int
}

func (l *notifyingListener) OnMediaStart(*media.StreamInfo) {}

func (l *notifyingListener) OnNewSegment(string, int64, int64, uint64) {
	l.segments++
}

func (l *notifyingListener) OnMediaEnd(info notify.MediaInfo) error {
	if l.mpd != nil {
		if _, err := l.mpd.NotifyNewContainer(info); err != nil {
			return err
		}
	}
	if l.outputMediaInfo && l.data.MediaInfoOutput != "" {
		if err := WriteMediaInfoToFile(info, l.data.MediaInfoOutput+mediaInfoSuffix); err != nil {
			return err
		}
	}
	return nil
}

// WriteMediaInfoToFile dumps a MediaInfo sidecar as indented JSON.
func WriteMediaInfoToFile(info notify.MediaInfo, path string) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	if err := fileio.WriteFile(path, data); err != nil {
		return status.FileFailure("failed to write %s: %v", path, err)
	}
	return nil
}
