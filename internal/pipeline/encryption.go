package pipeline

import (
	"github.com/avokadi/husk/internal/container"
	"github.com/avokadi/husk/internal/drm"
	"github.com/avokadi/husk/internal/media"
	"github.com/avokadi/husk/internal/mux"
)

// Default pixel-count thresholds for the SD/HD/UHD1 stream labels.
const (
	defaultMaxSDPixels   = 768 * 576
	defaultMaxHDPixels   = 1920 * 1080
	defaultMaxUHD1Pixels = 4096 * 2160
)

// DefaultStreamLabelFunction labels audio streams "AUDIO" and video
// streams "SD", "HD", "UHD1", or "UHD2" by pixel count against the
// given thresholds. Everything else gets an empty label.
func DefaultStreamLabelFunction(maxSDPixels, maxHDPixels, maxUHD1Pixels int,
	attrs drm.EncryptedStreamAttributes) string {
	switch attrs.Type {
	case drm.StreamTypeAudio:
		return "AUDIO"
	case drm.StreamTypeVideo:
		pixels := attrs.Width * attrs.Height
		switch {
		case pixels <= maxSDPixels:
			return "SD"
		case pixels <= maxHDPixels:
			return "HD"
		case pixels <= maxUHD1Pixels:
			return "UHD1"
		default:
			return "UHD2"
		}
	}
	return ""
}

// createEncryptionHandler builds the encryptor for one stream, or nil
// when the stream skips encryption or no key source is configured.
func createEncryptionHandler(params *PackagingParams, stream *StreamDescriptor,
	keySource drm.KeySource) (media.Handler, error) {
	if stream.SkipEncryption || keySource == nil {
		return nil, nil
	}

	// Copy so per-stream adjustments do not leak into other streams.
	encryptionParams := params.EncryptionParams

	// MPEG2-TS and packed audio always use Apple Sample-AES.
	switch OutputFormat(params.Logger, stream) {
	case container.MPEG2TS, container.AAC, container.AC3, container.EAC3:
		params.Logger.Debug().
			Str("input", stream.Input).
			Str("selector", stream.StreamSelector).
			Msg("using Apple Sample-AES for MPEG2-TS or packed audio")
		encryptionParams.ProtectionScheme = drm.AppleSampleAES
	}

	labelFunc := encryptionParams.StreamLabelFunc
	if stream.DrmLabel != "" {
		label := stream.DrmLabel
		labelFunc = func(drm.EncryptedStreamAttributes) string { return label }
	} else if labelFunc == nil {
		labelFunc = func(attrs drm.EncryptedStreamAttributes) string {
			return DefaultStreamLabelFunction(
				defaultMaxSDPixels, defaultMaxHDPixels, defaultMaxUHD1Pixels, attrs)
		}
	}

	return media.NewEncryptionHandler(media.EncryptionConfig{
		Scheme:    encryptionParams.ProtectionScheme,
		KeySource: keySource,
		LabelFunc: labelFunc,
	})
}

// muxerOptionsFor converts a descriptor plus packaging params into the
// options one muxer needs.
func muxerOptionsFor(params *PackagingParams, stream *StreamDescriptor) mux.Options {
	return mux.Options{
		Mp4Params:       params.Mp4OutputParams,
		TempDir:         params.TempDir,
		Bandwidth:       stream.Bandwidth,
		OutputFileName:  stream.Output,
		SegmentTemplate: stream.SegmentTemplate,
	}
}

// toMuxerListenerData extracts the listener-facing fields of a
// descriptor.
func toMuxerListenerData(stream *StreamDescriptor) mux.StreamData {
	return mux.StreamData{
		MediaInfoOutput:       stream.Output,
		HlsGroupID:            stream.HlsGroupID,
		HlsName:               stream.HlsName,
		HlsPlaylistName:       stream.HlsPlaylistName,
		HlsIframePlaylistName: stream.HlsIframePlaylistName,
	}
}
