package husk

import (
	"strconv"
	"strings"

	"github.com/avokadi/husk/internal/status"
)

// ParseStreamDescriptor parses the CLI form of a stream descriptor:
// comma-separated key=value pairs, e.g.
//
//	"input=v.mp4,stream=video,init_segment=v_init.mp4,segment_template=v_$Number$.m4s"
func ParseStreamDescriptor(spec string) (StreamDescriptor, error) {
	var d StreamDescriptor
	if strings.TrimSpace(spec) == "" {
		return d, status.InvalidArgument("empty stream descriptor")
	}

	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return d, status.InvalidArgument("invalid stream descriptor field %q", pair)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "input", "in":
			d.Input = value
		case "stream_selector", "stream":
			d.StreamSelector = value
		case "output", "init_segment", "out":
			d.Output = value
		case "segment_template", "segment":
			d.SegmentTemplate = value
		case "format", "output_format":
			d.OutputFormat = value
		case "language", "lang":
			d.Language = value
		case "bandwidth", "bw":
			bw, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return d, status.InvalidArgument("invalid bandwidth %q", value)
			}
			d.Bandwidth = uint32(bw)
		case "trick_play_factor", "tpf":
			factor, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return d, status.InvalidArgument("invalid trick_play_factor %q", value)
			}
			d.TrickPlayFactor = uint32(factor)
		case "skip_encryption":
			skip, err := strconv.ParseBool(value)
			if err != nil {
				return d, status.InvalidArgument("invalid skip_encryption %q", value)
			}
			d.SkipEncryption = skip
		case "drm_label":
			d.DrmLabel = value
		case "hls_group_id":
			d.HlsGroupID = value
		case "hls_name":
			d.HlsName = value
		case "playlist_name", "hls_playlist_name":
			d.HlsPlaylistName = value
		case "iframe_playlist_name", "hls_iframe_playlist_name":
			d.HlsIframePlaylistName = value
		default:
			return d, status.InvalidArgument("unknown stream descriptor field %q", key)
		}
	}

	return d, nil
}
