package media

import (
	"fmt"
	"strconv"
)

// MatchSelector resolves a stream selector against the streams found in
// an input. Selectors are a stream kind name ("audio", "video", "text")
// or a zero-based stream index.
func MatchSelector(selector string, streams []*StreamInfo) (*StreamInfo, error) {
	switch selector {
	case "audio", "video", "text":
		for _, s := range streams {
			if s.Kind.String() == selector {
				return s, nil
			}
		}
		return nil, fmt.Errorf("no %s stream found", selector)
	}

	index, err := strconv.Atoi(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid stream selector %q", selector)
	}
	if index < 0 || index >= len(streams) {
		return nil, fmt.Errorf("stream index %d out of range (have %d streams)", index, len(streams))
	}
	return streams[index], nil
}
