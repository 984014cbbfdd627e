// Package container identifies media container formats from content,
// file names, and format names.
package container

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Format represents a media container format.
type Format int

const (
	Unknown Format = iota
	MP4
	MPEG2TS
	WebVTT
	TTML
	AAC
	AC3
	EAC3
)

func (f Format) String() string {
	switch f {
	case MP4:
		return "mp4"
	case MPEG2TS:
		return "mpeg2ts"
	case WebVTT:
		return "webvtt"
	case TTML:
		return "ttml"
	case AAC:
		return "aac"
	case AC3:
		return "ac3"
	case EAC3:
		return "eac3"
	default:
		return "unknown"
	}
}

const tsPacketSize = 188

// DetermineContainer sniffs the container format from raw content.
// Detection is by magic bytes, never by file extension.
func DetermineContainer(data []byte) Format {
	if len(data) == 0 {
		return Unknown
	}

	// UTF-8 BOM is allowed in front of text formats.
	trimmed := bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	if bytes.HasPrefix(trimmed, []byte("WEBVTT")) {
		return WebVTT
	}
	if isTTML(trimmed) {
		return TTML
	}
	if len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) {
		return MP4
	}
	if isTransportStream(data) {
		return MPEG2TS
	}
	if len(data) >= 2 {
		// ADTS sync word: 12 set bits.
		if data[0] == 0xFF && data[1]&0xF6 == 0xF0 {
			return AAC
		}
		// (E-)AC-3 sync word.
		if data[0] == 0x0B && data[1] == 0x77 {
			if isEnhancedAC3(data) {
				return EAC3
			}
			return AC3
		}
	}
	return Unknown
}

func isTTML(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if !bytes.HasPrefix(head, []byte("<?xml")) && !bytes.HasPrefix(head, []byte("<tt")) {
		return false
	}
	return bytes.Contains(head, []byte("<tt"))
}

func isTransportStream(data []byte) bool {
	if len(data) < tsPacketSize+1 || data[0] != 0x47 {
		return false
	}
	return data[tsPacketSize] == 0x47
}

// isEnhancedAC3 inspects the bsid field (5 bits at offset 5.3) which is
// 11..16 for E-AC-3 frames.
func isEnhancedAC3(data []byte) bool {
	if len(data) < 6 {
		return false
	}
	bsid := data[5] >> 3
	return bsid > 10 && bsid <= 16
}

// DetermineContainerFromFileName maps a file extension to a container format.
func DetermineContainerFromFileName(name string) Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch ext {
	case "mp4", "m4s", "m4a", "m4v", "mov":
		return MP4
	case "ts", "m2t", "m2ts":
		return MPEG2TS
	case "vtt", "webvtt":
		return WebVTT
	case "ttml":
		return TTML
	case "aac":
		return AAC
	case "ac3":
		return AC3
	case "ec3", "eac3":
		return EAC3
	default:
		return Unknown
	}
}

// DetermineContainerFromFormatName maps an explicit format name, as given
// on a stream descriptor, to a container format.
func DetermineContainerFromFormatName(name string) Format {
	switch strings.ToLower(name) {
	case "mp4", "fmp4", "mov":
		return MP4
	case "ts", "mp2t", "mpeg2ts":
		return MPEG2TS
	case "vtt", "webvtt":
		return WebVTT
	case "ttml":
		return TTML
	case "aac":
		return AAC
	case "ac3":
		return AC3
	case "ec3", "eac3":
		return EAC3
	default:
		return Unknown
	}
}
