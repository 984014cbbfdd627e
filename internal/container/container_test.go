package container

import "testing"

func TestDetermineContainer(t *testing.T) {
	tsData := make([]byte, 189)
	tsData[0] = 0x47
	tsData[188] = 0x47

	tests := []struct {
		name     string
		data     []byte
		expected Format
	}{
		{"webvtt", []byte("WEBVTT\n\n00:00.000 --> 00:01.000\nhi\n"), WebVTT},
		{"webvtt with bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("WEBVTT\n")...), WebVTT},
		{"ttml", []byte(`<?xml version="1.0"?><tt xmlns="http://www.w3.org/ns/ttml"></tt>`), TTML},
		{"bare ttml root", []byte(`<tt xmlns="http://www.w3.org/ns/ttml"/>`), TTML},
		{"mp4", []byte{0, 0, 0, 0x1C, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'}, MP4},
		{"mpeg2ts", tsData, MPEG2TS},
		{"aac adts", []byte{0xFF, 0xF1, 0x50, 0x80, 0x00, 0x1F, 0xFC}, AAC},
		{"ac3", []byte{0x0B, 0x77, 0x10, 0x40, 0x2F, 0x40}, AC3},
		{"eac3", []byte{0x0B, 0x77, 0x10, 0x40, 0x2F, 0x80}, EAC3},
		{"empty", nil, Unknown},
		{"garbage", []byte("not a media file"), Unknown},
	}

	for _, tt := range tests {
		if got := DetermineContainer(tt.data); got != tt.expected {
			t.Errorf("%s: DetermineContainer() = %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func TestDetermineContainerFromFileName(t *testing.T) {
	tests := []struct {
		name     string
		expected Format
	}{
		{"video.mp4", MP4},
		{"seg_$Number$.m4s", MP4},
		{"out.MOV", MP4},
		{"seg_$Number$.ts", MPEG2TS},
		{"sub.vtt", WebVTT},
		{"sub.ttml", TTML},
		{"audio.aac", AAC},
		{"audio.ac3", AC3},
		{"audio.ec3", EAC3},
		{"noext", Unknown},
		{"file.xyz", Unknown},
	}

	for _, tt := range tests {
		if got := DetermineContainerFromFileName(tt.name); got != tt.expected {
			t.Errorf("DetermineContainerFromFileName(%q) = %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func TestDetermineContainerFromFormatName(t *testing.T) {
	tests := []struct {
		name     string
		expected Format
	}{
		{"mp4", MP4},
		{"MP4", MP4},
		{"mov", MP4},
		{"mp2t", MPEG2TS},
		{"webvtt", WebVTT},
		{"vtt", WebVTT},
		{"aac", AAC},
		{"", Unknown},
		{"mkv", Unknown},
	}

	for _, tt := range tests {
		if got := DetermineContainerFromFormatName(tt.name); got != tt.expected {
			t.Errorf("DetermineContainerFromFormatName(%q) = %v, want %v", tt.name, got, tt.expected)
		}
	}
}
