package husk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testDescriptors() []StreamDescriptor {
	return []StreamDescriptor{
		{Input: "v.mp4", StreamSelector: "video", Output: "v_init.mp4", SegmentTemplate: "v_$Number$.m4s"},
	}
}

func TestInitializeTwiceFails(t *testing.T) {
	p := New()
	params := NewPackagingParams()

	if err := p.Initialize(params, testDescriptors()); err != nil {
		t.Fatal(err)
	}
	err := p.Initialize(params, testDescriptors())
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("second Initialize error = %v, want invalid argument", err)
	}
}

func TestInitializeFailureLeavesNoState(t *testing.T) {
	p := New()
	params := NewPackagingParams()

	// Invalid descriptor set: nothing may be committed.
	if err := p.Initialize(params, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Initialize error = %v, want invalid argument", err)
	}
	if p.Jobs() != nil {
		t.Error("failed Initialize committed state")
	}

	// A later valid Initialize must succeed.
	if err := p.Initialize(params, testDescriptors()); err != nil {
		t.Errorf("Initialize after failure: %v", err)
	}
}

func TestRunRequiresInitialize(t *testing.T) {
	p := New()
	if err := p.Run(context.Background()); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Run error = %v, want invalid argument", err)
	}
}

func TestCancelBeforeInitializeIsNoOp(t *testing.T) {
	New().Cancel()
}

func TestInjectedLibraryVersion(t *testing.T) {
	p := New()
	params := NewPackagingParams()
	params.TestParams.InjectedLibraryVersion = "test-version"

	if err := p.Initialize(params, testDescriptors()); err != nil {
		t.Fatal(err)
	}
	if got := GetLibraryVersion(); got != "test-version" {
		t.Errorf("GetLibraryVersion() = %q, want injected version", got)
	}
}

func TestPackagerRunTextPassthrough(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "en.vtt")
	if err := os.WriteFile(input, []byte("WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nhi\n"), 0644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "copy.vtt")

	p := New()
	if err := p.Initialize(NewPackagingParams(), []StreamDescriptor{
		{Input: input, StreamSelector: "text", Output: output},
	}); err != nil {
		t.Fatal(err)
	}
	if err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("passthrough output missing: %v", err)
	}
}

func TestDefaultStreamLabelFunctionExported(t *testing.T) {
	attrs := EncryptedStreamAttributes{Type: 1} // audio
	if got := DefaultStreamLabelFunction(1, 2, 3, attrs); got != "AUDIO" {
		t.Errorf("label = %q, want AUDIO", got)
	}
}

func TestParseStreamDescriptor(t *testing.T) {
	tests := []struct {
		spec     string
		expected StreamDescriptor
		wantErr  bool
	}{
		{
			"input=v.mp4,stream=video,init_segment=v_init.mp4,segment_template=v_$Number$.m4s",
			StreamDescriptor{Input: "v.mp4", StreamSelector: "video", Output: "v_init.mp4", SegmentTemplate: "v_$Number$.m4s"},
			false,
		},
		{
			"input=a.mp4,stream=audio,output=a.m4a,lang=en,bw=128000",
			StreamDescriptor{Input: "a.mp4", StreamSelector: "audio", Output: "a.m4a", Language: "en", Bandwidth: 128000},
			false,
		},
		{
			"input=v.mp4,stream=video,output=t.mp4,trick_play_factor=2,skip_encryption=true,drm_label=HD",
			StreamDescriptor{Input: "v.mp4", StreamSelector: "video", Output: "t.mp4",
				TrickPlayFactor: 2, SkipEncryption: true, DrmLabel: "HD"},
			false,
		},
		{"", StreamDescriptor{}, true},
		{"input", StreamDescriptor{}, true},
		{"unknown_key=x", StreamDescriptor{}, true},
		{"input=v.mp4,bw=abc", StreamDescriptor{}, true},
	}

	for _, tt := range tests {
		got, err := ParseStreamDescriptor(tt.spec)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStreamDescriptor(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.expected {
			t.Errorf("ParseStreamDescriptor(%q) = %+v, want %+v", tt.spec, got, tt.expected)
		}
	}
}
