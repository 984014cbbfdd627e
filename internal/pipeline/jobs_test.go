package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avokadi/husk/internal/container"
	"github.com/avokadi/husk/internal/fileio"
	"github.com/avokadi/husk/internal/job"
	"github.com/avokadi/husk/internal/media"
	"github.com/avokadi/husk/internal/notify"
	"github.com/avokadi/husk/internal/status"
)

// s1Descriptors is the canonical on-demand DASH setup: one video, one
// audio, separate inputs.
func s1Descriptors() []StreamDescriptor {
	return []StreamDescriptor{
		{Input: "v.mp4", StreamSelector: "video", Output: "v_init.mp4", SegmentTemplate: "v_$Number$.m4s"},
		{Input: "a.mp4", StreamSelector: "audio", Output: "a_init.mp4", SegmentTemplate: "a_$Number$.m4s"},
	}
}

func countJobs(jobs []job.Status, name string) int {
	n := 0
	for _, j := range jobs {
		if j.Name == name {
			n++
		}
	}
	return n
}

func demuxerByInput(t *testing.T, manager *job.Manager, input string) *media.Demuxer {
	t.Helper()
	for _, origin := range manager.Origins() {
		if d, ok := origin.(*media.Demuxer); ok && d.Input() == input {
			return d
		}
	}
	t.Fatalf("no demuxer registered for %s", input)
	return nil
}

// replicatorOf walks a handler chain until it reaches the replicator.
func replicatorOf(t *testing.T, h media.Handler) *media.Replicator {
	t.Helper()
	for i := 0; i < 10 && h != nil; i++ {
		if r, ok := h.(*media.Replicator); ok {
			return r
		}
		next, ok := h.(interface{ Downstream() media.Handler })
		if !ok {
			break
		}
		h = next.Downstream()
	}
	t.Fatalf("no replicator reachable from %T", h)
	return nil
}

func TestOnDemandDashAssembly(t *testing.T) {
	params := NewPackagingParams()
	params.MpdParams.MpdOutput = "out.mpd"

	runtime, err := Build(params, s1Descriptors())
	if err != nil {
		t.Fatal(err)
	}

	manager := runtime.JobManager()
	if got := countJobs(manager.Jobs(), "RemuxJob"); got != 2 {
		t.Errorf("RemuxJob count = %d, want 2", got)
	}
	if runtime.MpdNotifier() == nil {
		t.Error("MPD notifier missing")
	}
	if runtime.HlsNotifier() != nil {
		t.Error("unexpected HLS notifier")
	}
	if manager.SyncPoints() != nil {
		t.Error("unexpected sync point queue")
	}

	// Each input has exactly one demuxer, each selector exactly one
	// replicator with a single muxer tail.
	for _, tc := range []struct{ input, selector string }{
		{"v.mp4", "video"},
		{"a.mp4", "audio"},
	} {
		demuxer := demuxerByInput(t, manager, tc.input)
		handler := demuxer.Handler(tc.selector)
		if handler == nil {
			t.Fatalf("no handler for %s:%s", tc.input, tc.selector)
		}
		if _, isChunker := handler.(*media.ChunkingHandler); !isChunker {
			t.Errorf("%s:%s: demuxer handler is %T, want chunker (no ad cues)", tc.input, tc.selector, handler)
		}
		if tails := replicatorOf(t, handler).Downstreams(); tails != 1 {
			t.Errorf("%s:%s: replicator has %d tails, want 1", tc.input, tc.selector, tails)
		}
	}
}

func TestTrickPlayAssembly(t *testing.T) {
	descriptors := append(s1Descriptors(),
		StreamDescriptor{Input: "v.mp4", StreamSelector: "video", Output: "t2_init.mp4",
			SegmentTemplate: "t2_$Number$.m4s", TrickPlayFactor: 2},
		StreamDescriptor{Input: "v.mp4", StreamSelector: "video", Output: "t4_init.mp4",
			SegmentTemplate: "t4_$Number$.m4s", TrickPlayFactor: 4},
	)

	params := NewPackagingParams()
	params.MpdParams.MpdOutput = "out.mpd"

	runtime, err := Build(params, descriptors)
	if err != nil {
		t.Fatal(err)
	}

	manager := runtime.JobManager()
	// Still only one demuxer per input.
	if got := countJobs(manager.Jobs(), "RemuxJob"); got != 2 {
		t.Errorf("RemuxJob count = %d, want 2", got)
	}

	// The shared (v.mp4, video) replicator fans into three tails:
	// main, factor 4, factor 2.
	demuxer := demuxerByInput(t, manager, "v.mp4")
	replicator := replicatorOf(t, demuxer.Handler("video"))
	if tails := replicator.Downstreams(); tails != 3 {
		t.Errorf("replicator has %d tails, want 3", tails)
	}
}

func TestTsWithInitSegmentRejected(t *testing.T) {
	params := NewPackagingParams()
	_, err := Build(params, []StreamDescriptor{
		{Input: "a.aac", StreamSelector: "0", Output: "init.ts", SegmentTemplate: "s_$Number$.ts"},
	})
	if !errors.Is(err, status.ErrInvalidArgument) {
		t.Errorf("Build() error = %v, want invalid argument", err)
	}
}

func TestAdCuedAssembly(t *testing.T) {
	params := NewPackagingParams()
	params.MpdParams.MpdOutput = "out.mpd"
	params.AdCueGeneratorParams.CuePoints = []float64{10, 20}

	runtime, err := Build(params, s1Descriptors())
	if err != nil {
		t.Fatal(err)
	}

	manager := runtime.JobManager()
	if manager.SyncPoints() == nil {
		t.Fatal("sync point queue missing")
	}

	// With ad cues every chain starts with a cue aligner.
	for _, tc := range []struct{ input, selector string }{
		{"v.mp4", "video"},
		{"a.mp4", "audio"},
	} {
		demuxer := demuxerByInput(t, manager, tc.input)
		handler := demuxer.Handler(tc.selector)
		aligner, ok := handler.(*media.CueAlignmentHandler)
		if !ok {
			t.Fatalf("%s:%s: demuxer handler is %T, want cue aligner", tc.input, tc.selector, handler)
		}
		if _, ok := aligner.Downstream().(*media.ChunkingHandler); !ok {
			t.Errorf("%s:%s: cue aligner feeds %T, want chunker", tc.input, tc.selector, aligner.Downstream())
		}
	}
}

func writeTestVtt(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "en.vtt")
	content := "WEBVTT\n\n00:00:00.000 --> 00:00:02.000\nHello\n\n00:00:03.000 --> 00:00:04.000\nWorld\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTextPassthroughToDash(t *testing.T) {
	dir := t.TempDir()
	input := writeTestVtt(t, dir)
	output := filepath.Join(dir, "out", "en.vtt")
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		t.Fatal(err)
	}

	params := NewPackagingParams()
	params.MpdParams.MpdOutput = filepath.Join(dir, "out.mpd")

	runtime, err := Build(params, []StreamDescriptor{
		{Input: input, StreamSelector: "text", Output: output, Language: "eng"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// The input was copied to the output.
	copied, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("output not copied: %v", err)
	}
	if container.DetermineContainer(copied) != container.WebVTT {
		t.Error("copied output is not WebVTT")
	}

	// The notifier saw one text container with sniffed codec and the
	// default bandwidth.
	notifier := runtime.MpdNotifier().(*notify.SimpleMpdNotifier)
	containers := notifier.Containers()
	if len(containers) != 1 {
		t.Fatalf("notifier has %d containers, want 1", len(containers))
	}
	info := containers[0]
	if info.ContainerType != notify.ContainerTypeText {
		t.Errorf("container type = %q", info.ContainerType)
	}
	if info.Text == nil || info.Text.Codec != "wvtt" {
		t.Errorf("text info = %+v, want codec wvtt", info.Text)
	}
	if info.Text.Language != "eng" {
		t.Errorf("language = %q, want eng", info.Text.Language)
	}
	if info.Bandwidth != defaultTextBandwidth {
		t.Errorf("bandwidth = %d, want %d", info.Bandwidth, defaultTextBandwidth)
	}

	// No jobs: passthrough happens during assembly.
	if len(runtime.JobManager().Jobs()) != 0 {
		t.Errorf("unexpected jobs: %v", runtime.JobManager().Jobs())
	}
}

func TestTextPassthroughMediaInfoDump(t *testing.T) {
	dir := t.TempDir()
	input := writeTestVtt(t, dir)
	output := filepath.Join(dir, "copy.vtt")

	params := NewPackagingParams()
	params.OutputMediaInfo = true

	if _, err := Build(params, []StreamDescriptor{
		{Input: input, StreamSelector: "text", Output: output, Bandwidth: 9000},
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(output + ".media_info"); err != nil {
		t.Errorf("missing media info sidecar: %v", err)
	}
}

func TestSegmentedTextForHls(t *testing.T) {
	dir := t.TempDir()
	input := writeTestVtt(t, dir)

	params := NewPackagingParams()
	params.HlsParams.MasterPlaylistOutput = filepath.Join(dir, "m.m3u8")

	runtime, err := Build(params, []StreamDescriptor{
		{Input: input, StreamSelector: "text", SegmentTemplate: filepath.Join(dir, "en_$Number$.vtt")},
	})
	if err != nil {
		t.Fatal(err)
	}

	jobs := runtime.JobManager().Jobs()
	if countJobs(jobs, "Segmented Text Job") != 1 {
		t.Errorf("jobs = %v, want one Segmented Text Job", jobs)
	}
	if runtime.HlsNotifier() == nil {
		t.Error("HLS notifier missing")
	}
}

func TestSegmentedTextForMpdRejected(t *testing.T) {
	dir := t.TempDir()
	input := writeTestVtt(t, dir)

	params := NewPackagingParams()
	params.MpdParams.MpdOutput = filepath.Join(dir, "out.mpd")

	_, err := Build(params, []StreamDescriptor{
		{Input: input, StreamSelector: "text", SegmentTemplate: filepath.Join(dir, "en_$Number$.vtt")},
	})
	if !errors.Is(err, status.ErrInvalidArgument) {
		t.Errorf("Build() error = %v, want invalid argument", err)
	}
}

func TestWebVttToMp4TextJob(t *testing.T) {
	dir := t.TempDir()
	input := writeTestVtt(t, dir)

	params := NewPackagingParams()
	runtime, err := Build(params, []StreamDescriptor{
		{Input: input, StreamSelector: "text", Output: filepath.Join(dir, "en.mp4")},
	})
	if err != nil {
		t.Fatal(err)
	}

	jobs := runtime.JobManager().Jobs()
	if countJobs(jobs, "MP4 text job") != 1 {
		t.Errorf("jobs = %v, want one MP4 text job", jobs)
	}
}

func TestMp4TextInputRejected(t *testing.T) {
	params := NewPackagingParams()
	_, err := Build(params, []StreamDescriptor{
		{Input: "subs.mp4", StreamSelector: "text", Output: "out.vtt"},
	})
	if !errors.Is(err, status.ErrInvalidArgument) {
		t.Fatalf("Build() error = %v, want invalid argument", err)
	}
	if !strings.Contains(err.Error(), "text output format is not support for subs.mp4") {
		t.Errorf("Build() error = %q, want the text-output-format message", err)
	}
}

func TestUnknownLanguageRejected(t *testing.T) {
	params := NewPackagingParams()
	descriptors := s1Descriptors()
	descriptors[0].Language = "klingon"

	_, err := Build(params, descriptors)
	if !errors.Is(err, status.ErrInvalidArgument) {
		t.Errorf("Build() error = %v, want invalid argument", err)
	}
}

func TestBufferCallbackRewriting(t *testing.T) {
	vtt := "WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nhi\n"
	written := map[string][]byte{}
	cb := &fileio.BufferCallbackParams{
		Read: func(name string) ([]byte, error) {
			return []byte(vtt), nil
		},
		Write: func(name string, data []byte) error {
			written[name] = data
			return nil
		},
	}

	params := NewPackagingParams()
	params.BufferCallbackParams = cb

	_, err := Build(params, []StreamDescriptor{
		{Input: "in.vtt", StreamSelector: "text", Output: "out.vtt"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// The passthrough copy must have gone through the callbacks.
	if string(written["out.vtt"]) != vtt {
		t.Errorf("write callback received %q", written["out.vtt"])
	}
}

func TestEndToEndOnDemandRun(t *testing.T) {
	dir := t.TempDir()

	// A minimal input that sniffs as MP4.
	input := filepath.Join(dir, "v.mp4")
	header := []byte{0, 0, 0, 0x1C, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0, 0, 0, 0}
	payload := append(header, []byte("not real media, but enough to package")...)
	if err := os.WriteFile(input, payload, 0644); err != nil {
		t.Fatal(err)
	}

	output := filepath.Join(dir, "out.mp4")
	params := NewPackagingParams()
	params.MpdParams.MpdOutput = filepath.Join(dir, "out.mpd")
	params.TestParams.InjectFakeClock = true

	runtime, err := Build(params, []StreamDescriptor{
		{Input: input, StreamSelector: "video", Output: output},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := runtime.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if container.DetermineContainer(data) != container.MP4 {
		t.Error("output does not sniff as MP4")
	}

	notifier := runtime.MpdNotifier().(*notify.SimpleMpdNotifier)
	if len(notifier.Containers()) != 1 {
		t.Errorf("notifier has %d containers, want 1", len(notifier.Containers()))
	}
}
