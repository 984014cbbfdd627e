// Package text implements the WebVTT pipeline stages: parsing, padding,
// chunking, and the two output paths (segmented WebVTT and MP4 samples).
package text

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/avokadi/husk/internal/container"
	"github.com/avokadi/husk/internal/fileio"
	"github.com/avokadi/husk/internal/media"
	"github.com/avokadi/husk/internal/status"
)

// WebVttParser is the origin handler of every text pipeline. It reads a
// WebVTT file and emits one text sample per cue.
type WebVttParser struct {
	input    string
	language string

	downstream media.Handler
	canceled   atomic.Bool
}

// NewWebVttParser creates a parser for one input file.
func NewWebVttParser(input, language string) *WebVttParser {
	return &WebVttParser{input: input, language: language}
}

func (p *WebVttParser) AddDownstream(h media.Handler) error {
	if p.downstream != nil && p.downstream != h {
		return fmt.Errorf("parser already has a downstream")
	}
	p.downstream = h
	return nil
}

// Process is invalid for an origin handler.
func (p *WebVttParser) Process(*media.Data) error {
	return fmt.Errorf("webvtt parser has no upstream")
}

// Flush is a no-op; Run flushes downstream when the file ends.
func (p *WebVttParser) Flush() error {
	return nil
}

// Initialize verifies the parser has somewhere to send cues.
func (p *WebVttParser) Initialize() error {
	if p.downstream == nil {
		return status.InvalidArgument("webvtt parser for %s has no downstream", p.input)
	}
	return nil
}

// Cancel stops an in-flight Run at the next cue boundary.
func (p *WebVttParser) Cancel() {
	p.canceled.Store(true)
}

// Run parses the input and streams cues downstream.
func (p *WebVttParser) Run(ctx context.Context) error {
	data, err := fileio.ReadFileToString(p.input)
	if err != nil {
		return status.FileFailure("failed to read input %s: %v", p.input, err)
	}
	if container.DetermineContainer(data) != container.WebVTT {
		return status.ParserFailure("%s is not a WebVTT file", p.input)
	}

	cues, err := ParseCues(string(data))
	if err != nil {
		return status.ParserFailure("%s: %v", p.input, err)
	}

	info := &media.StreamInfo{
		Selector: "text",
		Kind:     media.KindText,
		Codec:    "wvtt",
		Language: p.language,
	}
	if err := p.downstream.Process(&media.Data{Kind: media.DataStreamInfo, Stream: info}); err != nil {
		return err
	}

	for _, cue := range cues {
		if p.canceled.Load() {
			return context.Canceled
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		sample := &media.Sample{
			TimestampMs: cue.StartMs,
			DurationMs:  cue.EndMs - cue.StartMs,
			KeyFrame:    true,
			Text:        cue,
		}
		if err := p.downstream.Process(&media.Data{Kind: media.DataSample, Sample: sample}); err != nil {
			return err
		}
	}
	return p.downstream.Flush()
}

// ParseCues parses the cue blocks of a WebVTT document. Header lines,
// NOTE blocks, and STYLE blocks are skipped.
func ParseCues(content string) ([]*media.TextSample, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var cues []*media.TextSample
	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "WEBVTT") ||
			strings.HasPrefix(line, "NOTE") || strings.HasPrefix(line, "STYLE") {
			i = skipBlock(lines, i)
			continue
		}

		// An optional identifier line precedes the timing line.
		id := ""
		if !strings.Contains(line, "-->") {
			id = line
			i++
			if i >= len(lines) {
				break
			}
			line = strings.TrimSpace(lines[i])
		}

		start, end, settings, err := parseTiming(line)
		if err != nil {
			return nil, err
		}
		i++

		var payload []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			payload = append(payload, lines[i])
			i++
		}

		cues = append(cues, &media.TextSample{
			ID:       id,
			StartMs:  start,
			EndMs:    end,
			Settings: settings,
			Payload:  strings.Join(payload, "\n"),
		})
	}
	return cues, nil
}

// skipBlock advances past the current block and its trailing blank line.
func skipBlock(lines []string, i int) int {
	for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
		i++
	}
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	return i
}

func parseTiming(line string) (startMs, endMs int64, settings string, err error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, "", fmt.Errorf("invalid cue timing %q", line)
	}

	start, err := parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, "", err
	}

	rest := strings.Fields(strings.TrimSpace(parts[1]))
	if len(rest) == 0 {
		return 0, 0, "", fmt.Errorf("invalid cue timing %q", line)
	}
	end, err := parseTimestamp(rest[0])
	if err != nil {
		return 0, 0, "", err
	}
	if end < start {
		return 0, 0, "", fmt.Errorf("cue ends before it starts: %q", line)
	}
	return start, end, strings.Join(rest[1:], " "), nil
}

// parseTimestamp accepts (hh:)mm:ss.mmm.
func parseTimestamp(ts string) (int64, error) {
	dot := strings.IndexByte(ts, '.')
	if dot < 0 {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}
	millis, err := strconv.Atoi(ts[dot+1:])
	if err != nil || len(ts[dot+1:]) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}

	fields := strings.Split(ts[:dot], ":")
	if len(fields) != 2 && len(fields) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}

	total := int64(0)
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", ts)
		}
		total = total*60 + int64(v)
	}
	return total*1000 + int64(millis), nil
}
