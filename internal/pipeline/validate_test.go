package pipeline

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/avokadi/husk/internal/status"
)

func vodDescriptor() StreamDescriptor {
	return StreamDescriptor{
		Input:          "v.mp4",
		StreamSelector: "video",
		Output:         "v_out.mp4",
	}
}

func liveDescriptor() StreamDescriptor {
	return StreamDescriptor{
		Input:           "v.mp4",
		StreamSelector:  "video",
		Output:          "v_init.mp4",
		SegmentTemplate: "v_$Number$.m4s",
	}
}

func TestValidateParamsDescriptorSet(t *testing.T) {
	tests := []struct {
		name        string
		params      PackagingParams
		descriptors []StreamDescriptor
		wantErr     error
	}{
		{
			"empty descriptor set",
			NewPackagingParams(),
			nil,
			status.ErrInvalidArgument,
		},
		{
			"mixed profiles",
			NewPackagingParams(),
			[]StreamDescriptor{vodDescriptor(), liveDescriptor()},
			status.ErrInvalidArgument,
		},
		{
			"subsegment alignment without segment alignment",
			func() PackagingParams {
				p := NewPackagingParams()
				p.ChunkingParams.SegmentSAPAligned = false
				p.ChunkingParams.SubsegmentSAPAligned = true
				return p
			}(),
			[]StreamDescriptor{vodDescriptor()},
			status.ErrInvalidArgument,
		},
		{
			"output media info on live profile",
			func() PackagingParams {
				p := NewPackagingParams()
				p.OutputMediaInfo = true
				return p
			}(),
			[]StreamDescriptor{liveDescriptor()},
			status.ErrUnimplemented,
		},
		{
			"valid on-demand",
			NewPackagingParams(),
			[]StreamDescriptor{vodDescriptor()},
			nil,
		},
		{
			"valid live",
			NewPackagingParams(),
			[]StreamDescriptor{liveDescriptor()},
			nil,
		},
	}

	for _, tt := range tests {
		err := ValidateParams(&tt.params, tt.descriptors)
		if tt.wantErr == nil {
			if err != nil {
				t.Errorf("%s: unexpected error %v", tt.name, err)
			}
			continue
		}
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestValidateStreamDescriptor(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*StreamDescriptor)
		dump    bool
		wantErr bool
	}{
		{"valid", func(d *StreamDescriptor) {}, false, false},
		{"missing input", func(d *StreamDescriptor) { d.Input = "" }, false, true},
		{"no outputs", func(d *StreamDescriptor) { d.Output = "" }, false, true},
		{"no outputs with dump stream info", func(d *StreamDescriptor) { d.Output = "" }, true, false},
		{"missing selector", func(d *StreamDescriptor) { d.StreamSelector = "" }, false, true},
		{
			"ts with init segment",
			func(d *StreamDescriptor) {
				d.Output = "init.ts"
				d.SegmentTemplate = "s_$Number$.ts"
			},
			false, true,
		},
		{
			"single-file ts",
			func(d *StreamDescriptor) { d.Output = "out.ts" },
			false, true,
		},
		{
			"ts segments only",
			func(d *StreamDescriptor) {
				d.Output = ""
				d.SegmentTemplate = "s_$Number$.ts"
			},
			false, false,
		},
		{
			"segmented webvtt with init segment",
			func(d *StreamDescriptor) {
				d.StreamSelector = "text"
				d.Output = "out.vtt"
				d.SegmentTemplate = "s_$Number$.vtt"
			},
			false, true,
		},
		{
			"segmented aac with init segment",
			func(d *StreamDescriptor) {
				d.StreamSelector = "audio"
				d.Output = "init.aac"
				d.SegmentTemplate = "s_$Number$.aac"
			},
			false, true,
		},
		{
			"mp4 segments without init segment",
			func(d *StreamDescriptor) {
				d.Output = ""
				d.SegmentTemplate = "s_$Number$.m4s"
			},
			false, true,
		},
		{
			"unknown output format",
			func(d *StreamDescriptor) { d.Output = "out.xyz" },
			false, true,
		},
		{
			"bad segment template grammar",
			func(d *StreamDescriptor) {
				d.Output = "init.mp4"
				d.SegmentTemplate = "plain.m4s"
			},
			false, true,
		},
		{
			"templated output name",
			func(d *StreamDescriptor) { d.Output = "out_$Number$.mp4" },
			false, false,
		},
		{
			"templated output name with bad grammar",
			func(d *StreamDescriptor) { d.Output = "out_$Oops$.mp4" },
			false, true,
		},
	}

	for _, tt := range tests {
		d := vodDescriptor()
		tt.mutate(&d)
		err := validateStreamDescriptor(zerolog.Nop(), tt.dump, &d)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, status.ErrInvalidArgument) {
			t.Errorf("%s: error kind = %v, want invalid argument", tt.name, err)
		}
	}
}

func TestValidateParamsOutputFormatHint(t *testing.T) {
	params := NewPackagingParams()
	d := StreamDescriptor{
		Input:          "a.aac",
		StreamSelector: "0",
		Output:         "whatever.bin",
		OutputFormat:   "mp2t",
	}
	// The mp2t hint forbids an output, regardless of the file name.
	if err := ValidateParams(&params, []StreamDescriptor{d}); !errors.Is(err, status.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}
