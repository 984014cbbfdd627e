// Package pipeline assembles the packaging graph: it validates stream
// descriptors, resolves output formats, orders streams, and wires
// demuxers, chunkers, encryptors, replicators, trick-play stages, and
// muxers into jobs.
package pipeline

import (
	"github.com/rs/zerolog"

	"github.com/avokadi/husk/internal/drm"
	"github.com/avokadi/husk/internal/fileio"
	"github.com/avokadi/husk/internal/mux"
)

// StreamDescriptor selects one stream of one input and describes where
// and how it is packaged.
type StreamDescriptor struct {
	Input           string
	StreamSelector  string
	Output          string
	SegmentTemplate string
	OutputFormat    string
	Language        string
	Bandwidth       uint32
	SkipEncryption  bool
	DrmLabel        string
	TrickPlayFactor uint32

	HlsGroupID            string
	HlsName               string
	HlsPlaylistName       string
	HlsIframePlaylistName string
}

// ChunkingParams controls segment boundaries.
type ChunkingParams struct {
	SegmentDurationInSeconds    float64
	SubsegmentDurationInSeconds float64
	SegmentSAPAligned           bool
	SubsegmentSAPAligned        bool
}

// EncryptionParams configures content encryption.
type EncryptionParams struct {
	KeyProvider      drm.KeyProvider
	RawKey           drm.RawKeyParams
	ProtectionScheme drm.ProtectionScheme
	StreamLabelFunc  drm.StreamLabelFunc
}

// DecryptionParams configures decryption of protected inputs.
type DecryptionParams struct {
	KeyProvider drm.KeyProvider
	RawKey      drm.RawKeyParams
}

// HlsPlaylistType mirrors the EXT-X-PLAYLIST-TYPE choices.
type HlsPlaylistType int

const (
	HlsPlaylistVod HlsPlaylistType = iota
	HlsPlaylistEvent
	HlsPlaylistLive
)

// HlsParams configures HLS output.
type HlsParams struct {
	MasterPlaylistOutput string
	PlaylistType         HlsPlaylistType
	DefaultLanguage      string
}

// MpdParams configures DASH output.
type MpdParams struct {
	MpdOutput       string
	DefaultLanguage string
}

// AdCueGeneratorParams lists ad-cue times in seconds.
type AdCueGeneratorParams struct {
	CuePoints []float64
}

// TestParams holds test-only switches.
type TestParams struct {
	DumpStreamInfo         bool
	InjectFakeClock        bool
	InjectedLibraryVersion string
}

// PackagingParams is the top-level configuration of one packaging run.
type PackagingParams struct {
	Mp4OutputParams mux.Mp4Params
	TempDir         string

	ChunkingParams       ChunkingParams
	EncryptionParams     EncryptionParams
	DecryptionParams     DecryptionParams
	HlsParams            HlsParams
	MpdParams            MpdParams
	AdCueGeneratorParams AdCueGeneratorParams

	// BufferCallbackParams, when set, reroutes input and output paths
	// through the caller's buffers.
	BufferCallbackParams *fileio.BufferCallbackParams

	// OutputMediaInfo writes a .media_info sidecar per on-demand output.
	OutputMediaInfo bool

	TestParams TestParams

	Logger zerolog.Logger
}

// NewPackagingParams returns params with the defaults a plain run uses.
func NewPackagingParams() PackagingParams {
	return PackagingParams{
		ChunkingParams: ChunkingParams{
			SegmentDurationInSeconds: 6,
			SegmentSAPAligned:        true,
			SubsegmentSAPAligned:     true,
		},
		Logger: zerolog.Nop(),
	}
}

// Profile is the DASH profile shared by every descriptor of a run.
type Profile int

const (
	ProfileOnDemand Profile = iota
	ProfileLive
)

func (p Profile) String() string {
	if p == ProfileLive {
		return "live"
	}
	return "on-demand"
}

// profileOf derives the run profile from the first descriptor. The
// validator has already rejected mixed descriptor sets.
func profileOf(descriptors []StreamDescriptor) Profile {
	if len(descriptors) > 0 && descriptors[0].SegmentTemplate != "" {
		return ProfileLive
	}
	return ProfileOnDemand
}
