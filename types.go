package husk

import (
	"github.com/avokadi/husk/internal/container"
	"github.com/avokadi/husk/internal/drm"
	"github.com/avokadi/husk/internal/fileio"
	"github.com/avokadi/husk/internal/pipeline"
	"github.com/avokadi/husk/internal/status"
)

// The public configuration surface aliases the pipeline types so
// callers never import internal packages directly.
type (
	StreamDescriptor     = pipeline.StreamDescriptor
	PackagingParams      = pipeline.PackagingParams
	ChunkingParams       = pipeline.ChunkingParams
	EncryptionParams     = pipeline.EncryptionParams
	DecryptionParams     = pipeline.DecryptionParams
	HlsParams            = pipeline.HlsParams
	MpdParams            = pipeline.MpdParams
	AdCueGeneratorParams = pipeline.AdCueGeneratorParams
	TestParams           = pipeline.TestParams
	HlsPlaylistType      = pipeline.HlsPlaylistType
	Profile              = pipeline.Profile

	BufferCallbackParams = fileio.BufferCallbackParams

	KeyProvider               = drm.KeyProvider
	ProtectionScheme          = drm.ProtectionScheme
	RawKeyParams              = drm.RawKeyParams
	RawKey                    = drm.RawKey
	EncryptedStreamAttributes = drm.EncryptedStreamAttributes
	StreamLabelFunc           = drm.StreamLabelFunc

	MediaContainer = container.Format
)

// NewPackagingParams returns packaging params with default values.
var NewPackagingParams = pipeline.NewPackagingParams

const (
	HlsPlaylistVod   = pipeline.HlsPlaylistVod
	HlsPlaylistEvent = pipeline.HlsPlaylistEvent
	HlsPlaylistLive  = pipeline.HlsPlaylistLive

	ProfileOnDemand = pipeline.ProfileOnDemand
	ProfileLive     = pipeline.ProfileLive

	KeyProviderNone = drm.KeyProviderNone
	KeyProviderRaw  = drm.KeyProviderRaw

	ContainerUnknown = container.Unknown
	ContainerMP4     = container.MP4
	ContainerMPEG2TS = container.MPEG2TS
	ContainerWebVTT  = container.WebVTT
	ContainerTTML    = container.TTML
	ContainerAAC     = container.AAC
	ContainerAC3     = container.AC3
	ContainerEAC3    = container.EAC3
)

// Protection schemes accepted by EncryptionParams.
var (
	SchemeCENC     = drm.SchemeCENC
	SchemeCBC1     = drm.SchemeCBC1
	SchemeCENS     = drm.SchemeCENS
	SchemeCBCS     = drm.SchemeCBCS
	AppleSampleAES = drm.AppleSampleAES
)

// Error kinds returned by Initialize and Run, for errors.Is.
var (
	ErrInvalidArgument = status.ErrInvalidArgument
	ErrUnimplemented   = status.ErrUnimplemented
	ErrFileFailure     = status.ErrFileFailure
	ErrParserFailure   = status.ErrParserFailure
)
