package drm

// StreamType classifies a stream for label selection.
type StreamType int

const (
	StreamTypeUnknown StreamType = iota
	StreamTypeAudio
	StreamTypeVideo
)

// EncryptedStreamAttributes describes the stream a label function
// chooses a DRM label for.
type EncryptedStreamAttributes struct {
	Type   StreamType
	Width  int
	Height int
}

// StreamLabelFunc maps stream attributes to a DRM label such as "SD" or
// "AUDIO".
type StreamLabelFunc func(EncryptedStreamAttributes) string
