package media

import (
	"encoding/binary"
	"fmt"

	"github.com/avokadi/husk/internal/drm"
)

// EncryptionConfig binds an encryptor to its scheme, key source, and
// label policy. The pipeline copies and adjusts this per stream.
type EncryptionConfig struct {
	Scheme    drm.ProtectionScheme
	KeySource drm.KeySource
	LabelFunc drm.StreamLabelFunc
}

// EncryptionHandler encrypts sample payloads with the key selected by
// the stream's DRM label.
type EncryptionHandler struct {
	singleOutput
	cfg EncryptionConfig

	key    *drm.EncryptionKey
	cipher drm.Cipher
}

// NewEncryptionHandler creates an encryptor stage.
func NewEncryptionHandler(cfg EncryptionConfig) (*EncryptionHandler, error) {
	if cfg.KeySource == nil {
		return nil, fmt.Errorf("encryption handler requires a key source")
	}
	return &EncryptionHandler{cfg: cfg}, nil
}

// Scheme reports the protection scheme this encryptor applies.
func (h *EncryptionHandler) Scheme() drm.ProtectionScheme {
	return h.cfg.Scheme
}

func (h *EncryptionHandler) Process(d *Data) error {
	switch d.Kind {
	case DataStreamInfo:
		label := ""
		if h.cfg.LabelFunc != nil {
			label = h.cfg.LabelFunc(attributesOf(d.Stream))
		}
		key, err := h.cfg.KeySource.GetKey(label)
		if err != nil {
			return err
		}
		cipher, err := drm.NewCipher(h.cfg.Scheme, key.Key)
		if err != nil {
			return err
		}
		h.key = key
		h.cipher = cipher

		info := d.Stream.Clone()
		info.Encrypted = true
		return h.send(&Data{Kind: DataStreamInfo, Stream: info})

	case DataSample:
		if h.cipher == nil {
			return fmt.Errorf("sample before stream info")
		}
		encrypted, err := h.cipher.Encrypt(d.Sample.Payload, h.sampleIV(d.Sample))
		if err != nil {
			return err
		}
		s := *d.Sample
		s.Payload = encrypted
		return h.send(&Data{Kind: DataSample, Sample: &s})

	default:
		return h.send(d)
	}
}

// sampleIV derives a per-sample IV from the configured IV or, absent
// one, from the sample timestamp.
func (h *EncryptionHandler) sampleIV(s *Sample) []byte {
	if len(h.key.IV) > 0 {
		return h.key.IV
	}
	iv := make([]byte, 16)
	binary.BigEndian.PutUint64(iv[8:], uint64(s.TimestampMs))
	return iv
}

func (h *EncryptionHandler) Flush() error {
	return h.flushDownstream()
}

func attributesOf(info *StreamInfo) drm.EncryptedStreamAttributes {
	attrs := drm.EncryptedStreamAttributes{
		Width:  info.Width,
		Height: info.Height,
	}
	switch info.Kind {
	case KindAudio:
		attrs.Type = drm.StreamTypeAudio
	case KindVideo:
		attrs.Type = drm.StreamTypeVideo
	}
	return attrs
}
