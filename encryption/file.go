package encryption

import (
	"bytes"
	"encoding/base64"
	"os"
)

// envelopeSeparator splits iv, tag, and ciphertext inside the encoded
// payload. The raw parts may not contain ':' ambiguity because iv and tag
// have fixed lengths; the split is bounded to three parts regardless.
var envelopeSeparator = []byte(":")

// EncodeEnvelope serializes a Box into the canonical on-disk form
// base64url(iv ":" tag ":" ciphertext).
func EncodeEnvelope(box Box) []byte {
	raw := make([]byte, 0, len(box.IV)+len(box.Tag)+len(box.Ciphertext)+2)
	raw = append(raw, box.IV...)
	raw = append(raw, envelopeSeparator...)
	raw = append(raw, box.Tag...)
	raw = append(raw, envelopeSeparator...)
	raw = append(raw, box.Ciphertext...)

	encoded := make([]byte, base64.URLEncoding.EncodedLen(len(raw)))
	base64.URLEncoding.Encode(encoded, raw)
	return encoded
}

// DecodeEnvelope parses the canonical on-disk form back into a Box. A payload
// that does not decode into exactly iv, tag, and ciphertext fails with
// ErrFormat.
func DecodeEnvelope(encoded []byte) (Box, error) {
	raw := make([]byte, base64.URLEncoding.DecodedLen(len(encoded)))
	n, err := base64.URLEncoding.Decode(raw, encoded)
	if err != nil {
		return Box{}, ErrFormat
	}
	raw = raw[:n]

	if len(raw) < ivSize+1+tagSize+1 {
		return Box{}, ErrFormat
	}
	iv := raw[:ivSize]
	if !bytes.Equal(raw[ivSize:ivSize+1], envelopeSeparator) {
		return Box{}, ErrFormat
	}
	tag := raw[ivSize+1 : ivSize+1+tagSize]
	if !bytes.Equal(raw[ivSize+1+tagSize:ivSize+2+tagSize], envelopeSeparator) {
		return Box{}, ErrFormat
	}
	ciphertext := raw[ivSize+2+tagSize:]

	return Box{
		IV:         append([]byte(nil), iv...),
		Tag:        append([]byte(nil), tag...),
		Ciphertext: append([]byte(nil), ciphertext...),
	}, nil
}

// EncryptFile reads inputPath, encrypts its contents with AES-256-GCM, and
// writes the encoded envelope to outputPath. Consumed by the backup pipeline
// as a black-box call.
func (s *Service) EncryptFile(inputPath, outputPath string) error {
	plaintext, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}

	box, err := s.EncryptSymmetric(plaintext)
	if err != nil {
		return err
	}

	return os.WriteFile(outputPath, EncodeEnvelope(box), 0o600)
}

// DecryptFile reverses [Service.EncryptFile]. A payload that does not split
// into exactly three parts fails with ErrFormat before any decryption is
// attempted.
func (s *Service) DecryptFile(inputPath, outputPath string) error {
	encoded, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}

	box, err := DecodeEnvelope(encoded)
	if err != nil {
		return err
	}

	plaintext, err := s.DecryptSymmetric(box)
	if err != nil {
		return err
	}

	return os.WriteFile(outputPath, plaintext, 0o600)
}
