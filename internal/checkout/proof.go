package checkout

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// MaxProofSize is the largest accepted proof-of-payment image.
const MaxProofSize = 2 << 20

var (
	ErrProofEmpty     = errors.New("payment proof is empty")
	ErrProofTooLarge  = errors.New("payment proof must be 2MB or smaller")
	ErrProofType      = errors.New("payment proof must be a PNG or JPEG image")
	ErrProofMalformed = errors.New("payment proof is not a valid image data URL")
)

var allowedProofTypes = map[string]bool{"image/png": true, "image/jpeg": true}

// Attachment is a decoded proof-of-payment image.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DecodeProof turns a base64 data URL into a binary attachment.
func DecodeProof(dataURL string) (*Attachment, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, ErrProofMalformed
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxProofSize+3 {
		return nil, ErrProofTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofMalformed, err)
	}
	return NewAttachment("payment-proof", data)
}

// NewAttachment checks size and sniffed content type of raw image bytes.
func NewAttachment(filename string, data []byte) (*Attachment, error) {
	if len(data) == 0 {
		return nil, ErrProofEmpty
	}
	if len(data) > MaxProofSize {
		return nil, ErrProofTooLarge
	}
	contentType := http.DetectContentType(data)
	if !allowedProofTypes[contentType] {
		return nil, ErrProofType
	}
	if filename == "" {
		filename = "payment-proof"
	}
	if !strings.Contains(filename, ".") {
		filename += extension(contentType)
	}
	return &Attachment{Filename: filename, ContentType: contentType, Data: data}, nil
}

func extension(contentType string) string {
	if contentType == "image/png" {
		return ".png"
	}
	return ".jpg"
}
