package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var pdfMagic = []byte("%PDF-")

// DecodePayload turns a base64 capture payload into raw bytes. Both padded
// and unpadded standard encodings are accepted.
func DecodePayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		var rawErr error
		if data, rawErr = base64.RawStdEncoding.DecodeString(payload); rawErr != nil {
			return nil, fmt.Errorf("render: decoding payload: %w", err)
		}
	}
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	return data, nil
}

// CheckMagic reports whether data starts with a PDF header.
func CheckMagic(data []byte) error {
	if !bytes.HasPrefix(data, pdfMagic) {
		return ErrNotPDF
	}
	return nil
}

// ValidatePDF checks the header and parses data with pdfcpu in relaxed
// mode.
func ValidatePDF(data []byte) error {
	if err := CheckMagic(data); err != nil {
		return err
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return fmt.Errorf("%w: %v", ErrNotPDF, err)
	}
	return nil
}
