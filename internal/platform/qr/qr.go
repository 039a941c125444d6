// Package qr encodes URLs as scannable QR images. The rest of the service
// treats it as an opaque collaborator behind the Encoder interface.
package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// Encoder turns a URL into an image representation a browser can display.
type Encoder interface {
	DataURI(url string) (string, error)
}

// PNGEncoder renders QR codes as base64 PNG data URIs.
type PNGEncoder struct {
	Size int // image edge in pixels
}

// NewPNGEncoder returns a PNGEncoder with a 256px default size.
func NewPNGEncoder() *PNGEncoder {
	return &PNGEncoder{Size: 256}
}

// DataURI encodes url as a PNG QR code and returns it as a data URI suitable
// for an <img> src attribute.
func (e *PNGEncoder) DataURI(url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("qr: url is required")
	}
	size := e.Size
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(url, qrcode.Low, size)
	if err != nil {
		return "", fmt.Errorf("qr: encode %q: %w", url, err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
