// Package qr renders product scan payloads as QR code PNGs.
package qr

import qrcode "github.com/skip2/go-qrcode"

// DefaultSize is the rendered image edge in pixels.
const DefaultSize = 256

// EncodePNG renders the payload as a QR PNG. size <= 0 uses DefaultSize.
func EncodePNG(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	return qrcode.Encode(payload, qrcode.Medium, size)
}
