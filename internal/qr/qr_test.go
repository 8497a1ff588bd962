package qr

import (
	"bytes"
	"testing"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG("PRD:0f8fad5b-d9cb-469f-a165-70867728950e", 0)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Errorf("output is not a PNG, first bytes: %v", data[:8])
	}
}

func TestEncodePNGCustomSize(t *testing.T) {
	data, err := EncodePNG("PRD:test", 128)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(data) == 0 {
		t.Error("empty output")
	}
}
