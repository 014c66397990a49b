package media

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectImageType(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantMIME string
		wantOK   bool
	}{
		{name: "JPEG", data: []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, wantMIME: "image/jpeg", wantOK: true},
		{name: "PNG", data: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}, wantMIME: "image/png", wantOK: true},
		{name: "WebP", data: append([]byte("RIFF\x00\x00\x00\x00WEBP"), make([]byte, 10)...), wantMIME: "image/webp", wantOK: true},
		{name: "RIFF but not WebP", data: append([]byte("RIFF\x00\x00\x00\x00WAVE"), make([]byte, 10)...)},
		{name: "PDF", data: []byte("%PDF-1.4 not a photo")},
		{name: "HEIC", data: ftyp("heic", "mif1", "heic"), wantMIME: "image/heic", wantOK: true},
		{name: "HEIC heix", data: ftyp("heix", "mif1", "heix"), wantMIME: "image/heic", wantOK: true},
		{name: "HEIF mif1 major brand", data: ftyp("mif1", "mif1", "heic"), wantMIME: "image/heic", wantOK: true},
		{name: "HEIF generic", data: ftyp("mif1", "mif1"), wantMIME: "image/heif", wantOK: true},
		{name: "AVIF", data: ftyp("avif", "mif1", "miaf", "avif"), wantMIME: "image/avif", wantOK: true},
		{name: "MP4 video", data: ftyp("isom", "isom", "mp41")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mime, ok := DetectImageType(tt.data)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantMIME, mime)
		})
	}
}

// ftyp builds the leading box of an ISO-BMFF file followed by some payload.
func ftyp(major string, compatible ...string) []byte {
	size := 16 + 4*len(compatible)
	box := []byte{0, 0, 0, byte(size)}
	box = append(box, "ftyp"+major+"\x00\x00\x00\x00"...)
	for _, b := range compatible {
		box = append(box, b...)
	}
	return append(box, make([]byte, 16)...)
}

func TestExtensionForPhoneFormats(t *testing.T) {
	assert.Equal(t, ".heic", ExtensionFor("image/heic"))
	assert.Equal(t, ".heif", ExtensionFor("image/heif"))
	assert.Equal(t, ".avif", ExtensionFor("image/avif"))
	assert.Equal(t, ".jpg", ExtensionFor("image/jpeg"))
}

func TestProgressReaderReportsPercent(t *testing.T) {
	var seen []float64
	r := NewProgressReader(bytes.NewReader(make([]byte, 10)), 10, func(p float64) { seen = append(seen, p) })

	buf := make([]byte, 4)
	for {
		_, err := r.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	assert.Equal(t, []float64{40, 80, 100}, seen)
}
