// Package media defines the contract for pushing activity photos to a media
// host and the helpers shared by its implementations.
package media

import (
	"context"
	"encoding/binary"
	"io"
	"net/http"
	"sync"
)

// File is a staged image waiting to be uploaded.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ProgressFunc receives the completed share of one upload as 0-100.
type ProgressFunc func(percent float64)

// Uploader pushes one file to a media host and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, ownerID string, file File, onProgress ProgressFunc) (string, error)
}

// ProgressReader reports how much of the wrapped reader has been consumed.
type ProgressReader struct {
	r          io.Reader
	total      int64
	onProgress ProgressFunc

	mu   sync.Mutex
	read int64
}

// NewProgressReader wraps r, whose full length is total bytes.
func NewProgressReader(r io.Reader, total int64, onProgress ProgressFunc) *ProgressReader {
	return &ProgressReader{r: r, total: total, onProgress: onProgress}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.onProgress != nil && p.total > 0 {
		p.mu.Lock()
		p.read += int64(n)
		percent := float64(p.read) / float64(p.total) * 100
		p.mu.Unlock()
		if percent > 100 {
			percent = 100
		}
		p.onProgress(percent)
	}
	return n, err
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a RIFF container tagged WEBP; the stdlib
// sniffer does not know the format.
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// isoImageType reads the ftyp box of an ISO-BMFF file and returns the image
// type its brands declare. Phones store HEIC photos this way. AVIF wins over
// the generic mif1 brand, which both formats list.
func isoImageType(data []byte) string {
	if len(data) < 16 || string(data[4:8]) != "ftyp" {
		return ""
	}
	size := int(binary.BigEndian.Uint32(data[0:4]))
	if size < 16 || size > len(data) {
		size = len(data)
	}

	// major brand, then compatible brands after the minor version
	brands := []string{string(data[8:12])}
	for i := 16; i+4 <= size; i += 4 {
		brands = append(brands, string(data[i:i+4]))
	}

	heif := ""
	for _, b := range brands {
		switch b {
		case "avif", "avis":
			return "image/avif"
		case "heic", "heix", "hevc", "hevx":
			heif = "image/heic"
		case "mif1", "msf1":
			if heif == "" {
				heif = "image/heif"
			}
		}
	}
	return heif
}

// DetectImageType returns the sniffed MIME type of data and whether it is an
// accepted image format.
func DetectImageType(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	if mime := isoImageType(data); mime != "" {
		return mime, true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// ExtensionFor maps an image MIME type to a file extension.
func ExtensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	case "image/heif":
		return ".heif"
	case "image/avif":
		return ".avif"
	default:
		return ".jpg"
	}
}
