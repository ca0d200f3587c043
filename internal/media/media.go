// Package media validates uploads and derives their dimensions and thumbnails.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Media types, matching models.MediaImage and models.MediaVideo
const (
	TypeImage = "image"
	TypeVideo = "video"
)

// DefaultMaxPixels bounds the declared width*height of decoded images
const DefaultMaxPixels = 50_000_000

var (
	ErrTooLarge     = errors.New("file too large")
	ErrInvalidType  = errors.New("invalid file type")
	ErrInvalidImage = errors.New("invalid image file")
)

var contentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
	"webm": "video/webm",
}

// AllowedExtensions lists accepted file extensions in display order
var AllowedExtensions = []string{"jpg", "jpeg", "png", "gif", "webp", "mp4", "mov", "avi", "webm"}

var videoExtensions = map[string]bool{"mp4": true, "mov": true, "avi": true, "webm": true}

// Asset describes an accepted upload
type Asset struct {
	Ext         string
	MediaType   string
	ContentType string
	Width       *int
	Height      *int

	// Thumbnail is nil for videos
	Thumbnail     []byte
	ThumbnailExt  string
	ThumbnailType string
}

// Processor checks uploads against the size cap and extension allow-list
type Processor struct {
	maxSize    int64
	maxPixels  int64
	thumbWidth int
}

// NewProcessor creates a processor. Thumbnails are thumbWidth pixels wide.
func NewProcessor(maxSize int64, thumbWidth int) *Processor {
	if thumbWidth <= 0 {
		thumbWidth = 300
	}
	return &Processor{maxSize: maxSize, maxPixels: DefaultMaxPixels, thumbWidth: thumbWidth}
}

// WithMaxPixels sets the largest width*height accepted for images. Values
// below one keep the default.
func (p *Processor) WithMaxPixels(n int64) *Processor {
	if n > 0 {
		p.maxPixels = n
	}
	return p
}

// MaxSize returns the upload size cap in bytes
func (p *Processor) MaxSize() int64 {
	return p.maxSize
}

// Extension returns the lower-cased extension of name without the dot
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// Inspect validates the upload named name and, for images, decodes it to read
// its dimensions and build a thumbnail. r is rewound before returning.
func (p *Processor) Inspect(name string, size int64, r io.ReadSeeker) (*Asset, error) {
	if p.maxSize > 0 && size > p.maxSize {
		return nil, fmt.Errorf("%w: maximum size is %s", ErrTooLarge, HumanSize(p.maxSize))
	}

	ext := Extension(name)
	contentType, ok := contentTypes[ext]
	if !ok {
		return nil, fmt.Errorf("%w: allowed %s", ErrInvalidType, strings.Join(AllowedExtensions, ", "))
	}

	asset := &Asset{Ext: ext, ContentType: contentType, MediaType: TypeImage}
	if videoExtensions[ext] {
		asset.MediaType = TypeVideo
		return asset, nil
	}

	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > p.maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, cfg.Width, cfg.Height, p.maxPixels)
	}
	asset.Width, asset.Height = &cfg.Width, &cfg.Height

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}

	thumb, thumbExt, thumbType, err := p.thumbnail(src, format)
	if err != nil {
		return nil, err
	}
	asset.Thumbnail, asset.ThumbnailExt, asset.ThumbnailType = thumb, thumbExt, thumbType
	return asset, nil
}

// thumbnail scales src to the configured width, keeping the aspect ratio.
// Images narrower than the width keep their size. WebP has no encoder and is
// re-encoded as JPEG.
func (p *Processor) thumbnail(src image.Image, format string) ([]byte, string, string, error) {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > p.thumbWidth {
		height = height * p.thumbWidth / width
		width = p.thumbWidth
	}
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, dst); err != nil {
			return nil, "", "", fmt.Errorf("failed to encode thumbnail: %w", err)
		}
		return buf.Bytes(), "png", "image/png", nil
	case "gif":
		if err := gif.Encode(&buf, dst, nil); err != nil {
			return nil, "", "", fmt.Errorf("failed to encode thumbnail: %w", err)
		}
		return buf.Bytes(), "gif", "image/gif", nil
	default:
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
			return nil, "", "", fmt.Errorf("failed to encode thumbnail: %w", err)
		}
		return buf.Bytes(), "jpg", "image/jpeg", nil
	}
}

// FileName returns a random stored file name such as img_<hex>.jpg
func FileName(mediaType, ext string) string {
	prefix := "img_"
	if mediaType == TypeVideo {
		prefix = "vid_"
	}
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "") + "." + ext
}

// HumanSize formats a byte count such as 50MB
func HumanSize(n int64) string {
	switch {
	case n >= 1<<30 && n%(1<<30) == 0:
		return fmt.Sprintf("%dGB", n>>30)
	case n >= 1<<20:
		return fmt.Sprintf("%dMB", n>>20)
	default:
		return fmt.Sprintf("%dKB", n>>10)
	}
}
