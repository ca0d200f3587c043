package media

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 167, G: 243, B: 208, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestInspectImageBuildsThumbnail(t *testing.T) {
	data := pngBytes(t, 600, 400)
	p := NewProcessor(10<<20, 300)

	r := bytes.NewReader(data)
	asset, err := p.Inspect("Holiday.PNG", int64(len(data)), r)
	require.NoError(t, err)

	assert.Equal(t, "png", asset.Ext)
	assert.Equal(t, TypeImage, asset.MediaType)
	assert.Equal(t, "image/png", asset.ContentType)
	require.NotNil(t, asset.Width)
	assert.Equal(t, 600, *asset.Width)
	assert.Equal(t, 400, *asset.Height)

	thumb, err := png.DecodeConfig(bytes.NewReader(asset.Thumbnail))
	require.NoError(t, err)
	assert.Equal(t, 300, thumb.Width)
	assert.Equal(t, 200, thumb.Height)
	assert.Equal(t, "png", asset.ThumbnailExt)

	pos, err := r.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Zero(t, pos, "reader is rewound for storage")
}

func TestInspectSmallImageKeepsSize(t *testing.T) {
	data := pngBytes(t, 120, 80)
	asset, err := NewProcessor(10<<20, 300).Inspect("a.png", int64(len(data)), bytes.NewReader(data))
	require.NoError(t, err)

	thumb, err := png.DecodeConfig(bytes.NewReader(asset.Thumbnail))
	require.NoError(t, err)
	assert.Equal(t, 120, thumb.Width)
}

func TestInspectVideoSkipsDecoding(t *testing.T) {
	asset, err := NewProcessor(10<<20, 300).Inspect("clip.mov", 9, strings.NewReader("moov-data"))
	require.NoError(t, err)

	assert.Equal(t, TypeVideo, asset.MediaType)
	assert.Equal(t, "video/quicktime", asset.ContentType)
	assert.Nil(t, asset.Width)
	assert.Nil(t, asset.Thumbnail)
}

func TestInspectRejects(t *testing.T) {
	p := NewProcessor(1<<20, 300)

	_, err := p.Inspect("a.png", 2<<20, strings.NewReader(""))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = p.Inspect("script.php", 10, strings.NewReader("<?php ?>"))
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = p.Inspect("fake.jpg", 10, strings.NewReader("not a jpeg"))
	assert.ErrorIs(t, err, ErrInvalidImage)

	bomb := declaredPNG(t, 60000, 60000)
	_, err = p.Inspect("bomb.png", int64(len(bomb)), bytes.NewReader(bomb))
	assert.ErrorIs(t, err, ErrInvalidImage)

	data := pngBytes(t, 20, 20)
	_, err = NewProcessor(1<<20, 300).WithMaxPixels(399).Inspect("a.png", int64(len(data)), bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

// declaredPNG returns a 1x1 PNG whose header claims width x height
func declaredPNG(t *testing.T, width, height uint32) []byte {
	t.Helper()
	data := pngBytes(t, 1, 1)
	// signature(8) length(4) "IHDR"(4) then width and height
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, int(width), cfg.Width)
	return data
}

func TestFileName(t *testing.T) {
	img := FileName(TypeImage, "jpg")
	vid := FileName(TypeVideo, "mp4")

	assert.True(t, strings.HasPrefix(img, "img_"))
	assert.True(t, strings.HasSuffix(img, ".jpg"))
	assert.True(t, strings.HasPrefix(vid, "vid_"))
	assert.Len(t, img, len("img_")+32+len(".jpg"))
	assert.NotEqual(t, img, FileName(TypeImage, "jpg"))
}
