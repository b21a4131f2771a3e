package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tgaHeader builds an 18-byte header for an uncompressed or RLE true-color image.
func tgaHeader(imageType byte, w, h int, bpp byte, topDown bool) []byte {
	hdr := make([]byte, 18)
	hdr[2] = imageType
	hdr[12], hdr[13] = byte(w), byte(w>>8)
	hdr[14], hdr[15] = byte(h), byte(h>>8)
	hdr[16] = bpp
	if topDown {
		hdr[17] = 0x20
	}
	return hdr
}

func TestDecodeTGAUncompressedBottomUp(t *testing.T) {
	// 1x2, stored bottom row first: blue then red (BGR order).
	data := append(tgaHeader(TGATypeUncompressed, 1, 2, 24, false),
		255, 0, 0,
		0, 0, 255,
	)
	img, err := DecodeTGA(data)
	require.NoError(t, err)

	r, _, _, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r, "top row should be red")
	_, _, b, _ := img.At(0, 1).RGBA()
	assert.Equal(t, uint32(0xffff), b, "bottom row should be blue")
}

func TestDecodeTGARLE(t *testing.T) {
	// One run packet of 4 identical BGRA pixels.
	data := append(tgaHeader(TGATypeRLE, 2, 2, 32, true), 0x83, 10, 20, 30, 40)
	img, err := DecodeTGA(data)
	require.NoError(t, err)

	rgba := img.(*image.RGBA)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			assert.Equal(t, color.RGBA{R: 30, G: 20, B: 10, A: 40}, rgba.RGBAAt(x, y))
		}
	}
}

func TestDecodeTGARejects(t *testing.T) {
	_, err := DecodeTGA([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrTGA)

	_, err = DecodeTGA(tgaHeader(3, 1, 1, 8, false))
	assert.ErrorIs(t, err, ErrTGA)

	_, err = DecodeTGA(tgaHeader(TGATypeUncompressed, 4, 4, 24, false))
	assert.ErrorIs(t, err, ErrTGA)
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodePNGFlipsRows(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 2))
	src.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	src.SetRGBA(0, 1, color.RGBA{G: 255, A: 255})

	img, err := Decode("tile.png", encodePNG(t, src), Options{})
	require.NoError(t, err)
	require.NoError(t, img.Validate())
	assert.Equal(t, 4, img.Channels)
	// Bottom row is first in upload order.
	assert.Equal(t, []byte{0, 255, 0, 255, 255, 0, 0, 255}, img.Pixels)

	top, err := Decode("tile.png", encodePNG(t, src), Options{TopDown: true})
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 0, 0, 255, 0, 255, 0, 255}, top.Pixels)
}

func TestDecodeGrayConvertsToRGBA(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 1))
	src.SetGray(0, 0, color.Gray{Y: 100})
	src.SetGray(1, 0, color.Gray{Y: 200})

	img, err := Decode("height.png", encodePNG(t, src), Options{})
	require.NoError(t, err)
	assert.Equal(t, []byte{100, 100, 100, 255, 200, 200, 200, 255}, img.Pixels)
}

func TestDecodeMaxSize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 64, 16))
	img, err := Decode("wide.png", encodePNG(t, src), Options{MaxSize: 32})
	require.NoError(t, err)
	assert.Equal(t, 32, img.Width)
	assert.Equal(t, 8, img.Height)
	assert.Len(t, img.Pixels, 32*8*4)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode("broken.png", []byte("not an image"), Options{})
	assert.Error(t, err)
}
