package texture

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // BMP decoder registration
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // TIFF decoder registration
	_ "golang.org/x/image/webp" // WebP decoder registration

	"github.com/Faultbox/orbitview/internal/engine/gpu"
)

// Options control how decoded images are prepared for upload.
type Options struct {
	// MaxSize downscales images whose larger side exceeds it. Zero disables.
	MaxSize int
	// TopDown keeps the file's row order instead of flipping for GL upload.
	// Cubemap faces are uploaded top-down.
	TopDown bool
}

// Decode turns encoded image bytes into a tightly packed RGBA8 buffer. The
// name selects the TGA decoder by extension; other formats are sniffed.
func Decode(name string, data []byte, opts Options) (gpu.Image, error) {
	var (
		img image.Image
		err error
	)
	if strings.EqualFold(filepath.Ext(name), ".tga") {
		img, err = DecodeTGA(data)
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return gpu.Image{}, fmt.Errorf("decoding %s: %w", name, err)
	}

	rgba := toRGBA(img, opts.MaxSize)
	out := gpu.Image{
		Width:    rgba.Bounds().Dx(),
		Height:   rgba.Bounds().Dy(),
		Channels: 4,
		Pixels:   rgba.Pix,
	}
	if !opts.TopDown {
		out = FlipRows(out)
	}
	return out, nil
}

// toRGBA converts img to a zero-origin RGBA image, scaling it down if needed.
func toRGBA(img image.Image, maxSize int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if maxSize > 0 && (w > maxSize || h > maxSize) {
		if w >= h {
			h = max(h*maxSize/w, 1)
			w = maxSize
		} else {
			w = max(w*maxSize/h, 1)
			h = maxSize
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		return dst
	}

	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*w {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// FlipRows returns a copy of img with its row order reversed.
func FlipRows(img gpu.Image) gpu.Image {
	stride := img.Width * img.Channels
	out := make([]byte, len(img.Pixels))
	for y := 0; y < img.Height; y++ {
		src := img.Pixels[y*stride : (y+1)*stride]
		copy(out[(img.Height-1-y)*stride:], src)
	}
	img.Pixels = out
	return img
}
