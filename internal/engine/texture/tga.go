// Package texture decodes image files into upload-ready pixel buffers.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

// ErrTGA reports a TGA stream the decoder cannot read.
var ErrTGA = errors.New("invalid TGA")

// DecodeTGA decodes uncompressed (type 2) and RLE (type 10) true-color TGA
// data at 24 or 32 bits per pixel.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("%w: header too short", ErrTGA)
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped images not supported", ErrTGA)
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("%w: unsupported type %d", ErrTGA, imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrTGA, bpp)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrTGA)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("%w: truncated", ErrTGA)
	}

	d := tgaDecoder{
		src:         data[offset:],
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		width:       width,
		height:      height,
		bytesPerPx:  bpp / 8,
		topToBottom: descriptor&0x20 != 0,
	}

	if imageType == TGATypeUncompressed {
		if len(d.src) < width*height*d.bytesPerPx {
			return nil, fmt.Errorf("%w: pixel data truncated", ErrTGA)
		}
		for i := 0; i < width*height; i++ {
			d.put(i, d.read())
		}
	} else {
		d.decodeRLE()
	}

	return d.img, nil
}

type tgaDecoder struct {
	src         []byte
	pos         int
	img         *image.RGBA
	width       int
	height      int
	bytesPerPx  int
	topToBottom bool
}

func (d *tgaDecoder) read() color.RGBA {
	p := d.src[d.pos:]
	c := color.RGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if d.bytesPerPx == 4 {
		c.A = p[3]
	}
	d.pos += d.bytesPerPx
	return c
}

// put stores pixel i of the file's row order into the top-down image.
func (d *tgaDecoder) put(i int, c color.RGBA) {
	x, y := i%d.width, i/d.width
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	d.img.SetRGBA(x, y, c)
}

func (d *tgaDecoder) decodeRLE() {
	total := d.width * d.height
	px := 0
	for px < total && d.pos < len(d.src) {
		packet := d.src[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			if d.pos+d.bytesPerPx > len(d.src) {
				return
			}
			c := d.read()
			for i := 0; i < count && px < total; i++ {
				d.put(px, c)
				px++
			}
			continue
		}

		for i := 0; i < count && px < total; i++ {
			if d.pos+d.bytesPerPx > len(d.src) {
				return
			}
			d.put(px, d.read())
			px++
		}
	}
}
